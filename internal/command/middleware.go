package command

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx context.Context, sc *SlashInteractionContext) error
}

func (w *wrappedCommand) Run(ctx context.Context, sc *SlashInteractionContext) error {
	if w.wrap != nil {
		return w.wrap(ctx, sc)
	}
	return w.Command.Run(ctx, sc)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly rejects invocations from DMs.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx context.Context, sc *SlashInteractionContext) error {
				if sc.GuildID() == "" {
					return ErrGuildOnly
				}
				return cmd.Run(ctx, sc)
			},
		}
	}
}

// HistoryRecorder is the part of the storage the command logger needs.
type HistoryRecorder interface {
	AppendCommandToHistory(guildID string, command storage.CommandHistoryRecord) error
}

// WithCommandLogger logs every invocation and appends it to the guild's
// command history.
func WithCommandLogger(history HistoryRecorder) Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx context.Context, sc *SlashInteractionContext) error {
				start := time.Now()
				err := cmd.Run(ctx, sc)

				user := sc.User()
				entry := log.Info()
				if err != nil {
					entry = log.Warn().Err(err)
				}
				entry.Str("component", "command").
					Str("command", cmd.Name()).
					Str("args", sc.Invocation()).
					Str("guild", sc.GuildID()).
					Str("user", user.ID).
					Dur("took", time.Since(start)).
					Msg("command handled")

				if history != nil && sc.GuildID() != "" {
					rec := storage.CommandHistoryRecord{
						ChannelID: sc.ChannelID(),
						UserID:    user.ID,
						Username:  user.Username,
						Command:   cmd.Name(),
						Param:     sc.Invocation(),
						Datetime:  time.Now(),
					}
					rec.GuildName, rec.ChannelName = stateNames(sc.Session, sc.GuildID(), sc.ChannelID())
					if e := history.AppendCommandToHistory(sc.GuildID(), rec); e != nil {
						log.Warn().Err(e).Str("command", cmd.Name()).Msg("failed to record command")
					}
				}
				return err
			},
		}
	}
}

// stateNames looks the guild and channel names up in the session cache only.
func stateNames(s *discordgo.Session, guildID, channelID string) (guildName, channelName string) {
	if s == nil || s.State == nil {
		return "", ""
	}
	if g, err := s.State.Guild(guildID); err == nil {
		guildName = g.Name
	}
	if c, err := s.State.Channel(channelID); err == nil {
		channelName = c.Name
	}
	return guildName, channelName
}

// WithRateLimit gives every user a token bucket of burst commands refilled
// once per every.
func WithRateLimit(every time.Duration, burst int) Middleware {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	allow := func(userID string) bool {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[userID]
		if !ok {
			l = rate.NewLimiter(rate.Every(every), burst)
			limiters[userID] = l
		}
		return l.Allow()
	}

	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx context.Context, sc *SlashInteractionContext) error {
				if !allow(sc.User().ID) {
					return ErrRateLimited
				}
				return cmd.Run(ctx, sc)
			},
		}
	}
}
