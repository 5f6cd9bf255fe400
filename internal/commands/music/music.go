package music

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/source_resolver"
	"github.com/keshon/rainymusic/internal/music/vote"
	"github.com/rs/zerolog/log"
)

// VoiceLocator finds the voice channel a member is sitting in.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (string, bool)
}

// Announcer posts embeds to a text channel outside of any interaction.
type Announcer interface {
	Announce(channelID string, embed *discordgo.MessageEmbed) error
}

// PromptFactory builds the vote prompter for a text channel.
type PromptFactory func(channelID string) vote.Prompter

type MusicCommand struct {
	Players  *player.Registry
	Resolver *source_resolver.SourceResolver
	Votes    *vote.Board
	Voice    VoiceLocator
	Prompts  PromptFactory
	Announce Announcer

	watching     sync.Map // *player.Player -> struct{}
	textChannels sync.Map // guildID -> channelID of the last command
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play music in a voice channel" }
func (c *MusicCommand) Group() string       { return "music" }
func (c *MusicCommand) Category() string    { return "🎵 Music" }

// request is one parsed /music invocation.
type request struct {
	guildID   string
	channelID string
	userID    string
	sub       string
	opts      map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func (r request) str(name string) string {
	if o, ok := r.opts[name]; ok {
		return o.StringValue()
	}
	return ""
}

func (r request) integer(name string) (int, bool) {
	if o, ok := r.opts[name]; ok {
		return int(o.IntValue()), true
	}
	return 0, false
}

func (r request) number(name string) (float64, bool) {
	if o, ok := r.opts[name]; ok {
		return o.FloatValue(), true
	}
	return 0, false
}

// channel returns the raw id of a channel option without a session lookup.
func (r request) channel(name string) string {
	if o, ok := r.opts[name]; ok {
		if id, ok := o.Value.(string); ok {
			return id
		}
	}
	return ""
}

func newRequest(sc *command.SlashInteractionContext) (request, error) {
	data := sc.Event.ApplicationCommandData()
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return request{}, fmt.Errorf("missing subcommand")
	}

	sub := data.Options[0]
	req := request{
		guildID:   sc.GuildID(),
		channelID: sc.ChannelID(),
		userID:    sc.User().ID,
		sub:       sub.Name,
		opts:      make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options)),
	}
	for _, o := range sub.Options {
		req.opts[o.Name] = o
	}
	return req, nil
}

type handler func(c *MusicCommand, ctx context.Context, req request) (*discordgo.MessageEmbed, error)

var handlers = map[string]handler{
	"join":        (*MusicCommand).join,
	"leave":       (*MusicCommand).leave,
	"play":        (*MusicCommand).play,
	"pause":       (*MusicCommand).pause,
	"stop":        (*MusicCommand).stop,
	"next":        (*MusicCommand).next,
	"previous":    (*MusicCommand).previous,
	"shuffle":     (*MusicCommand).shuffle,
	"loop":        (*MusicCommand).loop,
	"queue":       (*MusicCommand).queue,
	"volume":      (*MusicCommand).volume,
	"volume-up":   (*MusicCommand).volumeUp,
	"volume-down": (*MusicCommand).volumeDown,
	"eq":          (*MusicCommand).eq,
	"adveq":       (*MusicCommand).advEq,
	"playing":     (*MusicCommand).playing,
	"skipto":      (*MusicCommand).skipTo,
	"restart":     (*MusicCommand).restart,
	"seek":        (*MusicCommand).seek,
}

func (c *MusicCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	req, err := newRequest(sc)
	if err != nil {
		return err
	}

	if err := command.RespondDeferred(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	embed, err := c.handle(ctx, req)
	if err != nil {
		log.Debug().Err(err).Str("guild", req.guildID).Str("sub", req.sub).Msg("music command failed")
		return command.FollowupEmbedEphemeral(sc.Session, sc.Event, command.ErrorEmbed(errorMessage(err)))
	}
	return command.FollowupEmbed(sc.Session, sc.Event, embed)
}

func (c *MusicCommand) handle(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	h, ok := handlers[req.sub]
	if !ok {
		return nil, fmt.Errorf("unknown subcommand %q", req.sub)
	}
	c.textChannels.Store(req.guildID, req.channelID)
	return h(c, ctx, req)
}

// session returns the guild's player, which must exist already.
func (c *MusicCommand) session(guildID string) (*player.Player, error) {
	p, ok := c.Players.Lookup(guildID)
	if !ok {
		return nil, player.ErrNotConnected
	}
	return p, nil
}

// watch announces every track start in the guild's last used text channel
// until the player is torn down.
func (c *MusicCommand) watch(p *player.Player) {
	if c.Announce == nil {
		return
	}
	if _, loaded := c.watching.LoadOrStore(p, struct{}{}); loaded {
		return
	}

	go func() {
		defer c.watching.Delete(p)
		for {
			select {
			case <-p.Done():
				return
			case status := <-p.PlayerStatus:
				if status != player.StatusPlaying {
					continue
				}
				track, _, err := p.NowPlaying()
				if err != nil {
					continue
				}
				channelID, ok := c.textChannels.Load(p.GuildID())
				if !ok {
					continue
				}
				if err := c.Announce.Announce(channelID.(string), nowPlayingEmbed(track)); err != nil {
					log.Warn().Err(err).Str("guild", p.GuildID()).Msg("failed to announce track")
				}
			}
		}
	}()
}
