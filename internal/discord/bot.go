package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/commands/music"
	"github.com/keshon/rainymusic/internal/config"
	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/source_resolver"
	"github.com/keshon/rainymusic/internal/music/vote"
	"github.com/keshon/rainymusic/internal/storage"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// Bot is a Discord bot
type Bot struct {
	cfg      *config.Config
	dg       *discordgo.Session
	storage  *storage.Storage
	hashes   HashStore
	commands *command.Registry
	players  *player.Registry
	lavalink *lavalink.Client
	votes    *vote.Board
}

// New wires the bot together without connecting anywhere.
func New(cfg *config.Config, store *storage.Storage) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessageReactions

	b := &Bot{
		cfg:      cfg,
		dg:       dg,
		storage:  store,
		hashes:   store,
		commands: command.NewRegistry(),
		votes:    vote.NewBoard(cfg.SelectionTimeout),
	}

	b.lavalink = lavalink.New([]lavalink.NodeConfig{cfg.Lavalink.Node()}, b)
	b.players = player.NewRegistry(b.lavalink.Backend)
	b.lavalink.Handle(b.players.Handlers())

	b.registerMusicCommands()
	return b, nil
}

// registerMusicCommands registers the music commands
func (b *Bot) registerMusicCommands() {
	b.commands.Register(
		&music.MusicCommand{
			Players:  b.players,
			Resolver: source_resolver.New(b.lavalink, b.cfg.SearchPrefix),
			Votes:    b.votes,
			Voice:    b,
			Prompts:  b.prompter,
			Announce: b,
		},
		command.WithGuildOnly(),
		command.WithRateLimit(b.cfg.CommandRate, b.cfg.CommandBurst),
		command.WithCommandLogger(b.storage),
	)
}

// Run connects to Discord and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) { b.onReady(ctx, s, r) })
	b.dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) { b.onInteractionCreate(ctx, s, i) })
	b.dg.AddHandler(b.onMessageReactionAdd)
	b.dg.AddHandler(func(s *discordgo.Session, e *discordgo.VoiceStateUpdate) { b.onVoiceStateUpdate(ctx, s, e) })
	b.dg.AddHandler(func(s *discordgo.Session, e *discordgo.VoiceServerUpdate) { b.onVoiceServerUpdate(ctx, s, e) })

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, cleaning up")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	b.players.Close(shutdownCtx)
	b.lavalink.Close()
	return b.dg.Close()
}

// onReady is called when the bot is ready
func (b *Bot) onReady(ctx context.Context, s *discordgo.Session, r *discordgo.Ready) {
	if err := b.lavalink.Connect(ctx, r.User.ID); err != nil {
		log.Error().Err(err).Msg("failed to start lavalink nodes")
	}

	if err := b.syncCommands(ctx, r.User.ID, b.cfg.DevGuildID); err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
	}

	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

// onInteractionCreate is called when an interaction is created
func (b *Bot) onInteractionCreate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := b.commands.Get(name)
	if !ok {
		log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	sc := &command.SlashInteractionContext{Session: s, Event: i}
	if err := cmd.Run(ctx, sc); err != nil {
		if !errors.Is(err, command.ErrGuildOnly) && !errors.Is(err, command.ErrRateLimited) {
			log.Error().Err(err).Str("command", name).Msg("error running slash command")
		}
		if rerr := command.RespondEmbedEphemeral(s, i, command.ErrorEmbed(err.Error())); rerr != nil {
			log.Debug().Err(rerr).Msg("interaction already answered")
		}
	}
}

// onMessageReactionAdd feeds reactions on vote prompts to the board
func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	if b.votes.Signal(r.MessageID, r.UserID, r.Emoji.Name) {
		log.Debug().Str("guild", r.GuildID).Str("user", r.UserID).Msg("vote decided by reaction")
	}
}

// Announce posts an embed to a text channel.
func (b *Bot) Announce(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := b.dg.ChannelMessageSendEmbed(channelID, embed)
	return err
}
