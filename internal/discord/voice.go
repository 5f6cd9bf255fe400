package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var ErrNotInVoice = errors.New("user not in any voice channel")

// JoinVoice asks the gateway to move the bot into channelID. Audio is
// streamed by Lavalink, so no voice connection is opened here.
func (b *Bot) JoinVoice(guildID, channelID string) error {
	return b.dg.ChannelVoiceJoinManual(guildID, channelID, false, true)
}

func (b *Bot) LeaveVoice(guildID string) error {
	return b.dg.ChannelVoiceJoinManual(guildID, "", false, false)
}

// FindUserVoiceState finds the voice state of a user
func (b *Bot) FindUserVoiceState(guildID, userID string) (*discordgo.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, err
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs, nil
		}
	}
	return nil, ErrNotInVoice
}

// UserVoiceChannel implements the music command's voice lookup.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, bool) {
	vs, err := b.FindUserVoiceState(guildID, userID)
	if err != nil {
		return "", false
	}
	return vs.ChannelID, true
}

func (b *Bot) onVoiceServerUpdate(ctx context.Context, s *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	b.lavalink.VoiceServerUpdate(ctx, e.GuildID, e.Token, e.Endpoint)
}

func (b *Bot) onVoiceStateUpdate(ctx context.Context, s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil {
		return
	}
	logger := log.With().Str("component", "voice").Str("guild", e.GuildID).Logger()

	if e.UserID == s.State.User.ID {
		b.lavalink.VoiceStateUpdate(ctx, e.GuildID, e.ChannelID, e.SessionID)

		// Kicked or disconnected by someone else.
		if e.ChannelID == "" {
			if p, ok := b.players.Lookup(e.GuildID); ok && p.Connected() {
				logger.Info().Msg("bot left voice, tearing down")
				if err := b.players.Teardown(ctx, e.GuildID); err != nil {
					logger.Warn().Err(err).Msg("teardown failed")
				}
			}
		}
		return
	}

	if e.BeforeUpdate == nil || e.BeforeUpdate.ChannelID == "" || e.BeforeUpdate.ChannelID == e.ChannelID {
		return
	}
	p, ok := b.players.Lookup(e.GuildID)
	if !ok || p.ChannelID() != e.BeforeUpdate.ChannelID {
		return
	}

	guild, err := s.State.Guild(e.GuildID)
	if err != nil {
		return
	}
	if humansIn(guild.VoiceStates, p.ChannelID(), s.State.User.ID, b.isBot(s, e.GuildID)) > 0 {
		return
	}

	logger.Info().Str("channel", p.ChannelID()).Msg("voice channel empty, tearing down")
	if err := b.players.Teardown(ctx, e.GuildID); err != nil {
		logger.Warn().Err(err).Msg("teardown failed")
	}
}

// humansIn counts the members in channelID that are neither us nor bots.
func humansIn(states []*discordgo.VoiceState, channelID, selfID string, isBot func(*discordgo.VoiceState) bool) int {
	n := 0
	for _, vs := range states {
		if vs.ChannelID != channelID || vs.UserID == selfID || isBot(vs) {
			continue
		}
		n++
	}
	return n
}

// isBot checks the member carried by the voice state, then the cache.
// Unknown members count as people.
func (b *Bot) isBot(s *discordgo.Session, guildID string) func(*discordgo.VoiceState) bool {
	return func(vs *discordgo.VoiceState) bool {
		if vs.Member != nil && vs.Member.User != nil {
			return vs.Member.User.Bot
		}
		if m, err := s.State.Member(guildID, vs.UserID); err == nil && m.User != nil {
			return m.User.Bot
		}
		return false
	}
}
