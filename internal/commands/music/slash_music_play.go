package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/player"
)

func (c *MusicCommand) join(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	inferred, _ := c.Voice.UserVoiceChannel(req.guildID, req.userID)

	channelID, err := c.Players.Get(req.guildID).Connect(ctx, req.channel("channel"), inferred)
	if err != nil {
		return nil, err
	}
	return &discordgo.MessageEmbed{
		Title:       "🔊 Connected",
		Description: fmt.Sprintf("Joined <#%s>.", channelID),
		Color:       command.EmbedColor,
	}, nil
}

func (c *MusicCommand) leave(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	if !p.Connected() {
		return nil, player.ErrNotConnected
	}
	if err := c.Players.Teardown(ctx, req.guildID); err != nil {
		return nil, err
	}
	return &discordgo.MessageEmbed{
		Title:       "👋 Disconnected",
		Description: "Left the voice channel and cleared the queue.",
		Color:       command.EmbedColor,
	}, nil
}

// play queues a query, connecting to the member's channel first when
// needed. Without a query it resumes paused playback.
func (c *MusicCommand) play(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	query := req.str("query")
	if query == "" {
		p, err := c.session(req.guildID)
		if err != nil {
			return nil, err
		}
		if err := p.Resume(ctx); err != nil {
			return nil, err
		}
		return statusEmbed(player.StatusResumed, "Playback resumed."), nil
	}

	p := c.Players.Get(req.guildID)
	if !p.Connected() {
		inferred, _ := c.Voice.UserVoiceChannel(req.guildID, req.userID)
		if _, err := p.Connect(ctx, "", inferred); err != nil {
			return nil, err
		}
	}
	c.watch(p)

	result, err := c.Resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	var chooser player.Chooser
	if c.Votes != nil && c.Prompts != nil {
		chooser = player.ChooserFunc(c.Votes.Chooser(c.Prompts(req.channelID), req.userID))
	}

	added, err := p.AddTracks(ctx, result, chooser)
	if err != nil {
		return nil, err
	}
	return addedEmbed(result.Playlist, result.PlaylistName, added), nil
}
