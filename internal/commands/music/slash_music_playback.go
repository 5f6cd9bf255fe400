package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/sources"
)

func (c *MusicCommand) pause(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	if err := p.Pause(ctx); err != nil {
		return nil, err
	}
	return statusEmbed(player.StatusPaused, "Playback paused."), nil
}

func (c *MusicCommand) stop(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	if err := p.Stop(ctx); err != nil {
		return nil, err
	}
	return statusEmbed(player.StatusStopped, "Playback stopped and the queue was cleared."), nil
}

func (c *MusicCommand) next(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	return c.jump(req, func(p *player.Player) (sources.Track, error) { return p.Next(ctx) })
}

func (c *MusicCommand) previous(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	return c.jump(req, func(p *player.Player) (sources.Track, error) { return p.Previous(ctx) })
}

func (c *MusicCommand) skipTo(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	index, _ := req.integer("index")
	if index == 0 {
		p, err := c.session(req.guildID)
		if err != nil {
			return nil, err
		}
		if _, err := p.SkipTo(ctx, 0); err != nil {
			return nil, err
		}
		return statusEmbed(player.StatusStopped, "Current track stopped. The queue is kept."), nil
	}
	return c.jump(req, func(p *player.Player) (sources.Track, error) { return p.SkipTo(ctx, index) })
}

func (c *MusicCommand) jump(req request, move func(*player.Player) (sources.Track, error)) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	track, err := move(p)
	if err != nil {
		return nil, err
	}
	return nowPlayingEmbed(track), nil
}

func (c *MusicCommand) restart(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	if err := p.Restart(ctx); err != nil {
		return nil, err
	}
	return statusEmbed(player.StatusPlaying, "Track restarted."), nil
}

func (c *MusicCommand) seek(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	position, err := p.SeekTo(ctx, req.str("position"))
	if err != nil {
		return nil, err
	}
	return statusEmbed(player.StatusPlaying, fmt.Sprintf("Seeked to %s.", sources.FormatDuration(position))), nil
}

func (c *MusicCommand) playing(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	track, position, err := p.NowPlaying()
	if err != nil {
		return nil, err
	}

	embed := nowPlayingEmbed(track)
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Position", Value: fmt.Sprintf("%s / %s", sources.FormatDuration(position), track.Length()), Inline: true},
		&discordgo.MessageEmbedField{Name: "State", Value: p.State().String(), Inline: true},
		&discordgo.MessageEmbedField{Name: "Loop", Value: p.Queue().Repeat().String(), Inline: true},
	)
	return embed, nil
}
