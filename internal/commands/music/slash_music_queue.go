package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/samber/lo"
)

const defaultQueueShow = 10

func (c *MusicCommand) shuffle(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	if err := p.Shuffle(); err != nil {
		return nil, err
	}
	return statusEmbed(player.StatusAdded, "Upcoming tracks shuffled."), nil
}

func (c *MusicCommand) loop(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	mode, err := p.SetRepeatMode(req.str("mode"))
	if err != nil {
		return nil, err
	}
	return &discordgo.MessageEmbed{
		Title:       "🔁 Loop",
		Description: fmt.Sprintf("Repeat mode set to **%s**.", mode),
		Color:       command.EmbedColor,
	}, nil
}

func (c *MusicCommand) queue(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	show, ok := req.integer("show")
	if !ok {
		show = defaultQueueShow
	}
	if show < 1 {
		return nil, player.ErrIndexOutOfRange
	}

	q := p.Queue()
	upcoming, err := q.Upcoming()
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎶 Queue",
		Description: fmt.Sprintf("Showing up to the next %d tracks, %d in total", show, q.Len()),
		Color:       command.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Loop: " + q.Repeat().String()},
	}

	current := "Nothing"
	if track, ok := q.Current(); ok {
		current = trackLink(track)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Currently playing", Value: current})

	if len(upcoming) > 0 {
		first := q.Position() + 2
		lines := lo.Map(lo.Subset(upcoming, 0, uint(show)), func(t sources.Track, i int) string {
			return fmt.Sprintf("`%d.` %s `%s`", first+i, trackLink(t), t.Length())
		})
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Next up", Value: truncate(strings.Join(lines, "\n"), 1024)})
	}
	return embed, nil
}

// truncate keeps s within Discord's field limit.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
