package music

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/samber/lo"
)

var presetNames = func() []string {
	names := lo.Keys(player.EqPresets)
	slices.Sort(names)
	return names
}()

func (c *MusicCommand) volume(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}

	level, ok := req.integer("level")
	if !ok {
		return volumeEmbed(fmt.Sprintf("The volume is at %d%%.", p.Volume())), nil
	}
	if err := p.SetVolume(ctx, level); err != nil {
		return nil, err
	}
	return volumeEmbed(fmt.Sprintf("Volume set to %d%%.", level)), nil
}

func (c *MusicCommand) volumeUp(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	return c.stepVolume(req, func(p *player.Player) (int, error) { return p.VolumeUp(ctx) })
}

func (c *MusicCommand) volumeDown(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	return c.stepVolume(req, func(p *player.Player) (int, error) { return p.VolumeDown(ctx) })
}

func (c *MusicCommand) stepVolume(req request, step func(*player.Player) (int, error)) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	level, err := step(p)
	if err != nil {
		return nil, err
	}
	return volumeEmbed(fmt.Sprintf("Volume set to %d%%.", level)), nil
}

func (c *MusicCommand) eq(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	preset := req.str("preset")
	if err := p.SetEqPreset(ctx, preset); err != nil {
		return nil, err
	}
	return eqEmbed(fmt.Sprintf("Equalizer adjusted to the **%s** preset.", preset)), nil
}

func (c *MusicCommand) advEq(ctx context.Context, req request) (*discordgo.MessageEmbed, error) {
	p, err := c.session(req.guildID)
	if err != nil {
		return nil, err
	}
	band, _ := req.integer("band")
	gain, _ := req.number("gain")

	if err := p.SetEqBand(ctx, band, gain); err != nil {
		return nil, err
	}

	index, _ := player.ResolveBand(band)
	return eqEmbed(fmt.Sprintf("Band %d (%d Hz) set to %+.1f dB.", index+1, player.HzBands[index], gain)), nil
}

func volumeEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "🔉 Volume", Description: text, Color: command.EmbedColor}
}

func eqEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "🎚️ Equalizer", Description: text, Color: command.EmbedColor}
}
