package music

import (
	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/samber/lo"
)

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minVolume := float64(player.MinVolume)
	minIndex := 1.0
	minSkip := 0.0
	minGain := -player.MaxEqGainDB

	subcommand := func(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: description,
			Options:     options,
		}
	}

	presets := lo.Map(presetNames, func(name string, _ int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
	})

	return &discordgo.ApplicationCommand{
		Name:         c.Name(),
		Description:  c.Description(),
		DMPermission: lo.ToPtr(false),
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("join", "Connect to a voice channel",
				&discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Voice channel to join, defaults to yours",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice},
				}),
			subcommand("leave", "Disconnect and forget the queue"),
			subcommand("play", "Queue a track or playlist, or resume when paused",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Link or search terms",
				}),
			subcommand("pause", "Pause playback"),
			subcommand("stop", "Stop playback and clear the queue"),
			subcommand("next", "Skip to the next track"),
			subcommand("previous", "Go back to the previous track"),
			subcommand("shuffle", "Shuffle the upcoming tracks"),
			subcommand("loop", "Set the repeat mode",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "What to repeat",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "none", Value: "none"},
						{Name: "one", Value: "1"},
						{Name: "all", Value: "all"},
					},
				}),
			subcommand("queue", "Show the queue",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "show",
					Description: "How many upcoming tracks to list",
					MinValue:    &minIndex,
					MaxValue:    25,
				}),
			subcommand("volume", "Show or set the volume",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume in percent",
					MinValue:    &minVolume,
					MaxValue:    player.MaxVolume,
				}),
			subcommand("volume-up", "Raise the volume by 10%"),
			subcommand("volume-down", "Lower the volume by 10%"),
			subcommand("eq", "Apply an equalizer preset",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "preset",
					Description: "Preset name",
					Required:    true,
					Choices:     presets,
				}),
			subcommand("adveq", "Set a single equalizer band",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "band",
					Description: "Band number (1-15) or frequency in Hz",
					Required:    true,
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "gain",
					Description: "Gain in dB",
					Required:    true,
					MinValue:    &minGain,
					MaxValue:    player.MaxEqGainDB,
				}),
			subcommand("playing", "Show the current track"),
			subcommand("skipto", "Jump to a track in the queue",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "index",
					Description: "Position in the queue, starting at 1; 0 stops the current track",
					Required:    true,
					MinValue:    &minSkip,
				}),
			subcommand("restart", "Restart the current track"),
			subcommand("seek", "Jump within the current track",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "position",
					Description: "e.g. 1:30, 2m10s, 45s",
					Required:    true,
				}),
		},
	}
}
