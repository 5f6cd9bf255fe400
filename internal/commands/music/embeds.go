package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/sources"
)

func statusEmbed(status player.PlayerStatus, text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       status.StringEmoji() + " " + string(status),
		Description: text,
		Color:       command.EmbedColor,
	}
}

func trackLink(t sources.Track) string {
	switch {
	case t.Title != "" && t.URI != "":
		return fmt.Sprintf("[%s](%s)", t.Title, t.URI)
	case t.Title != "":
		return t.Title
	case t.URI != "":
		return t.URI
	}
	return "Unknown track"
}

func nowPlayingEmbed(t sources.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       player.StatusPlaying.StringEmoji() + " Now Playing",
		Description: "🎶 " + trackLink(t),
		Color:       command.EmbedColor,
	}
	if t.Author != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Artist", Value: t.Author, Inline: true})
	}
	if t.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Length", Value: t.Length(), Inline: true})
	}
	return embed
}

func addedEmbed(playlist bool, name string, added []sources.Track) *discordgo.MessageEmbed {
	embed := statusEmbed(player.StatusAdded, "")
	switch {
	case len(added) == 0:
		embed.Description = "No track was selected."
	case playlist && name != "":
		embed.Description = fmt.Sprintf("Added %d tracks from **%s** to the queue.", len(added), name)
	case playlist:
		embed.Description = fmt.Sprintf("Added %d tracks to the queue.", len(added))
	default:
		embed.Description = fmt.Sprintf("Added %s to the queue.", trackLink(added[0]))
	}
	return embed
}
