package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/keshon/rainymusic/internal/music/vote"
	"github.com/samber/lo"
)

// reactionPrompter shows a vote as an embed in a text channel and collects
// the answer as a reaction.
type reactionPrompter struct {
	dg        *discordgo.Session
	channelID string
}

func (b *Bot) prompter(channelID string) vote.Prompter {
	return &reactionPrompter{dg: b.dg, channelID: channelID}
}

func (p *reactionPrompter) Show(ctx context.Context, v *vote.Vote) (string, error) {
	msg, err := p.dg.ChannelMessageSendEmbed(p.channelID, voteEmbed(v), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}

	for _, option := range v.Options() {
		if err := p.dg.MessageReactionAdd(p.channelID, msg.ID, option, discordgo.WithContext(ctx)); err != nil {
			_ = p.Retract(context.WithoutCancel(ctx), msg.ID)
			return "", fmt.Errorf("add reaction: %w", err)
		}
	}
	return msg.ID, nil
}

func (p *reactionPrompter) Retract(ctx context.Context, promptID string) error {
	return p.dg.ChannelMessageDelete(p.channelID, promptID, discordgo.WithContext(ctx))
}

func voteEmbed(v *vote.Vote) *discordgo.MessageEmbed {
	options := v.Options()
	lines := lo.Map(v.Candidates, func(t sources.Track, i int) string {
		return fmt.Sprintf("%s **%s** (%s)", options[i], t.Title, t.Length())
	})

	return &discordgo.MessageEmbed{
		Title:       "Choose a song",
		Description: strings.Join(lines, "\n"),
		Color:       command.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "React with the number of your pick"},
		Timestamp:   v.Deadline.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: "<@" + v.Requester + ">", Inline: true},
		},
	}
}
