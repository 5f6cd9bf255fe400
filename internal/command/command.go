package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrGuildOnly   = errors.New("this command only works in a server")
	ErrRateLimited = errors.New("slow down, you are sending commands too fast")
)

type Command interface {
	Name() string
	Description() string
	Group() string
	Category() string
	Run(ctx context.Context, sc *SlashInteractionContext) error
}

// SlashProvider - how this command should be registered with Discord
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// SlashInteractionContext is what the runtime hands a command when a slash
// command comes in.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
}

func (sc *SlashInteractionContext) GuildID() string   { return sc.Event.GuildID }
func (sc *SlashInteractionContext) ChannelID() string { return sc.Event.ChannelID }

// User returns the invoking user, whether the command came from a guild or
// a DM.
func (sc *SlashInteractionContext) User() *discordgo.User {
	if sc.Event.Member != nil && sc.Event.Member.User != nil {
		return sc.Event.Member.User
	}
	if sc.Event.User != nil {
		return sc.Event.User
	}
	return &discordgo.User{}
}

// Invocation renders the subcommand path and its options, e.g.
// "play query=lofi".
func (sc *SlashInteractionContext) Invocation() string {
	if sc.Event.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	return renderOptions(sc.Event.ApplicationCommandData().Options)
}

func renderOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	var parts []string
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			parts = append(parts, strings.TrimSpace(o.Name+" "+renderOptions(o.Options)))
		default:
			parts = append(parts, o.Name+"="+optionValue(o))
		}
	}
	return strings.Join(parts, " ")
}

func optionValue(o *discordgo.ApplicationCommandInteractionDataOption) string {
	return fmt.Sprint(o.Value)
}
