package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/keshon/rainymusic/internal/commands/music"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/keshon/rainymusic/internal/music/vote"
)

func TestHumansIn(t *testing.T) {
	bots := map[string]bool{"other-bot": true}
	isBot := func(vs *discordgo.VoiceState) bool { return bots[vs.UserID] }

	tests := []struct {
		name   string
		states []*discordgo.VoiceState
		want   int
	}{
		{"empty", nil, 0},
		{"only us", []*discordgo.VoiceState{{UserID: "self", ChannelID: "vc"}}, 0},
		{"us and a bot", []*discordgo.VoiceState{{UserID: "self", ChannelID: "vc"}, {UserID: "other-bot", ChannelID: "vc"}}, 0},
		{"listener elsewhere", []*discordgo.VoiceState{{UserID: "self", ChannelID: "vc"}, {UserID: "alice", ChannelID: "afk"}}, 0},
		{"two listeners", []*discordgo.VoiceState{{UserID: "alice", ChannelID: "vc"}, {UserID: "bob", ChannelID: "vc"}, {UserID: "self", ChannelID: "vc"}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := humansIn(tt.states, "vc", "self", isBot); got != tt.want {
				t.Errorf("humansIn() = %d, want %d", got, tt.want)
			}
		})
	}
}

type fakeCommand struct{ name string }

func (c fakeCommand) Name() string        { return c.name }
func (c fakeCommand) Description() string { return "no slash definition" }
func (c fakeCommand) Group() string       { return "" }
func (c fakeCommand) Category() string    { return "" }
func (c fakeCommand) Run(context.Context, *command.SlashInteractionContext) error {
	return nil
}

func TestCommandDefinitionsAndHashes(t *testing.T) {
	registry := command.NewRegistry()
	registry.Register(&music.MusicCommand{}, command.WithGuildOnly())
	registry.Register(fakeCommand{name: "internal"})

	defs := definitions(registry)
	if len(defs) != 1 || defs[0].Name != "music" || defs[0].Type != discordgo.ChatApplicationCommand {
		t.Fatalf("definitions = %+v", defs)
	}

	changed, hashes := changedCommands(defs, nil)
	if !changed || hashes["music"] == "" {
		t.Fatalf("first sync: changed=%v hashes=%v", changed, hashes)
	}

	again, _ := changedCommands(definitions(registry), hashes)
	if again {
		t.Error("identical definitions reported as changed")
	}

	edited := definitions(registry)
	edited[0].Options = edited[0].Options[1:]
	if changed, _ := changedCommands(edited, hashes); !changed {
		t.Error("removing a subcommand went unnoticed")
	}
}

func TestHashIgnoresOptionOrder(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "x", Options: []*discordgo.ApplicationCommandOption{{Name: "a"}, {Name: "b"}}}
	b := &discordgo.ApplicationCommand{Name: "x", Options: []*discordgo.ApplicationCommandOption{{Name: "b"}, {Name: "a"}}}
	if hashCommand(a) != hashCommand(b) {
		t.Error("option order changed the hash")
	}
	b.Options[0].Description = "new"
	if hashCommand(a) == hashCommand(b) {
		t.Error("description change kept the hash")
	}
}

func TestVoteEmbed(t *testing.T) {
	v := &vote.Vote{
		Requester: "alice",
		Deadline:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Candidates: []sources.Track{
			{Title: "One", Duration: 61 * time.Second},
			{Title: "Two", Duration: 5 * time.Minute},
		},
	}

	embed := voteEmbed(v)
	lines := strings.Split(embed.Description, "\n")
	if len(lines) != 2 {
		t.Fatalf("description = %q", embed.Description)
	}
	if lines[0] != vote.Options[0]+" **One** (1:01)" || lines[1] != vote.Options[1]+" **Two** (5:00)" {
		t.Errorf("lines = %q", lines)
	}
	if embed.Timestamp != "2026-01-02T03:04:05Z" || embed.Fields[0].Value != "<@alice>" {
		t.Errorf("embed = %+v", embed)
	}
}
