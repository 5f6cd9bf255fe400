package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/storage"
)

type fakeCommand struct {
	name  string
	err   error
	calls int
}

func (c *fakeCommand) Name() string        { return c.name }
func (c *fakeCommand) Description() string { return "fake" }
func (c *fakeCommand) Group() string       { return "test" }
func (c *fakeCommand) Category() string    { return "🧪 Test" }

func (c *fakeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.name, Description: c.Description()}
}

func (c *fakeCommand) Run(ctx context.Context, sc *SlashInteractionContext) error {
	c.calls++
	return c.err
}

type fakeHistory struct {
	mu      sync.Mutex
	records map[string][]storage.CommandHistoryRecord
}

func (h *fakeHistory) AppendCommandToHistory(guildID string, rec storage.CommandHistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.records == nil {
		h.records = make(map[string][]storage.CommandHistoryRecord)
	}
	h.records[guildID] = append(h.records[guildID], rec)
	return nil
}

func slash(guildID, userID string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *SlashInteractionContext {
	in := &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "text",
		Data:      discordgo.ApplicationCommandInteractionData{Name: "music", Options: opts},
	}
	user := &discordgo.User{ID: userID, Username: "name-" + userID}
	if guildID != "" {
		in.Member = &discordgo.Member{User: user}
	} else {
		in.User = user
	}
	return &SlashInteractionContext{Event: &discordgo.InteractionCreate{Interaction: in}}
}

func sub(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts}
}

func TestInvocation(t *testing.T) {
	tests := []struct {
		name string
		opts []*discordgo.ApplicationCommandInteractionDataOption
		want string
	}{
		{"bare", nil, ""},
		{"subcommand", []*discordgo.ApplicationCommandInteractionDataOption{sub("pause")}, "pause"},
		{"string option", []*discordgo.ApplicationCommandInteractionDataOption{
			sub("play", &discordgo.ApplicationCommandInteractionDataOption{Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "lofi beats"}),
		}, "play query=lofi beats"},
		{"numbers", []*discordgo.ApplicationCommandInteractionDataOption{
			sub("adveq",
				&discordgo.ApplicationCommandInteractionDataOption{Name: "band", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
				&discordgo.ApplicationCommandInteractionDataOption{Name: "gain", Type: discordgo.ApplicationCommandOptionNumber, Value: -2.5},
			),
		}, "adveq band=3 gain=-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slash("g", "u", tt.opts...).Invocation(); got != tt.want {
				t.Errorf("Invocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser(t *testing.T) {
	if id := slash("g", "member").User().ID; id != "member" {
		t.Errorf("guild user = %q", id)
	}
	if id := slash("", "dm-user").User().ID; id != "dm-user" {
		t.Errorf("dm user = %q", id)
	}
}

func TestWithGuildOnly(t *testing.T) {
	cmd := &fakeCommand{name: "music"}
	wrapped := ApplyMiddlewares(cmd, WithGuildOnly())

	if err := wrapped.Run(context.Background(), slash("", "u")); !errors.Is(err, ErrGuildOnly) {
		t.Fatalf("DM error = %v, want ErrGuildOnly", err)
	}
	if cmd.calls != 0 {
		t.Fatal("command ran in a DM")
	}
	if err := wrapped.Run(context.Background(), slash("g", "u")); err != nil {
		t.Fatal(err)
	}
	if cmd.calls != 1 {
		t.Errorf("calls = %d, want 1", cmd.calls)
	}
}

func TestWithRateLimit(t *testing.T) {
	cmd := &fakeCommand{name: "music"}
	wrapped := ApplyMiddlewares(cmd, WithRateLimit(time.Hour, 2))
	ctx := context.Background()

	for i := range 2 {
		if err := wrapped.Run(ctx, slash("g", "alice")); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := wrapped.Run(ctx, slash("g", "alice")); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third call error = %v, want ErrRateLimited", err)
	}
	if err := wrapped.Run(ctx, slash("g", "bob")); err != nil {
		t.Errorf("other user limited: %v", err)
	}
	if cmd.calls != 3 {
		t.Errorf("calls = %d, want 3", cmd.calls)
	}
}

func TestWithCommandLogger(t *testing.T) {
	boom := errors.New("boom")
	cmd := &fakeCommand{name: "music", err: boom}
	history := &fakeHistory{}
	wrapped := ApplyMiddlewares(cmd, WithCommandLogger(history))

	err := wrapped.Run(context.Background(), slash("g", "alice", sub("stop")))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the command's own error", err)
	}

	recs := history.records["g"]
	if len(recs) != 1 {
		t.Fatalf("recorded %d entries", len(recs))
	}
	rec := recs[0]
	if rec.UserID != "alice" || rec.Username != "name-alice" || rec.Command != "music" || rec.Param != "stop" || rec.ChannelID != "text" {
		t.Errorf("record = %+v", rec)
	}

	// DMs are logged but not recorded.
	_ = ApplyMiddlewares(cmd, WithCommandLogger(history)).Run(context.Background(), slash("", "alice"))
	if len(history.records) != 1 {
		t.Errorf("DM was recorded: %v", history.records)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCommand{name: "music"}, WithGuildOnly())
	r.Register(&fakeCommand{name: "about"})

	cmd, ok := r.Get("music")
	if !ok {
		t.Fatal("music not registered")
	}
	if err := cmd.Run(context.Background(), slash("", "u")); !errors.Is(err, ErrGuildOnly) {
		t.Errorf("middleware not applied: %v", err)
	}
	if sp, ok := cmd.(SlashProvider); !ok || sp.SlashDefinition().Name != "music" {
		t.Error("wrapped command lost its slash definition")
	}

	all := r.All()
	if len(all) != 2 || all[0].Name() != "about" || all[1].Name() != "music" {
		t.Errorf("All() = %v", all)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get found an unregistered command")
	}
}
