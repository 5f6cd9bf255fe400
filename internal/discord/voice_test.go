package discord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/sources"
)

type fakeBackend struct {
	mu          sync.Mutex
	disconnects int
}

func (f *fakeBackend) Connect(context.Context, string) error { return nil }
func (f *fakeBackend) Play(context.Context, sources.Track) error { return nil }
func (f *fakeBackend) Pause(context.Context, bool) error { return nil }
func (f *fakeBackend) Stop(context.Context) error { return nil }
func (f *fakeBackend) Seek(context.Context, time.Duration) error { return nil }
func (f *fakeBackend) SetVolume(context.Context, int) error { return nil }
func (f *fakeBackend) SetEqualizer(context.Context, []audio.Band) error { return nil }
func (f *fakeBackend) Position() time.Duration { return 0 }

func (f *fakeBackend) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func member(userID, channelID string, bot bool) *discordgo.VoiceState {
	return &discordgo.VoiceState{
		GuildID:   "g",
		UserID:    userID,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Bot: bot}},
	}
}

func TestVoiceStateTeardown(t *testing.T) {
	self := member("self", "vc", true)

	tests := []struct {
		name         string
		after        []*discordgo.VoiceState // guild voice states once the update applied
		update       *discordgo.VoiceState
		before       *discordgo.VoiceState
		noPlayer     bool
		wantTeardown bool
	}{
		{
			name:         "last listener leaves",
			after:        []*discordgo.VoiceState{self},
			update:       member("alice", "", false),
			before:       member("alice", "vc", false),
			wantTeardown: true,
		},
		{
			name:         "last listener moves elsewhere",
			after:        []*discordgo.VoiceState{self, member("alice", "afk", false)},
			update:       member("alice", "afk", false),
			before:       member("alice", "vc", false),
			wantTeardown: true,
		},
		{
			name:         "only another bot remains",
			after:        []*discordgo.VoiceState{self, member("other-bot", "vc", true)},
			update:       member("alice", "", false),
			before:       member("alice", "vc", false),
			wantTeardown: true,
		},
		{
			name:   "a listener remains",
			after:  []*discordgo.VoiceState{self, member("bob", "vc", false)},
			update: member("alice", "", false),
			before: member("alice", "vc", false),
		},
		{
			name:   "someone leaves a different channel",
			after:  []*discordgo.VoiceState{self},
			update: member("alice", "", false),
			before: member("alice", "lobby", false),
		},
		{
			name:   "state change inside the channel",
			after:  []*discordgo.VoiceState{self},
			update: member("alice", "vc", false),
			before: member("alice", "vc", false),
		},
		{
			name:   "someone joins",
			after:  []*discordgo.VoiceState{self, member("alice", "vc", false)},
			update: member("alice", "vc", false),
		},
		{
			name:         "bot kicked from voice",
			after:        []*discordgo.VoiceState{member("alice", "vc", false)},
			update:       member("self", "", true),
			before:       self,
			wantTeardown: true,
		},
		{
			name:   "bot moved to another channel",
			after:  []*discordgo.VoiceState{member("self", "vc2", true), member("alice", "vc", false)},
			update: member("self", "vc2", true),
			before: self,
		},
		{
			name:     "guild without a player",
			after:    []*discordgo.VoiceState{self},
			update:   member("alice", "", false),
			before:   member("alice", "vc", false),
			noPlayer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			state := discordgo.NewState()
			state.User = &discordgo.User{ID: "self", Bot: true}
			if err := state.GuildAdd(&discordgo.Guild{ID: "g", VoiceStates: tt.after}); err != nil {
				t.Fatal(err)
			}
			s := &discordgo.Session{State: state}

			fb := &fakeBackend{}
			b := &Bot{
				players:  player.NewRegistry(func(string) audio.Backend { return fb }),
				lavalink: lavalink.New([]lavalink.NodeConfig{{Name: "test", Host: "127.0.0.1", Port: 1}}, nil),
			}

			var p *player.Player
			if !tt.noPlayer {
				p = b.players.Get("g")
				if _, err := p.Connect(ctx, "vc", ""); err != nil {
					t.Fatal(err)
				}
				tracks := sources.Result{Tracks: []sources.Track{{Title: "a", SourceRef: "a"}, {Title: "b", SourceRef: "b"}}, Playlist: true}
				if _, err := p.AddTracks(ctx, tracks, nil); err != nil {
					t.Fatal(err)
				}
			}

			b.onVoiceStateUpdate(ctx, s, &discordgo.VoiceStateUpdate{VoiceState: tt.update, BeforeUpdate: tt.before})

			if tt.noPlayer {
				if b.players.Len() != 0 {
					t.Errorf("a player was created for the guild")
				}
				return
			}

			_, live := b.players.Lookup("g")
			if torn := !live; torn != tt.wantTeardown {
				t.Fatalf("torn down = %v, want %v", torn, tt.wantTeardown)
			}
			if !tt.wantTeardown {
				if fb.disconnects != 0 || p.Queue().Len() != 2 {
					t.Errorf("player disturbed: disconnects=%d len=%d", fb.disconnects, p.Queue().Len())
				}
				return
			}

			if fb.disconnects != 1 || !p.Closed() {
				t.Errorf("disconnects=%d closed=%v", fb.disconnects, p.Closed())
			}
			if fresh := b.players.Get("g"); fresh == p || !fresh.Queue().IsEmpty() {
				t.Errorf("fresh player: same=%v len=%d", fresh == p, fresh.Queue().Len())
			}
		})
	}
}
