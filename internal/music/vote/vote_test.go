package vote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keshon/rainymusic/internal/music/sources"
)

type fakePrompter struct {
	mu        sync.Mutex
	shown     chan *Vote
	retracted []string
	showErr   error
}

func newFakePrompter() *fakePrompter {
	return &fakePrompter{shown: make(chan *Vote, 1)}
}

func (f *fakePrompter) Show(_ context.Context, v *Vote) (string, error) {
	if f.showErr != nil {
		return "", f.showErr
	}
	f.shown <- v
	return "prompt-" + v.ID, nil
}

func (f *fakePrompter) Retract(_ context.Context, promptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retracted = append(f.retracted, promptID)
	return nil
}

func (f *fakePrompter) retractedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.retracted)
}

func candidates(n int) []sources.Track {
	out := make([]sources.Track, n)
	for i := range out {
		out[i] = sources.Track{Title: string(rune('a' + i))}
	}
	return out
}

// waitPending blocks until n votes accept signals.
func waitPending(t *testing.T, b *Board, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for b.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d votes pending", b.Pending(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

type outcome struct {
	track sources.Track
	ok    bool
	err   error
}

func start(b *Board, p Prompter, requester string, n int) <-chan outcome {
	done := make(chan outcome, 1)
	go func() {
		track, ok, err := b.Run(context.Background(), p, requester, candidates(n))
		done <- outcome{track, ok, err}
	}()
	return done
}

func TestRunTimesOutWithoutSelection(t *testing.T) {
	b := NewBoard(20 * time.Millisecond)
	p := newFakePrompter()

	done := start(b, p, "alice", 5)
	<-p.shown

	select {
	case res := <-done:
		if res.err != nil || res.ok {
			t.Fatalf("Run() = (%q, %v, %v), want no selection", res.track.Title, res.ok, res.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("vote did not time out")
	}

	if p.retractedCount() != 1 {
		t.Errorf("prompt retracted %d times, want 1", p.retractedCount())
	}
	if b.Pending() != 0 {
		t.Errorf("%d votes still pending", b.Pending())
	}
}

func TestSignals(t *testing.T) {
	tests := []struct {
		name       string
		candidates int
		user       string
		option     string
		wantAccept bool
		wantTitle  string
	}{
		{"requester picks third", 5, "alice", Options[2], true, "c"},
		{"keycap without selector", 5, "alice", "2\u20e3", true, "b"},
		{"other user ignored", 5, "bob", Options[0], false, ""},
		{"slot beyond candidates", 2, "alice", Options[3], false, ""},
		{"unrelated emoji", 5, "alice", "👍", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard(200 * time.Millisecond)
			p := newFakePrompter()

			done := start(b, p, "alice", tt.candidates)
			v := <-p.shown
			waitPending(t, b, 1)

			if got := b.Signal("prompt-"+v.ID, tt.user, tt.option); got != tt.wantAccept {
				t.Fatalf("Signal() = %v, want %v", got, tt.wantAccept)
			}

			res := <-done
			if res.ok != tt.wantAccept || res.track.Title != tt.wantTitle {
				t.Errorf("Run() = (%q, %v), want (%q, %v)", res.track.Title, res.ok, tt.wantTitle, tt.wantAccept)
			}
			if p.retractedCount() != 1 {
				t.Errorf("prompt retracted %d times, want 1", p.retractedCount())
			}
		})
	}
}

func TestFirstSignalWins(t *testing.T) {
	b := NewBoard(time.Second)
	p := newFakePrompter()

	done := start(b, p, "alice", 5)
	v := <-p.shown
	waitPending(t, b, 1)
	id := "prompt-" + v.ID

	if !b.Signal(id, "alice", Options[1]) {
		t.Fatal("first signal rejected")
	}
	if b.Signal(id, "alice", Options[4]) {
		t.Error("second signal accepted")
	}

	if res := <-done; res.track.Title != "b" {
		t.Errorf("chose %q, want b", res.track.Title)
	}
}

func TestVotesAreIndependent(t *testing.T) {
	b := NewBoard(time.Second)
	p1, p2 := newFakePrompter(), newFakePrompter()

	done1 := start(b, p1, "alice", 3)
	done2 := start(b, p2, "bob", 3)
	v1, v2 := <-p1.shown, <-p2.shown
	waitPending(t, b, 2)

	if !b.Signal("prompt-"+v2.ID, "bob", Options[2]) {
		t.Fatal("bob's signal rejected")
	}
	if res := <-done2; res.track.Title != "c" {
		t.Errorf("bob chose %q, want c", res.track.Title)
	}

	if !b.Signal("prompt-"+v1.ID, "alice", Options[0]) {
		t.Fatal("alice's signal rejected")
	}
	if res := <-done1; res.track.Title != "a" {
		t.Errorf("alice chose %q, want a", res.track.Title)
	}
}

func TestRunErrors(t *testing.T) {
	b := NewBoard(time.Second)

	if _, _, err := b.Run(context.Background(), newFakePrompter(), "alice", nil); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("error = %v, want ErrNoCandidates", err)
	}

	boom := errors.New("cannot send")
	p := &fakePrompter{showErr: boom}
	if _, _, err := b.Run(context.Background(), p, "alice", candidates(2)); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestRunCapsCandidates(t *testing.T) {
	b := NewBoard(10 * time.Millisecond)
	p := newFakePrompter()

	done := start(b, p, "alice", 8)
	v := <-p.shown
	<-done

	if len(v.Candidates) != MaxCandidates || len(v.Options()) != MaxCandidates {
		t.Errorf("vote has %d candidates and %d options, want %d", len(v.Candidates), len(v.Options()), MaxCandidates)
	}
}

func TestNewBoardTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero uses default", 0, DefaultTimeout},
		{"negative uses default", -time.Second, DefaultTimeout},
		{"shorter kept", 15 * time.Second, 15 * time.Second},
		{"exactly the ceiling", DefaultTimeout, DefaultTimeout},
		{"longer capped", 5 * time.Minute, DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewBoard(tt.in).timeout; got != tt.want {
				t.Errorf("NewBoard(%v).timeout = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
