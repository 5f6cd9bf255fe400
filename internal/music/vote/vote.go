package vote

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	DefaultTimeout = 60 * time.Second
	MaxCandidates  = 5
)

// Options are the selection signals, one per candidate slot.
var Options = [MaxCandidates]string{"1\ufe0f\u20e3", "2\ufe0f\u20e3", "3\ufe0f\u20e3", "4\ufe0f\u20e3", "5\ufe0f\u20e3"}

var ErrNoCandidates = errors.New("no candidates to vote on")

// Prompter shows a vote to users and removes it again.
type Prompter interface {
	Show(ctx context.Context, v *Vote) (promptID string, err error)
	Retract(ctx context.Context, promptID string) error
}

type Vote struct {
	ID         string
	Requester  string
	Candidates []sources.Track
	Deadline   time.Time

	once   sync.Once
	chosen chan int
}

// Options returns the signal for each candidate, in order.
func (v *Vote) Options() []string {
	return Options[:len(v.Candidates)]
}

func (v *Vote) choose(index int) bool {
	accepted := false
	v.once.Do(func() {
		v.chosen <- index
		accepted = true
	})
	return accepted
}

// Board keeps the votes that are waiting for a signal, keyed by prompt.
type Board struct {
	mu      sync.Mutex
	pending map[string]*Vote
	timeout time.Duration
}

// NewBoard returns a board whose votes last timeout, capped at
// DefaultTimeout.
func NewBoard(timeout time.Duration) *Board {
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}
	return &Board{
		pending: make(map[string]*Vote),
		timeout: timeout,
	}
}

// Run shows the first candidates and waits for the requester's pick. It
// returns false when the window closes without one. The prompt is retracted
// either way.
func (b *Board) Run(ctx context.Context, prompter Prompter, requester string, candidates []sources.Track) (sources.Track, bool, error) {
	if len(candidates) == 0 {
		return sources.Track{}, false, ErrNoCandidates
	}

	v := &Vote{
		ID:         uuid.New().String(),
		Requester:  requester,
		Candidates: lo.Subset(candidates, 0, MaxCandidates),
		Deadline:   time.Now().Add(b.timeout),
		chosen:     make(chan int, 1),
	}

	ctx, cancel := context.WithDeadline(ctx, v.Deadline)
	defer cancel()

	promptID, err := prompter.Show(ctx, v)
	if err != nil {
		return sources.Track{}, false, err
	}

	b.mu.Lock()
	b.pending[promptID] = v
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, promptID)
		b.mu.Unlock()

		if err := prompter.Retract(context.WithoutCancel(ctx), promptID); err != nil {
			log.Warn().Err(err).Str("vote", v.ID).Msg("failed to retract prompt")
		}
	}()

	select {
	case i := <-v.chosen:
		log.Debug().Str("vote", v.ID).Int("choice", i).Msg("vote decided")
		return v.Candidates[i], true, nil
	case <-ctx.Done():
		log.Debug().Str("vote", v.ID).Err(ctx.Err()).Msg("vote closed without a choice")
		return sources.Track{}, false, nil
	}
}

// Signal records a reaction on a prompt. It reports whether the reaction
// decided a vote.
func (b *Board) Signal(promptID, userID, option string) bool {
	b.mu.Lock()
	v, ok := b.pending[promptID]
	b.mu.Unlock()
	if !ok || userID != v.Requester {
		return false
	}

	i := slices.IndexFunc(v.Options(), func(o string) bool {
		return normalize(o) == normalize(option)
	})
	if i < 0 {
		return false
	}
	return v.choose(i)
}

func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Chooser binds the board to one prompter and requester.
func (b *Board) Chooser(prompter Prompter, requester string) func(context.Context, []sources.Track) (sources.Track, bool, error) {
	return func(ctx context.Context, candidates []sources.Track) (sources.Track, bool, error) {
		return b.Run(ctx, prompter, requester, candidates)
	}
}

// Clients send keycaps with or without the variation selector.
func normalize(emoji string) string {
	return strings.ReplaceAll(emoji, "\ufe0f", "")
}
