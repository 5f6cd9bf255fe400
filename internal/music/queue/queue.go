package queue

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/keshon/rainymusic/internal/music/sources"
)

var (
	ErrQueueEmpty        = errors.New("queue is empty")
	ErrInvalidRepeatMode = errors.New("invalid repeat mode")
)

type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "1"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

func ParseRepeatMode(token string) (RepeatMode, error) {
	switch token {
	case "none":
		return RepeatNone, nil
	case "1":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	}
	return RepeatNone, ErrInvalidRepeatMode
}

// Queue is an ordered list of tracks with a cursor. Tracks before the cursor
// are history, tracks after it are upcoming. The cursor may sit outside the
// list, in which case there is no current track.
type Queue struct {
	mu       sync.Mutex
	tracks   []sources.Track
	position int
	repeat   RepeatMode

	intn func(n int) int
}

func New() *Queue {
	return &Queue{intn: rand.IntN}
}

// NewWithRand is New with a custom source for Shuffle.
func NewWithRand(intn func(n int) int) *Queue {
	return &Queue{intn: intn}
}

func (q *Queue) Add(tracks ...sources.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, tracks...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue) Position() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.position
}

// SetPosition moves the cursor without any bounds check.
func (q *Queue) SetPosition(pos int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.position = pos
}

func (q *Queue) Repeat() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

func (q *Queue) SetRepeatMode(token string) error {
	mode, err := ParseRepeatMode(token)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.repeat = mode
	q.mu.Unlock()
	return nil
}

func (q *Queue) Tracks() []sources.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]sources.Track(nil), q.tracks...)
}

func (q *Queue) Current() (sources.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current()
}

func (q *Queue) current() (sources.Track, bool) {
	if q.position < 0 || q.position >= len(q.tracks) {
		return sources.Track{}, false
	}
	return q.tracks[q.position], true
}

func (q *Queue) Upcoming() ([]sources.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil, ErrQueueEmpty
	}
	start := min(max(q.position+1, 0), len(q.tracks))
	return append([]sources.Track{}, q.tracks[start:]...), nil
}

func (q *Queue) History() ([]sources.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil, ErrQueueEmpty
	}
	end := min(max(q.position, 0), len(q.tracks))
	return append([]sources.Track{}, q.tracks[:end]...), nil
}

// Advance moves the cursor forward and returns the track to play next.
// Without RepeatAll the cursor stops one past the last track, so tracks
// added later become current.
func (q *Queue) Advance() (sources.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return sources.Track{}, false
	}

	q.position++
	if q.position < 0 {
		return sources.Track{}, false
	}
	if q.position > len(q.tracks)-1 {
		if q.repeat == RepeatAll {
			q.position = 0
			return q.tracks[0], true
		}
		q.position = len(q.tracks)
		return sources.Track{}, false
	}
	return q.tracks[q.position], true
}

func (q *Queue) RepeatCurrent() (sources.Track, bool) {
	return q.Current()
}

// Shuffle permutes the upcoming tracks in place; history and the current
// track keep their slots.
func (q *Queue) Shuffle() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return ErrQueueEmpty
	}

	upcoming := q.tracks[min(max(q.position+1, 0), len(q.tracks)):]
	for i := len(upcoming) - 1; i > 0; i-- {
		j := q.intn(i + 1)
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	}
	return nil
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.position = 0
}
