// Package audio is the contract between a guild player and whatever renders
// its audio.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/keshon/rainymusic/internal/music/sources"
)

// ErrNotFound is returned when the backend holds no connection for the guild.
var ErrNotFound = errors.New("audio connection not found")

const BandCount = 15

// Band is one equalizer band, 0-based, with its gain in decibels.
type Band struct {
	Band   int
	GainDB float64
}

type Backend interface {
	Connect(ctx context.Context, channelID string) error
	Play(ctx context.Context, track sources.Track) error
	Pause(ctx context.Context, paused bool) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, volume int) error
	SetEqualizer(ctx context.Context, bands []Band) error
	Disconnect(ctx context.Context) error
	Position() time.Duration
}

type EventKind int

const (
	EventTrackEnded EventKind = iota
	EventTrackStuck
	EventTrackException
	EventNodeReady
)

func (k EventKind) String() string {
	switch k {
	case EventTrackEnded:
		return "ended"
	case EventTrackStuck:
		return "stuck"
	case EventTrackException:
		return "exception"
	case EventNodeReady:
		return "node_ready"
	}
	return "unknown"
}

// Terminal reports whether the event means the current track stopped playing.
func (k EventKind) Terminal() bool {
	return k == EventTrackEnded || k == EventTrackStuck || k == EventTrackException
}

type Event struct {
	Kind    EventKind
	GuildID string
	NodeID  string
	// TrackRef is the encoded track the event refers to, if any.
	TrackRef string
	Reason   string
}

type EventHandler func(Event)
