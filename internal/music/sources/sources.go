package sources

import (
	"fmt"
	"time"
)

const (
	SourceYouTube    = "youtube"
	SourceSoundCloud = "soundcloud"
	SourceHTTP       = "http"
)

// Track is a resolved, playable track. SourceRef is the backend's opaque
// encoded form and is passed back verbatim on play.
type Track struct {
	Title      string
	Author     string
	Duration   time.Duration
	URI        string
	SourceName string
	SourceRef  string
}

// Length formats the duration as m:ss.
func (t Track) Length() string {
	return FormatDuration(t.Duration)
}

func (t Track) String() string {
	if t.Author == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Author, t.Title)
}

// Result is what a lookup returns. Playlist marks the tracks as one batch
// that is queued as a whole.
type Result struct {
	Tracks       []Track
	Playlist     bool
	PlaylistName string
}

func (r Result) Empty() bool {
	return len(r.Tracks) == 0
}

func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
