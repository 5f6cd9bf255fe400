package player

import (
	"errors"
	"fmt"

	"github.com/keshon/rainymusic/internal/music/queue"
)

var (
	ErrQueueEmpty        = queue.ErrQueueEmpty
	ErrInvalidRepeatMode = queue.ErrInvalidRepeatMode

	ErrNoTracksFound    = errors.New("no tracks found")
	ErrAlreadyConnected = errors.New("already connected to a voice channel")
	ErrNoVoiceChannel   = errors.New("no voice channel to connect to")
	ErrNotConnected     = errors.New("not connected to a voice channel")
	ErrAlreadyPaused    = errors.New("playback is already paused")
	ErrNotPaused        = errors.New("playback is not paused")
	ErrNoTrackPlaying   = errors.New("no track is currently playing")
	ErrNoMoreTracks     = errors.New("no more tracks in the queue")
	ErrNoPreviousTracks = errors.New("no previous tracks in the queue")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInvalidTimeSpec  = errors.New("invalid time")
	ErrSessionClosed    = errors.New("session was torn down")

	ErrVolumeOutOfRange = errors.New("volume out of range")
	ErrVolumeTooLow     = fmt.Errorf("%w: below %d", ErrVolumeOutOfRange, MinVolume)
	ErrVolumeTooHigh    = fmt.Errorf("%w: above %d", ErrVolumeOutOfRange, MaxVolume)

	ErrAtVolumeLimit = errors.New("volume is at its limit")
	ErrMinVolume     = fmt.Errorf("%w: already at %d", ErrAtVolumeLimit, MinVolume)
	ErrMaxVolume     = fmt.Errorf("%w: already at %d", ErrAtVolumeLimit, MaxVolume)

	ErrUnknownEqBand     = errors.New("unknown equalizer band")
	ErrEqGainOutOfBounds = errors.New("equalizer gain out of bounds")
	ErrUnknownEqPreset   = errors.New("unknown equalizer preset")
)
