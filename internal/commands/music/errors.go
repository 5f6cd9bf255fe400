package music

import (
	"errors"

	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/music/player"
	"github.com/keshon/rainymusic/internal/music/source_resolver"
	"github.com/keshon/rainymusic/internal/music/vote"
)

// userMessages is checked in order; wrapped errors must precede their parents.
var userMessages = []struct {
	err error
	msg string
}{
	{player.ErrAlreadyConnected, "Already connected to a voice channel."},
	{player.ErrNoVoiceChannel, "No suitable voice channel was provided. Join one or pass it explicitly."},
	{player.ErrNotConnected, "Not connected to a voice channel."},
	{player.ErrSessionClosed, "The player just disconnected, try again."},
	{player.ErrQueueEmpty, "There are no tracks to play as the queue is empty."},
	{player.ErrNoTracksFound, "No tracks could be found."},
	{player.ErrAlreadyPaused, "Already paused."},
	{player.ErrNotPaused, "Playback is not paused."},
	{player.ErrNoTrackPlaying, "There is no track currently playing."},
	{player.ErrNoMoreTracks, "There are no more tracks in the queue."},
	{player.ErrNoPreviousTracks, "There are no previous tracks in the queue."},
	{player.ErrIndexOutOfRange, "That index is out of range."},
	{player.ErrInvalidTimeSpec, "Invalid time entered. Use m:ss, XmYs, Xm or Xs."},
	{player.ErrInvalidRepeatMode, "Invalid repeat mode. Use none, 1 or all."},
	{player.ErrVolumeTooLow, "The volume must be 0% or above."},
	{player.ErrVolumeTooHigh, "The volume must be 150% or below."},
	{player.ErrMinVolume, "The player is already at minimum volume."},
	{player.ErrMaxVolume, "The player is already at max volume."},
	{player.ErrUnknownEqPreset, "Unknown equalizer preset. Use flat, boost, metal or piano."},
	{player.ErrUnknownEqBand, "That is not a valid band. Use 1-15 or one of the center frequencies in Hz."},
	{player.ErrEqGainOutOfBounds, "The gain for any band must be between -10 and 10 dB."},
	{source_resolver.ErrEmptyQuery, "Give me something to search for."},
	{lavalink.ErrNoAvailableNode, "The audio server is unavailable right now, try again shortly."},
	{lavalink.ErrLoadFailed, "That track could not be loaded."},
	{vote.ErrNoCandidates, "No tracks could be found."},
}

func errorMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong: " + err.Error()
}
