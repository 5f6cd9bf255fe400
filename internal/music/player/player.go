package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/internal/music/queue"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	MinVolume     = 0
	MaxVolume     = 150
	DefaultVolume = 100
	VolumeStep    = 10

	MaxCandidates = 5
)

type State int

const (
	StateDisconnected State = iota
	StateIdle
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "disconnected"
}

type PlayerStatus string

const (
	StatusPlaying PlayerStatus = "Playing"
	StatusAdded   PlayerStatus = "Track(s) Added"
	StatusStopped PlayerStatus = "Playback Stopped"
	StatusPaused  PlayerStatus = "Playback Paused"
	StatusResumed PlayerStatus = "Playback Resumed"
	StatusError   PlayerStatus = "Error"
)

func (status PlayerStatus) StringEmoji() string {
	m := map[PlayerStatus]string{
		StatusPlaying: "▶️",
		StatusAdded:   "🎶",
		StatusStopped: "⏹",
		StatusPaused:  "⏸",
		StatusResumed: "▶️",
		StatusError:   "❌",
	}
	return m[status]
}

// Chooser picks one of several candidates, or none.
type Chooser interface {
	Choose(ctx context.Context, candidates []sources.Track) (sources.Track, bool, error)
}

type ChooserFunc func(ctx context.Context, candidates []sources.Track) (sources.Track, bool, error)

func (f ChooserFunc) Choose(ctx context.Context, candidates []sources.Track) (sources.Track, bool, error) {
	return f(ctx, candidates)
}

// Player is the playback session of one guild. Every exported method is
// serialized on mu, which makes commands and backend events mutually
// exclusive per guild.
type Player struct {
	mu sync.Mutex

	guildID   string
	channelID string
	state     State
	closed    atomic.Bool

	backend audio.Backend
	queue   *queue.Queue
	volume  int
	eq      [audio.BandCount]float64

	log  zerolog.Logger
	done chan struct{}

	PlayerStatus chan PlayerStatus
}

func New(guildID string, backend audio.Backend) *Player {
	return &Player{
		guildID:      guildID,
		backend:      backend,
		queue:        queue.New(),
		volume:       DefaultVolume,
		log:          log.With().Str("component", "player").Str("guild", guildID).Logger(),
		done:         make(chan struct{}),
		PlayerStatus: make(chan PlayerStatus, 10),
	}
}

func (p *Player) GuildID() string { return p.guildID }

// Queue exposes the track list for read-only views.
func (p *Player) Queue() *queue.Queue { return p.queue }

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Connected() bool {
	return p.State() != StateDisconnected
}

func (p *Player) ChannelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channelID
}

func (p *Player) Closed() bool {
	return p.closed.Load()
}

// Done is closed once the player is torn down.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// EqLevels returns the normalized band levels.
func (p *Player) EqLevels() [audio.BandCount]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eq
}

// Connect joins requested, or inferred when requested is empty.
func (p *Player) Connect(ctx context.Context, requested, inferred string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return "", ErrSessionClosed
	}
	if p.state != StateDisconnected {
		return "", ErrAlreadyConnected
	}

	channelID := requested
	if channelID == "" {
		channelID = inferred
	}
	if channelID == "" {
		return "", ErrNoVoiceChannel
	}

	if err := p.backend.Connect(ctx, channelID); err != nil {
		return "", fmt.Errorf("connect to %s: %w", channelID, err)
	}

	p.channelID = channelID
	p.state = StateIdle
	p.log.Info().Str("channel", channelID).Msg("connected")
	return channelID, nil
}

// Teardown releases the backend connection. Calling it again, or on a
// connection the backend no longer knows, is not an error. The Player is
// closed even when the backend fails to let go; that error is returned.
func (p *Player) Teardown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil
	}

	err := p.backend.Disconnect(ctx)
	if errors.Is(err, audio.ErrNotFound) {
		err = nil
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("backend disconnect failed")
		err = fmt.Errorf("disconnect: %w", err)
	}

	p.queue.Clear()
	p.state = StateDisconnected
	p.channelID = ""
	p.closed.Store(true)
	close(p.done)
	p.emitStatus(StatusStopped)
	p.log.Info().Msg("torn down")
	return err
}

// AddTracks queues a lookup result and starts playback when idle. Several
// loose candidates go through chooser first; that wait does not hold the
// player lock.
func (p *Player) AddTracks(ctx context.Context, result sources.Result, chooser Chooser) ([]sources.Track, error) {
	if result.Empty() {
		return nil, ErrNoTracksFound
	}

	added := result.Tracks
	if !result.Playlist && len(result.Tracks) > 1 && chooser == nil {
		added = result.Tracks[:1]
	} else if !result.Playlist && len(result.Tracks) > 1 {
		candidates := lo.Subset(result.Tracks, 0, MaxCandidates)
		track, ok, err := chooser.Choose(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("choose track: %w", err)
		}
		if !ok {
			p.log.Debug().Int("candidates", len(candidates)).Msg("no track chosen")
			return nil, nil
		}
		added = []sources.Track{track}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil, ErrSessionClosed
	}

	p.queue.Add(added...)
	p.log.Info().Int("added", len(added)).Int("queue_len", p.queue.Len()).Msg("tracks queued")
	p.emitStatus(StatusAdded)

	if p.state == StateIdle {
		if track, ok := p.queue.Current(); ok {
			if err := p.play(ctx, track); err != nil {
				return added, err
			}
		}
	}
	return added, nil
}

// OnPlaybackTerminated reacts to the backend reporting that the current
// track ended, got stuck or failed.
func (p *Player) OnPlaybackTerminated(ctx context.Context, ev audio.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		p.log.Debug().Stringer("kind", ev.Kind).Stringer("state", p.state).Msg("ignoring termination")
		return
	}
	if cur, ok := p.queue.Current(); ok && ev.TrackRef != "" && ev.TrackRef != cur.SourceRef {
		p.log.Debug().Stringer("kind", ev.Kind).Msg("ignoring termination of a stale track")
		return
	}

	if ev.Kind != audio.EventTrackEnded {
		p.log.Warn().Stringer("kind", ev.Kind).Str("reason", ev.Reason).Msg("track terminated abnormally")
	}

	var (
		next sources.Track
		ok   bool
	)
	if p.queue.Repeat() == queue.RepeatOne {
		next, ok = p.queue.RepeatCurrent()
	} else {
		next, ok = p.queue.Advance()
	}

	if !ok {
		p.state = StateIdle
		p.emitStatus(StatusStopped)
		p.log.Info().Msg("queue exhausted")
		return
	}

	if err := p.play(ctx, next); err != nil {
		p.log.Error().Err(err).Str("track", next.Title).Msg("failed to play next track")
	}
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateDisconnected:
		return ErrNotConnected
	case StatePaused:
		return ErrAlreadyPaused
	case StateIdle:
		return ErrNoTrackPlaying
	}

	if err := p.backend.Pause(ctx, true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	p.state = StatePaused
	p.emitStatus(StatusPaused)
	return nil
}

func (p *Player) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.IsEmpty() {
		return ErrQueueEmpty
	}
	if p.state != StatePaused {
		return ErrNotPaused
	}

	if err := p.backend.Pause(ctx, false); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	p.state = StatePlaying
	p.emitStatus(StatusResumed)
	return nil
}

// Stop clears the queue and stops playback.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateDisconnected {
		return ErrNotConnected
	}

	p.queue.Clear()
	p.state = StateIdle
	if err := p.backend.Stop(ctx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	p.emitStatus(StatusStopped)
	return nil
}

// Next plays the upcoming track.
func (p *Player) Next(ctx context.Context) (sources.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	upcoming, err := p.queue.Upcoming()
	if err != nil {
		return sources.Track{}, err
	}
	if len(upcoming) == 0 {
		return sources.Track{}, ErrNoMoreTracks
	}

	next, _ := p.queue.Advance()
	return next, p.play(ctx, next)
}

// Previous plays the track right before the current one.
func (p *Player) Previous(ctx context.Context) (sources.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	history, err := p.queue.History()
	if err != nil {
		return sources.Track{}, err
	}
	if len(history) == 0 {
		return sources.Track{}, ErrNoPreviousTracks
	}

	p.queue.SetPosition(len(history) - 1)
	prev, _ := p.queue.Current()
	return prev, p.play(ctx, prev)
}

// SkipTo plays the track at the 1-based index; everything before it
// becomes history. Index 0 stops the current track and leaves the queue
// as it is.
func (p *Player) SkipTo(ctx context.Context, index int) (sources.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.IsEmpty() {
		return sources.Track{}, ErrQueueEmpty
	}
	if index < 0 || index > p.queue.Len() {
		return sources.Track{}, ErrIndexOutOfRange
	}
	if index == 0 {
		return sources.Track{}, p.halt(ctx)
	}

	p.queue.SetPosition(index - 1)
	target, _ := p.queue.Current()
	return target, p.play(ctx, target)
}

// halt stops the backend without touching the queue. The player goes idle
// first so the resulting end event does not advance.
func (p *Player) halt(ctx context.Context) error {
	if p.state == StateDisconnected {
		return ErrNotConnected
	}
	p.state = StateIdle
	if err := p.backend.Stop(ctx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	p.emitStatus(StatusStopped)
	return nil
}

func (p *Player) Shuffle() error {
	return p.queue.Shuffle()
}

func (p *Player) SetRepeatMode(token string) (queue.RepeatMode, error) {
	if err := p.queue.SetRepeatMode(token); err != nil {
		return queue.RepeatNone, err
	}
	return p.queue.Repeat(), nil
}

func (p *Player) Restart(ctx context.Context) error {
	return p.seek(ctx, 0)
}

func (p *Player) SeekTo(ctx context.Context, spec string) (time.Duration, error) {
	if p.queue.IsEmpty() {
		return 0, ErrQueueEmpty
	}
	position, err := ParseTimeSpec(spec)
	if err != nil {
		return 0, err
	}
	return position, p.seek(ctx, position)
}

func (p *Player) seek(ctx context.Context, position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.IsEmpty() {
		return ErrQueueEmpty
	}
	if err := p.backend.Seek(ctx, position); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

func (p *Player) SetVolume(ctx context.Context, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case volume < MinVolume:
		return ErrVolumeTooLow
	case volume > MaxVolume:
		return ErrVolumeTooHigh
	}
	return p.setVolume(ctx, volume)
}

func (p *Player) VolumeUp(ctx context.Context) (int, error) {
	return p.stepVolume(ctx, VolumeStep)
}

func (p *Player) VolumeDown(ctx context.Context) (int, error) {
	return p.stepVolume(ctx, -VolumeStep)
}

func (p *Player) stepVolume(ctx context.Context, step int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if step > 0 && p.volume == MaxVolume {
		return p.volume, ErrMaxVolume
	}
	if step < 0 && p.volume == MinVolume {
		return p.volume, ErrMinVolume
	}

	volume := lo.Clamp(p.volume+step, MinVolume, MaxVolume)
	return volume, p.setVolume(ctx, volume)
}

func (p *Player) setVolume(ctx context.Context, volume int) error {
	if err := p.backend.SetVolume(ctx, volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	p.volume = volume
	return nil
}

// SetEqBand sets one band, addressed by number (1-15) or center frequency.
func (p *Player) SetEqBand(ctx context.Context, band int, gainDB float64) error {
	index, err := ResolveBand(band)
	if err != nil {
		return err
	}
	if gainDB > MaxEqGainDB || gainDB < -MaxEqGainDB {
		return ErrEqGainOutOfBounds
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	levels := p.eq
	levels[index] = gainDB / MaxEqGainDB
	return p.setEqualizer(ctx, levels)
}

func (p *Player) SetEqPreset(ctx context.Context, name string) error {
	levels, ok := EqPresets[name]
	if !ok {
		return ErrUnknownEqPreset
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setEqualizer(ctx, levels)
}

func (p *Player) setEqualizer(ctx context.Context, levels [audio.BandCount]float64) error {
	if err := p.backend.SetEqualizer(ctx, bandsFromLevels(levels)); err != nil {
		return fmt.Errorf("set equalizer: %w", err)
	}
	p.eq = levels
	return nil
}

// NowPlaying returns the current track and how far into it playback is.
func (p *Player) NowPlaying() (sources.Track, time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying && p.state != StatePaused {
		return sources.Track{}, 0, ErrNoTrackPlaying
	}
	track, ok := p.queue.Current()
	if !ok {
		return sources.Track{}, 0, ErrNoTrackPlaying
	}
	return track, p.backend.Position(), nil
}

func (p *Player) play(ctx context.Context, track sources.Track) error {
	if p.state == StateDisconnected {
		return ErrNotConnected
	}
	if err := p.backend.Play(ctx, track); err != nil {
		p.state = StateIdle
		p.emitStatus(StatusError)
		return fmt.Errorf("play %q: %w", track.Title, err)
	}
	p.state = StatePlaying
	p.emitStatus(StatusPlaying)
	p.log.Info().Str("track", track.Title).Int("position", p.queue.Position()).Msg("playing")
	return nil
}

func (p *Player) emitStatus(s PlayerStatus) {
	select {
	case p.PlayerStatus <- s:
	default:
		p.log.Debug().Str("status", string(s)).Msg("status channel full, dropping")
	}
}
