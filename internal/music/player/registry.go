package player

import (
	"context"
	"sync"

	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/pkg/util"
	"github.com/rs/zerolog/log"
)

const closeWorkers = 8

// BackendFactory hands out the audio handle for a guild.
type BackendFactory func(guildID string) audio.Backend

// Registry maps guild IDs to their Player. At most one live Player exists
// per guild: a torn down Player is replaced on the next Get.
type Registry struct {
	mu      sync.Mutex
	players map[string]*Player
	backend BackendFactory
}

func NewRegistry(backend BackendFactory) *Registry {
	return &Registry{
		players: make(map[string]*Player),
		backend: backend,
	}
}

// Get returns the guild's Player, creating it if needed.
func (r *Registry) Get(guildID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[guildID]; ok && !p.Closed() {
		return p
	}

	p := New(guildID, r.backend(guildID))
	r.players[guildID] = p
	log.Debug().Str("guild", guildID).Msg("created player")
	return p
}

// Lookup returns the guild's live Player without creating one.
func (r *Registry) Lookup(guildID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[guildID]
	if !ok || p.Closed() {
		return nil, false
	}
	return p, true
}

// Teardown releases the guild's Player and forgets it, even when the
// backend reports an error.
func (r *Registry) Teardown(ctx context.Context, guildID string) error {
	r.mu.Lock()
	p, ok := r.players[guildID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	err := p.Teardown(ctx)

	r.mu.Lock()
	if r.players[guildID] == p {
		delete(r.players, guildID)
	}
	r.mu.Unlock()
	return err
}

// HandleEvent routes backend events to the owning Player.
func (r *Registry) HandleEvent(ev audio.Event) {
	if ev.Kind == audio.EventNodeReady {
		log.Info().Str("node", ev.NodeID).Msg("audio node is ready")
		return
	}
	if !ev.Kind.Terminal() {
		return
	}

	p, ok := r.Lookup(ev.GuildID)
	if !ok {
		log.Debug().Str("guild", ev.GuildID).Stringer("kind", ev.Kind).Msg("event for unknown guild")
		return
	}
	p.OnPlaybackTerminated(context.Background(), ev)
}

// Handlers is the dispatch table to register with the audio backend.
func (r *Registry) Handlers() map[audio.EventKind]audio.EventHandler {
	return map[audio.EventKind]audio.EventHandler{
		audio.EventTrackEnded:     r.HandleEvent,
		audio.EventTrackStuck:     r.HandleEvent,
		audio.EventTrackException: r.HandleEvent,
		audio.EventNodeReady:      r.HandleEvent,
	}
}

// Close tears down every Player.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	_ = util.Parallel(ctx, ids, closeWorkers, func(ctx context.Context, id string) error {
		if err := r.Teardown(ctx, id); err != nil {
			log.Warn().Err(err).Str("guild", id).Msg("teardown on close failed")
		}
		return nil
	})
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}
