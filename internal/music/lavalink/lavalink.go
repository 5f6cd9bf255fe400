// Package lavalink drives Lavalink v4 nodes: it keeps the node websockets
// open, turns their events into audio events and implements audio.Backend
// per guild over the REST API.
package lavalink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/keshon/rainymusic/pkg/jobmgr"
	"github.com/keshon/rainymusic/pkg/retrylimit"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const DefaultClientName = "rainymusic/1.0"

var (
	ErrNoAvailableNode = errors.New("no lavalink node is available")
	ErrLoadFailed      = errors.New("lavalink failed to load tracks")
)

// VoiceGateway joins and leaves voice channels on the chat side. Lavalink
// only streams once the resulting voice session is forwarded to it.
type VoiceGateway interface {
	JoinVoice(guildID, channelID string) error
	LeaveVoice(guildID string) error
}

type Client struct {
	name      string
	nodes     []*Node
	voice     VoiceGateway
	http      *http.Client
	limiter   *retrylimit.AdaptiveLimiter
	reconnect retrylimit.RetryConfig
	jobs      *jobmgr.Manager

	mu       sync.RWMutex
	user     string
	players  map[string]*GuildPlayer
	handlers map[audio.EventKind][]audio.EventHandler
}

func New(configs []NodeConfig, voice VoiceGateway) *Client {
	reconnect := retrylimit.DefaultRetryConfig()
	reconnect.MaxAttempts = 0
	reconnect.InitialDelay = time.Second

	c := &Client{
		name:      DefaultClientName,
		voice:     voice,
		http:      &http.Client{Timeout: 15 * time.Second},
		limiter:   retrylimit.NewAdaptiveLimiter(20, 2, 50, 1, 0.5),
		reconnect: reconnect,
		players:   make(map[string]*GuildPlayer),
		handlers:  make(map[audio.EventKind][]audio.EventHandler),
	}
	for _, cfg := range configs {
		c.nodes = append(c.nodes, newNode(cfg, c))
	}
	return c
}

func (c *Client) Nodes() []*Node {
	return c.nodes
}

// On registers fn for one kind of event.
func (c *Client) On(kind audio.EventKind, fn audio.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = append(c.handlers[kind], fn)
}

// Handle registers a whole dispatch table.
func (c *Client) Handle(table map[audio.EventKind]audio.EventHandler) {
	for kind, fn := range table {
		c.On(kind, fn)
	}
}

func (c *Client) dispatch(ev audio.Event) {
	c.mu.RLock()
	handlers := c.handlers[ev.Kind]
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (c *Client) userID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Connect starts one background connection per node. userID is the bot's
// own account, which Lavalink needs to join voice on its behalf.
func (c *Client) Connect(ctx context.Context, userID string) error {
	if len(c.nodes) == 0 {
		return ErrNoAvailableNode
	}

	c.mu.Lock()
	c.user = userID
	if c.jobs == nil {
		c.jobs = jobmgr.NewManager(ctx, func(s string) {
			log.Debug().Str("component", "lavalink").Msg(s)
		})
	}
	jobs := c.jobs
	c.mu.Unlock()

	for _, n := range c.nodes {
		if err := jobs.StartAsync("lavalink:"+n.Name(), n.Run); err != nil {
			log.Debug().Err(err).Str("node", n.Name()).Msg("node already running")
		}
	}
	return nil
}

func (c *Client) Close() {
	c.mu.RLock()
	jobs := c.jobs
	c.mu.RUnlock()
	if jobs != nil {
		jobs.StopAll()
	}
}

// node picks the first node that has a session.
func (c *Client) node() (*Node, error) {
	ready := lo.Filter(c.nodes, func(n *Node, _ int) bool { return n.Ready() })
	if len(ready) == 0 {
		return nil, ErrNoAvailableNode
	}
	return ready[0], nil
}

// Player returns the guild's backend handle, creating it on first use.
func (c *Client) Player(guildID string) *GuildPlayer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.players[guildID]; ok {
		return p
	}
	p := &GuildPlayer{client: c, guildID: guildID}
	c.players[guildID] = p
	return p
}

// Backend adapts Player to the factory the player registry expects.
func (c *Client) Backend(guildID string) audio.Backend {
	return c.Player(guildID)
}

func (c *Client) lookup(guildID string) (*GuildPlayer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[guildID]
	return p, ok
}

func (c *Client) forget(p *GuildPlayer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.players[p.guildID] == p {
		delete(c.players, p.guildID)
	}
}

func (c *Client) updatePosition(guildID string, position time.Duration) {
	if p, ok := c.lookup(guildID); ok {
		p.setPosition(position)
	}
}

// VoiceStateUpdate forwards the bot's own voice session for a guild.
// An empty channelID means the bot left voice.
func (c *Client) VoiceStateUpdate(ctx context.Context, guildID, channelID, sessionID string) {
	p, ok := c.lookup(guildID)
	if !ok {
		return
	}
	p.voiceState(ctx, channelID, sessionID)
}

// VoiceServerUpdate forwards the voice server a guild was assigned.
func (c *Client) VoiceServerUpdate(ctx context.Context, guildID, token, endpoint string) {
	p, ok := c.lookup(guildID)
	if !ok {
		return
	}
	p.voiceServer(ctx, token, endpoint)
}

// LoadTracks resolves an identifier through the first available node.
func (c *Client) LoadTracks(ctx context.Context, identifier string) (sources.Result, error) {
	n, err := c.node()
	if err != nil {
		return sources.Result{}, err
	}

	var res loadResult
	if err := n.get(ctx, "/v4/loadtracks", url.Values{"identifier": {identifier}}, &res); err != nil {
		return sources.Result{}, err
	}
	return decodeLoadResult(res)
}

func decodeLoadResult(res loadResult) (sources.Result, error) {
	toTracks := func(ts []wireTrack) []sources.Track {
		return lo.Map(ts, func(t wireTrack, _ int) sources.Track { return t.toTrack() })
	}

	switch res.LoadType {
	case loadTrack:
		var t wireTrack
		if err := json.Unmarshal(res.Data, &t); err != nil {
			return sources.Result{}, err
		}
		return sources.Result{Tracks: []sources.Track{t.toTrack()}}, nil

	case loadSearch:
		var ts []wireTrack
		if err := json.Unmarshal(res.Data, &ts); err != nil {
			return sources.Result{}, err
		}
		return sources.Result{Tracks: toTracks(ts)}, nil

	case loadPlaylist:
		var pl playlistData
		if err := json.Unmarshal(res.Data, &pl); err != nil {
			return sources.Result{}, err
		}
		return sources.Result{Tracks: toTracks(pl.Tracks), Playlist: true, PlaylistName: pl.Info.Name}, nil

	case loadEmpty:
		return sources.Result{}, nil

	case loadError:
		var ex exception
		_ = json.Unmarshal(res.Data, &ex)
		return sources.Result{}, fmt.Errorf("%w: %s (%s)", ErrLoadFailed, ex.Message, ex.Severity)
	}

	return sources.Result{}, fmt.Errorf("unknown load type %q", res.LoadType)
}
