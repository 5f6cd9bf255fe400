package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/pkg/retrylimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Node is one Lavalink server: a websocket for events and a REST API for
// player updates.
type Node struct {
	cfg    NodeConfig
	client *Client
	log    zerolog.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	sessionID string
	stats     message
}

func newNode(cfg NodeConfig, client *Client) *Node {
	return &Node{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("component", "lavalink").Str("node", cfg.Name).Logger(),
	}
}

func (n *Node) Name() string { return n.cfg.Name }

// Ready reports whether the node has a live session.
func (n *Node) Ready() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID != ""
}

func (n *Node) SessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID
}

// Players returns the player counts from the last stats frame.
func (n *Node) Players() (total, playing int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats.Players, n.stats.PlayingPlayers
}

func (n *Node) wsURL() string {
	scheme := "ws"
	if n.cfg.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/v4/websocket", scheme, n.cfg.Host, n.cfg.Port)
}

func (n *Node) restURL() string {
	scheme := "http"
	if n.cfg.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, n.cfg.Host, n.cfg.Port)
}

// Run keeps the node connected until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	for {
		var conn *websocket.Conn
		err := retrylimit.WithRetryConfig(ctx, func() error {
			c, err := n.dial(ctx)
			conn = c
			return err
		}, nil, n.client.reconnect)
		if err != nil {
			return err
		}

		n.log.Info().Msg("connected")
		err = n.read(ctx, conn)
		n.disconnected()
		if ctx.Err() != nil {
			return nil
		}
		n.log.Warn().Err(err).Msg("connection lost, reconnecting")
	}
}

func (n *Node) dial(ctx context.Context) (*websocket.Conn, error) {
	headers := http.Header{}
	headers.Set("Authorization", n.cfg.Password)
	headers.Set("User-Id", n.client.userID())
	headers.Set("Client-Name", n.client.name)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, n.wsURL(), headers)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, retrylimit.Fatal(fmt.Errorf("node %s rejected the password", n.cfg.Name))
		}
		return nil, err
	}
	return conn, nil
}

func (n *Node) read(ctx context.Context, conn *websocket.Conn) error {
	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			n.log.Debug().Err(err).Msg("skipping malformed frame")
			continue
		}
		n.handleMessage(msg)
	}
}

func (n *Node) disconnected() {
	n.mu.Lock()
	n.conn = nil
	n.sessionID = ""
	n.mu.Unlock()
}

func (n *Node) handleMessage(msg message) {
	switch msg.Op {
	case "ready":
		n.mu.Lock()
		n.sessionID = msg.SessionID
		n.mu.Unlock()
		n.log.Info().Str("session", msg.SessionID).Bool("resumed", msg.Resumed).Msg("ready")
		n.client.dispatch(audio.Event{Kind: audio.EventNodeReady, NodeID: n.cfg.Name})

	case "playerUpdate":
		n.client.updatePosition(msg.GuildID, time.Duration(msg.State.Position)*time.Millisecond)

	case "stats":
		n.mu.Lock()
		n.stats = msg
		n.mu.Unlock()
		n.log.Debug().Int("players", msg.Players).Int("playing", msg.PlayingPlayers).Msg("stats")

	case "event":
		n.handleEvent(msg)
	}
}

func (n *Node) handleEvent(msg message) {
	ev := audio.Event{GuildID: msg.GuildID, NodeID: n.cfg.Name, Reason: msg.Reason}
	if msg.Track != nil {
		ev.TrackRef = msg.Track.Encoded
	}

	switch msg.Type {
	case "TrackStartEvent":
		n.log.Debug().Str("guild", msg.GuildID).Msg("track started")
		return

	case "TrackEndEvent":
		// replaced and cleanup are our own doing; loadFailed already came
		// in as an exception.
		switch msg.Reason {
		case "finished", "stopped":
			ev.Kind = audio.EventTrackEnded
		default:
			n.log.Debug().Str("guild", msg.GuildID).Str("reason", msg.Reason).Msg("track end ignored")
			return
		}

	case "TrackStuckEvent":
		ev.Kind = audio.EventTrackStuck
		ev.Reason = fmt.Sprintf("stuck for %dms", msg.ThresholdMs)

	case "TrackExceptionEvent":
		ev.Kind = audio.EventTrackException
		if msg.Exception != nil {
			ev.Reason = msg.Exception.Message
		}

	case "WebSocketClosedEvent":
		n.log.Warn().Str("guild", msg.GuildID).Int("code", msg.Code).Str("reason", msg.Reason).Bool("remote", msg.ByRemote).Msg("voice websocket closed")
		return

	default:
		return
	}

	n.client.dispatch(ev)
}

// do sends one REST request and decodes the answer into out.
func (n *Node) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	u := n.restURL() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", n.cfg.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := n.client.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := n.client.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		statusErr := &retrylimit.StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
		if retrylimit.DefaultClassifier(statusErr) {
			n.client.limiter.RateLimited()
		}
		return statusErr
	}
	n.client.limiter.Success()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// get retries idempotent requests on overload and server errors.
func (n *Node) get(ctx context.Context, path string, query url.Values, out any) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 3
	return retrylimit.WithRetryConfig(ctx, func() error {
		err := n.do(ctx, http.MethodGet, path, query, nil, out)
		var statusErr *retrylimit.StatusError
		if errors.As(err, &statusErr) && !retrylimit.DefaultClassifier(err) {
			return retrylimit.Fatal(err)
		}
		return err
	}, nil, cfg)
}

func (n *Node) Info(ctx context.Context) (Info, error) {
	var info Info
	err := n.get(ctx, "/v4/info", nil, &info)
	return info, err
}

func (n *Node) playerPath(guildID string) (string, error) {
	sessionID := n.SessionID()
	if sessionID == "" {
		return "", ErrNoAvailableNode
	}
	return fmt.Sprintf("/v4/sessions/%s/players/%s", sessionID, guildID), nil
}

func (n *Node) updatePlayer(ctx context.Context, guildID string, update playerUpdate) error {
	path, err := n.playerPath(guildID)
	if err != nil {
		return err
	}
	return n.do(ctx, http.MethodPatch, path, url.Values{"noReplace": {"false"}}, update, nil)
}

func (n *Node) destroyPlayer(ctx context.Context, guildID string) error {
	path, err := n.playerPath(guildID)
	if err != nil {
		return err
	}
	err = n.do(ctx, http.MethodDelete, path, nil, nil, nil)
	var statusErr *retrylimit.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return audio.ErrNotFound
	}
	return err
}
