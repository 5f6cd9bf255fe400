package lavalink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/rainymusic/internal/music/audio"
	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	minGain = -0.25
	maxGain = 1.0
)

// GuildPlayer is the Lavalink side of one guild's playback.
type GuildPlayer struct {
	client  *Client
	guildID string

	mu        sync.Mutex
	node      *Node
	channelID string
	sessionID string
	token     string
	endpoint  string
	voiceSent string // node session the voice state was last sent to
	position  time.Duration
}

var _ audio.Backend = (*GuildPlayer)(nil)

func (p *GuildPlayer) Connect(ctx context.Context, channelID string) error {
	if _, err := p.client.node(); err != nil {
		return err
	}
	if err := p.client.voice.JoinVoice(p.guildID, channelID); err != nil {
		return fmt.Errorf("join voice: %w", err)
	}

	p.mu.Lock()
	p.channelID = channelID
	p.mu.Unlock()
	return nil
}

func (p *GuildPlayer) Play(ctx context.Context, track sources.Track) error {
	return p.update(ctx, playerUpdate{
		Track:  &trackUpdate{Encoded: ptr(track.SourceRef)},
		Paused: ptr(false),
	})
}

func (p *GuildPlayer) Pause(ctx context.Context, paused bool) error {
	return p.update(ctx, playerUpdate{Paused: ptr(paused)})
}

func (p *GuildPlayer) Stop(ctx context.Context) error {
	return p.update(ctx, playerUpdate{Track: &trackUpdate{}})
}

func (p *GuildPlayer) Seek(ctx context.Context, position time.Duration) error {
	return p.update(ctx, playerUpdate{Position: ptr(position.Milliseconds())})
}

func (p *GuildPlayer) SetVolume(ctx context.Context, volume int) error {
	return p.update(ctx, playerUpdate{Volume: ptr(volume)})
}

// SetEqualizer converts decibels to Lavalink's gain multipliers.
func (p *GuildPlayer) SetEqualizer(ctx context.Context, bands []audio.Band) error {
	eq := lo.Map(bands, func(b audio.Band, _ int) eqBand {
		return eqBand{Band: b.Band, Gain: lo.Clamp(b.GainDB/10, minGain, maxGain)}
	})
	return p.update(ctx, playerUpdate{Filters: &filters{Equalizer: eq}})
}

// Disconnect leaves voice and destroys the Lavalink player. It returns
// audio.ErrNotFound when there was nothing to release.
func (p *GuildPlayer) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	node, channelID := p.node, p.channelID
	p.node = nil
	p.channelID = ""
	p.voiceSent = ""
	p.mu.Unlock()

	defer p.client.forget(p)

	if channelID != "" {
		if err := p.client.voice.LeaveVoice(p.guildID); err != nil {
			log.Warn().Err(err).Str("guild", p.guildID).Msg("failed to leave voice")
		}
	}
	if node == nil {
		return audio.ErrNotFound
	}
	return node.destroyPlayer(ctx, p.guildID)
}

func (p *GuildPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *GuildPlayer) setPosition(position time.Duration) {
	p.mu.Lock()
	p.position = position
	p.mu.Unlock()
}

func (p *GuildPlayer) voiceState(ctx context.Context, channelID, sessionID string) {
	p.mu.Lock()
	if channelID == "" {
		p.channelID = ""
		p.mu.Unlock()
		return
	}
	p.channelID = channelID
	p.sessionID = sessionID
	p.mu.Unlock()
	p.sendVoice(ctx)
}

func (p *GuildPlayer) voiceServer(ctx context.Context, token, endpoint string) {
	p.mu.Lock()
	p.token = token
	p.endpoint = endpoint
	p.mu.Unlock()
	p.sendVoice(ctx)
}

func (p *GuildPlayer) sendVoice(ctx context.Context) {
	if err := p.update(ctx, playerUpdate{}); err != nil {
		log.Warn().Err(err).Str("guild", p.guildID).Msg("failed to forward voice state")
	}
}

// update sends a player PATCH, attaching the voice state whenever the bound
// node has not seen it yet.
func (p *GuildPlayer) update(ctx context.Context, u playerUpdate) error {
	p.mu.Lock()
	node := p.node
	if node == nil || !node.Ready() {
		n, err := p.client.node()
		if err != nil {
			p.mu.Unlock()
			return err
		}
		node, p.node = n, n
	}

	voiceReady := p.sessionID != "" && p.token != "" && p.endpoint != ""
	if voiceReady && p.voiceSent != node.SessionID() {
		u.Voice = &voiceUpdate{Token: p.token, Endpoint: p.endpoint, SessionID: p.sessionID}
	}
	p.mu.Unlock()

	if u == (playerUpdate{}) {
		return nil
	}
	if err := node.updatePlayer(ctx, p.guildID, u); err != nil {
		return err
	}

	if u.Voice != nil {
		p.mu.Lock()
		p.voiceSent = node.SessionID()
		p.mu.Unlock()
	}
	return nil
}
