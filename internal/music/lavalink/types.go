package lavalink

import (
	"encoding/json"
	"time"

	"github.com/keshon/rainymusic/internal/music/sources"
)

type NodeConfig struct {
	Name     string
	Host     string
	Port     int
	Password string
	Secure   bool
}

type trackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	SourceName string `json:"sourceName"`
}

type wireTrack struct {
	Encoded string    `json:"encoded"`
	Info    trackInfo `json:"info"`
}

func (t wireTrack) toTrack() sources.Track {
	return sources.Track{
		Title:      t.Info.Title,
		Author:     t.Info.Author,
		Duration:   time.Duration(t.Info.Length) * time.Millisecond,
		URI:        t.Info.URI,
		SourceName: t.Info.SourceName,
		SourceRef:  t.Encoded,
	}
}

const (
	loadTrack    = "track"
	loadPlaylist = "playlist"
	loadSearch   = "search"
	loadEmpty    = "empty"
	loadError    = "error"
)

type loadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

type playlistData struct {
	Info struct {
		Name          string `json:"name"`
		SelectedTrack int    `json:"selectedTrack"`
	} `json:"info"`
	Tracks []wireTrack `json:"tracks"`
}

type exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// message is any frame received on the node websocket.
type message struct {
	Op string `json:"op"`

	// ready
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`

	// playerUpdate and event
	GuildID string `json:"guildId"`
	State   struct {
		Time      int64 `json:"time"`
		Position  int64 `json:"position"`
		Connected bool  `json:"connected"`
		Ping      int   `json:"ping"`
	} `json:"state"`

	// event
	Type        string     `json:"type"`
	Track       *wireTrack `json:"track"`
	Reason      string     `json:"reason"`
	Exception   *exception `json:"exception"`
	ThresholdMs int64      `json:"thresholdMs"`
	Code        int        `json:"code"`
	ByRemote    bool       `json:"byRemote"`

	// stats
	Players        int   `json:"players"`
	PlayingPlayers int   `json:"playingPlayers"`
	Uptime         int64 `json:"uptime"`
}

type trackUpdate struct {
	Encoded *string `json:"encoded"`
}

type eqBand struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type filters struct {
	Equalizer []eqBand `json:"equalizer"`
}

type voiceUpdate struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

type playerUpdate struct {
	Track    *trackUpdate `json:"track,omitempty"`
	Position *int64       `json:"position,omitempty"`
	Paused   *bool        `json:"paused,omitempty"`
	Volume   *int         `json:"volume,omitempty"`
	Filters  *filters     `json:"filters,omitempty"`
	Voice    *voiceUpdate `json:"voice,omitempty"`
}

// Info is the node's /v4/info answer, trimmed to what the CLI prints.
type Info struct {
	Version struct {
		Semver string `json:"semver"`
	} `json:"version"`
	Lavaplayer     string   `json:"lavaplayer"`
	SourceManagers []string `json:"sourceManagers"`
	Filters        []string `json:"filters"`
}

func ptr[T any](v T) *T {
	return &v
}
