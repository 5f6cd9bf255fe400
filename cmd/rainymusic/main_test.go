package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/storage"
)

func TestRenderNodes(t *testing.T) {
	var info lavalink.Info
	info.Version.Semver = "4.0.8"
	info.SourceManagers = []string{"youtube", "soundcloud"}

	var out bytes.Buffer
	renderNodes(&out, []nodeResult{
		{name: "MAIN", info: info},
		{name: "BACKUP", err: errors.New("connection refused")},
	})

	got := out.String()
	for _, want := range []string{"NODE", "VERSION", "MAIN", "4.0.8", "youtube, soundcloud", "BACKUP", "unreachable", "connection refused", "┌"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		renderHistory(&out, nil)
		if strings.TrimSpace(out.String()) != "no commands recorded" {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("records", func(t *testing.T) {
		var out bytes.Buffer
		renderHistory(&out, []storage.CommandHistoryRecord{
			{Username: "alice", ChannelName: "music", Command: "music", Param: "play query=lofi", Datetime: time.Now()},
			{Username: "bob", ChannelName: "music", Command: "music", Datetime: time.Now()},
		})

		got := out.String()
		for _, want := range []string{"USER", "COMMAND", "alice", "#music", "/music play query=lofi", "bob"} {
			if !strings.Contains(got, want) {
				t.Errorf("table missing %q:\n%s", want, got)
			}
		}
	})
}
