package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{
	"DISCORD_TOKEN", "DEV_GUILD_ID", "STORAGE_PATH", "LOG_LEVEL", "LOG_FILE",
	"COMMAND_RATE", "COMMAND_BURST", "SELECTION_TIMEOUT", "SEARCH_PREFIX",
	"LAVALINK_NAME", "LAVALINK_HOST", "LAVALINK_PORT", "LAVALINK_PASSWORD", "LAVALINK_SECURE",
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load(missingFile(t))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DiscordToken != "token" || cfg.StoragePath != "./data/datastore.json" || cfg.LogLevel != "info" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CommandRate != time.Second || cfg.CommandBurst != 3 || cfg.SelectionTimeout != time.Minute {
		t.Errorf("limits = %v %d %v", cfg.CommandRate, cfg.CommandBurst, cfg.SelectionTimeout)
	}
	if cfg.SearchPrefix != "ytsearch:" {
		t.Errorf("SearchPrefix = %q", cfg.SearchPrefix)
	}

	node := cfg.Lavalink.Node()
	if node.Name != "MAIN" || node.Host != "localhost" || node.Port != 2333 || node.Password != "youshallnotpass" || node.Secure {
		t.Errorf("node = %+v", node)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LAVALINK_HOST", "lavalink.internal")
	t.Setenv("LAVALINK_PORT", "443")
	t.Setenv("LAVALINK_SECURE", "true")
	t.Setenv("SELECTION_TIMEOUT", "15s")

	cfg, err := Load(missingFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lavalink.Host != "lavalink.internal" || cfg.Lavalink.Port != 443 || !cfg.Lavalink.Secure {
		t.Errorf("lavalink = %+v", cfg.Lavalink)
	}
	if cfg.SelectionTimeout != 15*time.Second {
		t.Errorf("SelectionTimeout = %v", cfg.SelectionTimeout)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LAVALINK_NAME", "from-env")

	file := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_TOKEN=file-token\nLAVALINK_NAME=from-file\nCOMMAND_BURST=5\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DiscordToken != "file-token" || cfg.CommandBurst != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Lavalink.Name != "from-env" {
		t.Errorf("LAVALINK_NAME = %q, want the environment to win", cfg.Lavalink.Name)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		invalid bool
	}{
		{"missing token", map[string]string{}, false},
		{"bad port", map[string]string{"DISCORD_TOKEN": "t", "LAVALINK_PORT": "70000"}, true},
		{"zero burst", map[string]string{"DISCORD_TOKEN": "t", "COMMAND_BURST": "0"}, true},
		{"negative timeout", map[string]string{"DISCORD_TOKEN": "t", "SELECTION_TIMEOUT": "-1s"}, true},
		{"timeout over a minute", map[string]string{"DISCORD_TOKEN": "t", "SELECTION_TIMEOUT": "5m"}, true},
		{"unparsable rate", map[string]string{"DISCORD_TOKEN": "t", "COMMAND_RATE": "soon"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(missingFile(t))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalid) = %v, want %v (err: %v)", !tt.invalid, tt.invalid, err)
			}
		})
	}
}
