// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/music/vote"
)

type Lavalink struct {
	Name     string `env:"NAME" envDefault:"MAIN"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"2333"`
	Password string `env:"PASSWORD" envDefault:"youshallnotpass"`
	Secure   bool   `env:"SECURE" envDefault:"false"`
}

// Node converts the settings into a Lavalink node definition.
func (l Lavalink) Node() lavalink.NodeConfig {
	return lavalink.NodeConfig{
		Name:     l.Name,
		Host:     l.Host,
		Port:     l.Port,
		Password: l.Password,
		Secure:   l.Secure,
	}
}

type Config struct {
	DiscordToken     string        `env:"DISCORD_TOKEN,required,notEmpty"`
	DevGuildID       string        `env:"DEV_GUILD_ID"`
	StoragePath      string        `env:"STORAGE_PATH" envDefault:"./data/datastore.json"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile          string        `env:"LOG_FILE" envDefault:"./logs/rainymusic.log"`
	CommandRate      time.Duration `env:"COMMAND_RATE" envDefault:"1s"`
	CommandBurst     int           `env:"COMMAND_BURST" envDefault:"3"`
	SelectionTimeout time.Duration `env:"SELECTION_TIMEOUT" envDefault:"60s"`
	SearchPrefix     string        `env:"SEARCH_PREFIX" envDefault:"ytsearch:"`

	Lavalink Lavalink `envPrefix:"LAVALINK_"`
}

var ErrInvalid = errors.New("invalid configuration")

// Load reads .env when present and parses the environment on top of it.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.CommandRate <= 0:
		return fmt.Errorf("%w: COMMAND_RATE must be positive", ErrInvalid)
	case c.CommandBurst < 1:
		return fmt.Errorf("%w: COMMAND_BURST must be at least 1", ErrInvalid)
	case c.SelectionTimeout <= 0:
		return fmt.Errorf("%w: SELECTION_TIMEOUT must be positive", ErrInvalid)
	case c.SelectionTimeout > vote.DefaultTimeout:
		return fmt.Errorf("%w: SELECTION_TIMEOUT may not exceed %s", ErrInvalid, vote.DefaultTimeout)
	case c.Lavalink.Port < 1 || c.Lavalink.Port > 65535:
		return fmt.Errorf("%w: LAVALINK_PORT %d out of range", ErrInvalid, c.Lavalink.Port)
	}
	return nil
}
