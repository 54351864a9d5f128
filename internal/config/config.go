// Package config reads the bot settings from the environment, with an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Switch is a boolean that also accepts on/off and yes/no.
type Switch bool

func (s *Switch) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "1", "t", "true", "on", "yes", "y":
		*s = true
	case "", "0", "f", "false", "off", "no", "n":
		*s = false
	default:
		return fmt.Errorf("invalid switch value %q", string(b))
	}
	return nil
}

type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN"`
	GuildID           string `env:"GUILD_ID"`
	DevMode           Switch `env:"DEV_MODE"`
	InitSlashCommands Switch `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	Prefix         string `env:"PREFIX" envDefault:"!"`
	BotName        string `env:"BOT_NAME"`
	TalkingToMe    string `env:"TALKING_TO_ME_RESPONSE" envDefault:"Are you talking to me ?"`
	TalkingAboutMe string `env:"TALKING_ABOUT_ME_RESPONSE" envDefault:"Are you talking about me ?"`
	GenericError   string `env:"GENERIC_ERROR_MESSAGE" envDefault:"Oh no... Something went wrong..."`
	IgnoreBots     Switch `env:"IGNORE_BOTS" envDefault:"true"`

	CommandsDir string `env:"COMMANDS_DIR_PATH"`

	RoleCacheSize int           `env:"ROLE_CACHE_SIZE" envDefault:"1024"`
	RoleCacheTTL  time.Duration `env:"ROLE_CACHE_TTL" envDefault:"1m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`

	NodeID int64 `env:"NODE_ID" envDefault:"1"`

	// DotenvLoaded is true when a .env file was found and applied.
	DotenvLoaded bool
}

// Load applies the given .env files (or ./.env) without overriding variables
// already set, then parses the environment.
func Load(dotenv ...string) (*Config, error) {
	loaded := true
	if err := godotenv.Load(dotenv...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		loaded = false
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.DotenvLoaded = loaded
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) check() error {
	if strings.TrimSpace(c.Prefix) == "" {
		return errors.New("PREFIX must not be blank")
	}
	if strings.ContainsAny(c.Prefix, " \t\n") {
		return fmt.Errorf("PREFIX %q must not contain whitespace", c.Prefix)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be within 0..1023, got %d", c.NodeID)
	}
	return nil
}

// ValidateForBot checks what only the live bot needs.
func (c *Config) ValidateForBot() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	if c.DevMode && c.GuildID == "" {
		return errors.New("DEV_MODE requires GUILD_ID")
	}
	return nil
}
