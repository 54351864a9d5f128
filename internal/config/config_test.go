package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.False(t, cfg.DotenvLoaded)
	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, "Are you talking to me ?", cfg.TalkingToMe)
	assert.Equal(t, "Are you talking about me ?", cfg.TalkingAboutMe)
	assert.Equal(t, "Oh no... Something went wrong...", cfg.GenericError)
	assert.True(t, bool(cfg.IgnoreBots))
	assert.True(t, bool(cfg.InitSlashCommands))
	assert.False(t, bool(cfg.DevMode))
	assert.Equal(t, time.Minute, cfg.RoleCacheTTL)
	assert.Equal(t, int64(1), cfg.NodeID)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PREFIX", "+!")
	t.Setenv("DEV_MODE", "on")
	t.Setenv("GUILD_ID", "123")
	t.Setenv("IGNORE_BOTS", "off")
	t.Setenv("ROLE_CACHE_TTL", "30s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "+!", cfg.Prefix)
	assert.True(t, bool(cfg.DevMode))
	assert.False(t, bool(cfg.IgnoreBots))
	assert.Equal(t, 30*time.Second, cfg.RoleCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_NAME=Marvin\nPREFIX=?\n"), 0o600))
	t.Setenv("PREFIX", "$")
	t.Cleanup(func() { _ = os.Unsetenv("BOT_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.DotenvLoaded)
	assert.Equal(t, "Marvin", cfg.BotName)
	assert.Equal(t, "$", cfg.Prefix)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"prefix with space": {"PREFIX": "! "},
		"log format":        {"LOG_FORMAT": "xml"},
		"node id":           {"NODE_ID": "4096"},
		"switch":            {"DEV_MODE": "maybe"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load(missingDotenv(t))
			assert.Error(t, err)
		})
	}
}

func TestValidateForBot(t *testing.T) {
	assert.Error(t, (&Config{}).ValidateForBot())
	assert.Error(t, (&Config{DiscordToken: "t", DevMode: true}).ValidateForBot())
	assert.NoError(t, (&Config{DiscordToken: "t", DevMode: true, GuildID: "g"}).ValidateForBot())
}
