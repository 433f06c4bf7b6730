package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaultsAndPositional(t *testing.T) {
	cfg, err := ParseConfig([]string{"/tmp/world"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/world", cfg.WorldDir)
	assert.Equal(t, DefaultConfig().Port, cfg.Port)
	assert.Equal(t, DefaultConfig().TickRate, cfg.TickRate)
}

func TestParseConfigRequiresWorldDir(t *testing.T) {
	_, err := ParseConfig(nil)
	assert.Error(t, err)
}

func TestParseConfigFlagsOverrideDefaults(t *testing.T) {
	cfg, err := ParseConfig([]string{
		"-addr", "127.0.0.1",
		"-port", "25566",
		"-motd", "custom motd",
		"-max-players", "5",
		"/tmp/world",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.Equal(t, 25566, cfg.Port)
	assert.Equal(t, "custom motd", cfg.MOTD)
	assert.Equal(t, 5, cfg.MaxPlayers)
	assert.Equal(t, "127.0.0.1:25566", cfg.ListenAddress())
}

func TestParseConfigEnvOverridesFlags(t *testing.T) {
	t.Setenv("LIMBOGATE_PORT", "9999")
	t.Setenv("LIMBOGATE_MOTD", "from env")

	cfg, err := ParseConfig([]string{"-port", "25565", "/tmp/world"})
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "from env", cfg.MOTD)
}

func TestParseConfigYAMLFileOverridesFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("motd: from yaml\nmax_players: 42\n"), 0o644))

	cfg, err := ParseConfig([]string{"-config", path, "-motd", "from flag", "/tmp/world"})
	require.NoError(t, err)
	assert.Equal(t, "from yaml", cfg.MOTD)
	assert.Equal(t, 42, cfg.MaxPlayers)
}
