package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, []float64{100, 200}, cfg.PlanCeilings)
	assert.Equal(t, float64(10), cfg.RatePerSecond)
	assert.Empty(t, cfg.PasswordHash)
}

func TestLoadServerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
listen: ":9090"
api_key: secret
plan_ceilings: [50, 150, 300]
rate_burst: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []float64{50, 150, 300}, cfg.PlanCeilings)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, "./ccdash.db", cfg.DBPath, "unset fields keep defaults")
}

func TestLoadServerBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))

	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestCLIRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadCLI()
	require.NoError(t, err)
	assert.Equal(t, CLI{}, cfg)

	cfg.Currency = "INR"
	cfg.Rate = 85.5
	require.NoError(t, SaveCLI(cfg))

	loaded, err := LoadCLI()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
