package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("THIRTEEN_LISTEN_ADDR", ":9999")
	t.Setenv("THIRTEEN_TURN_SECONDS", "20")
	t.Setenv("THIRTEEN_GRACE_SECONDS", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 20, cfg.TurnSeconds)
	assert.Equal(t, Default().GraceSeconds, cfg.GraceSeconds, "bad values fall back to defaults")
	assert.Equal(t, 20*time.Second, cfg.TurnDuration())
}

func TestLoadTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	doc := `tiers:
  - id: micro
    buy_in: 10
    max_players: 8
    prize_pool_seed: 50
    start_delay_minutes: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := Default()
	require.NoError(t, cfg.LoadTiers(path))
	require.Len(t, cfg.Tiers, 1)

	tier, ok := cfg.TierByID("micro")
	require.True(t, ok)
	assert.Equal(t, int64(10), tier.BuyIn)
	assert.Equal(t, int64(50), tier.PrizePoolSeed)
	assert.Equal(t, 2*time.Minute, tier.StartDelay())

	_, ok = cfg.TierByID("casual")
	assert.False(t, ok, "loaded table replaces the defaults")
}

func TestLoadTiersMissingFile(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadTiers(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, Default().Tiers, cfg.Tiers)
}
