package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloverville/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Economy.BaselinePoints)
	assert.Equal(t, 50, cfg.Economy.Bonus.Cap)
	assert.Equal(t, []config.BonusTier{{MaxTasks: 1, Percent: 30}, {MaxTasks: 3, Percent: 20}, {MaxTasks: 5, Percent: 10}}, cfg.Economy.Bonus.Tiers)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("storage:\n  driver: json\neconomy:\n  bonus:\n    cap: 20\n"), 0o644))
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.Economy.Bonus.Cap)
	assert.Len(t, cfg.Economy.Bonus.Tiers, 3)
	assert.Equal(t, 7, cfg.Economy.GreenWindowDays)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"driver":       "storage:\n  driver: mongo\n",
		"s3 bucket":    "storage:\n  driver: s3\n",
		"db sink":      "storage:\n  driver: json\nhistory:\n  sink: db\n",
		"tier order":   "economy:\n  bonus:\n    tiers:\n      - {max_tasks: 3, percent: 20}\n      - {max_tasks: 1, percent: 30}\n",
		"tier percent": "economy:\n  bonus:\n    tiers:\n      - {max_tasks: 1, percent: 130}\n",
		"period":       "economy:\n  green_window_days: 0\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}
