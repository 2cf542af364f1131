package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloverville/internal/app"
	"cloverville/internal/config"
	"cloverville/internal/db"
	"cloverville/internal/domain"
	"cloverville/internal/logging"
)

func fixedNow() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }

func TestOpenPersistsAcrossSessions(t *testing.T) {
	for _, driver := range []string{"sqlite", "json"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			cfg := config.Default()
			cfg.Storage.Driver = driver

			s, err := app.Open(ctx, dir, cfg, logging.Discard(), app.Options{Now: fixedNow})
			require.NoError(t, err)
			_, err = s.Engine.Create(ctx, domain.Activity{Type: domain.Green, Title: "Leaves", Description: "Raked", PointValue: 2})
			require.NoError(t, err)
			_, err = s.Engine.Members.Add(ctx, domain.Member{Name: "Ada"})
			require.NoError(t, err)
			require.NoError(t, s.Close())

			s, err = app.Open(ctx, dir, cfg, logging.Discard(), app.Options{Now: fixedNow})
			require.NoError(t, err)
			defer s.Close()
			assert.Len(t, s.Engine.List(domain.Green), 1)
			assert.Len(t, s.Engine.Members.List(), 1)
			assert.Equal(t, 2, s.Engine.Settings.Get().CommunityPoints)

			lines, err := s.History.Tail(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"[2024-05-06] GREEN | Leaves |  →  | 2 points"}, lines)
		})
	}
}

func TestOpenUsesConfiguredLocations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Driver = "json"
	s, err := app.Open(ctx, dir, cfg, logging.Discard(), app.Options{Now: fixedNow})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(db.DataDir(dir), "json", "settings.json"))
	assert.NoError(t, err, "settings are seeded on first open")
	_, err = os.Stat(db.Path(dir))
	assert.ErrorIs(t, err, os.ErrNotExist, "json driver does not touch sqlite")
}

func TestOpenAppliesEconomyConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "json"
	cfg.Economy.BaselinePoints = 25
	cfg.Economy.GreenWindowDays = 3
	cfg.Economy.Bonus.Cap = 20
	cfg.Economy.Bonus.Tiers = []config.BonusTier{{MaxTasks: 0, Percent: 50}}

	s, err := app.Open(context.Background(), t.TempDir(), cfg, logging.Discard(), app.Options{Now: fixedNow})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 25, s.Engine.BaselinePoints)
	assert.Equal(t, 3, s.Engine.GreenWindowDays)
	assert.Equal(t, 10, s.Engine.Schedule.Bonus(40, 0))
	assert.Equal(t, 0, s.Engine.Schedule.Bonus(40, 1))
}

func TestStartRunsDueResets(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Driver = "json"

	s, err := app.Open(ctx, dir, cfg, logging.Discard(), app.Options{Now: fixedNow})
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	assert.False(t, s.Scheduled.WeeklyReset, "fresh settings are not due")
	require.NoError(t, s.Close())

	later := func() time.Time { return fixedNow().AddDate(0, 0, 7) }
	s, err = app.Open(ctx, dir, cfg, logging.Discard(), app.Options{Now: later})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Scheduled.WeeklyReset)
	assert.Equal(t, domain.Day(later()), s.Engine.Settings.Get().LastResetDate)
}
