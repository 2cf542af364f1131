package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"cloverville/internal/config"
	"cloverville/internal/db"
	"cloverville/internal/engine"
	"cloverville/internal/history"
	"cloverville/internal/ledger"
	"cloverville/internal/migrate"
	"cloverville/internal/store"
)

// Session is an opened workspace: storage, ledgers and engine wired from
// the workspace config.
type Session struct {
	Engine  *engine.Engine
	Config  *config.Config
	Backend store.Backend
	History history.Sink
	Log     logrus.FieldLogger

	// Scheduled is the periodic work done by Start.
	Scheduled engine.Report

	conn *sql.DB
}

// Options tweak Open for callers that pin the clock.
type Options struct {
	Now func() time.Time
}

// Open builds the storage backend and history sink named by cfg, loads the
// ledgers and the activity partitions, and returns the ready session.
func Open(ctx context.Context, workspace string, cfg *config.Config, log logrus.FieldLogger, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{Config: cfg, Log: log}

	backend, err := s.openBackend(ctx, workspace, now)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Backend = backend

	switch cfg.History.Sink {
	case "db":
		s.History = history.DB{DB: s.conn, Now: now}
	default:
		path := cfg.History.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(db.DataDir(workspace), path)
		}
		s.History = history.File{Path: path, Now: now}
	}

	members, err := ledger.LoadMembers(ctx, backend, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	settings, err := ledger.LoadSettings(ctx, backend, log, now())
	if err != nil {
		s.Close()
		return nil, err
	}
	settings.WeeklyDays = cfg.Economy.WeeklyPeriodDays
	settings.ResetMonths = cfg.Economy.PointResetMonths

	eng := engine.New(members, settings, backend, s.History, log)
	eng.Now = now
	eng.Schedule = Schedule(cfg.Economy.Bonus)
	eng.BaselinePoints = cfg.Economy.BaselinePoints
	eng.GreenWindowDays = cfg.Economy.GreenWindowDays
	if err := eng.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = eng
	return s, nil
}

func (s *Session) openBackend(ctx context.Context, workspace string, now func() time.Time) (store.Backend, error) {
	cfg := s.Config.Storage
	switch cfg.Driver {
	case "sqlite":
		conn, err := db.Open(db.Config{Workspace: workspace})
		if err != nil {
			return nil, err
		}
		s.conn = conn
		version, err := migrate.Migrate(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.Log.WithField("schema_version", version).Debug("database ready")
		return store.SQLite{DB: conn, Now: now}, nil
	case "json":
		dir := cfg.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(db.DataDir(workspace), dir)
		}
		return store.Files{Dir: dir}, nil
	case "s3":
		b, err := store.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Start evaluates the reset schedule, as every interactive session does
// before its first operation.
func (s *Session) Start(ctx context.Context) error {
	r, err := s.Engine.RunScheduled(ctx)
	s.Scheduled = r
	if err != nil {
		return err
	}
	if r.GreenSwept > 0 || r.WeeklyReset || r.PointReset {
		s.Log.WithFields(logrus.Fields{
			"green_swept":  r.GreenSwept,
			"weekly_reset": r.WeeklyReset,
			"point_reset":  r.PointReset,
		}).Info("scheduled maintenance ran")
	}
	return nil
}

// Close releases the database connection, if any.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Schedule converts the configured bonus tiers.
func Schedule(b config.Bonus) ledger.Schedule {
	s := ledger.Schedule{Cap: b.Cap}
	for _, t := range b.Tiers {
		s.Tiers = append(s.Tiers, ledger.Tier{MaxTasks: t.MaxTasks, Percent: t.Percent})
	}
	return s
}
