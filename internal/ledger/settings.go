package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cloverville/internal/domain"
	"cloverville/internal/store"
)

// Settings owns the settings singleton and the due dates of the periodic
// resets.
type Settings struct {
	backend     store.Backend
	log         logrus.FieldLogger
	settings    domain.Settings
	WeeklyDays  int
	ResetMonths int
}

// LoadSettings reads the singleton, seeding and saving defaults when absent.
func LoadSettings(ctx context.Context, b store.Backend, log logrus.FieldLogger, today time.Time) (*Settings, error) {
	s, ok, err := store.LoadSingleton[domain.Settings](ctx, b, store.Settings)
	if err != nil {
		return nil, err
	}
	l := &Settings{backend: b, log: log, settings: s, WeeklyDays: 7, ResetMonths: 6}
	if !ok {
		l.settings = domain.DefaultSettings(today)
		l.save(ctx)
	}
	return l, nil
}

func (l *Settings) Get() domain.Settings {
	return l.settings
}

func (l *Settings) AddCommunityPoints(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: community points to add cannot be negative", domain.ErrValidation)
	}
	l.settings.CommunityPoints += n
	l.save(ctx)
	return nil
}

// Update copies the editable fields. Reset dates are owned by the scheduler.
func (l *Settings) Update(ctx context.Context, s domain.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.settings.CommunityPoints = s.CommunityPoints
	l.settings.CommunityGoal = s.CommunityGoal
	l.settings.TargetPoints = s.TargetPoints
	l.save(ctx)
	return nil
}

// WeeklyResetDue reports whether LastResetDate + one period is on or before today.
func (l *Settings) WeeklyResetDue(today time.Time) bool {
	next := domain.Day(l.settings.LastResetDate).AddDate(0, 0, l.WeeklyDays)
	return !next.After(domain.Day(today))
}

// PointResetDue reports whether PointResetDate + ResetMonths is on or before
// today. A settings record that never recorded a point reset is never due.
func (l *Settings) PointResetDue(today time.Time) bool {
	if l.settings.PointResetDate.IsZero() {
		return false
	}
	next := domain.Day(l.settings.PointResetDate).AddDate(0, l.ResetMonths, 0)
	return !next.After(domain.Day(today))
}

func (l *Settings) MarkWeeklyReset(ctx context.Context, today time.Time) {
	l.settings.LastResetDate = domain.Day(today)
	l.save(ctx)
}

func (l *Settings) MarkPointReset(ctx context.Context, today time.Time) {
	l.settings.PointResetDate = domain.Day(today)
	l.save(ctx)
}

func (l *Settings) save(ctx context.Context) {
	if err := store.SaveSingleton(ctx, l.backend, store.Settings, l.settings); err != nil {
		l.log.WithError(err).WithField("collection", store.Settings).Error("persist settings failed; in-memory state kept")
	}
}
