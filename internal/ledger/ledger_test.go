package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloverville/internal/domain"
	"cloverville/internal/ledger"
	"cloverville/internal/logging"
	"cloverville/internal/store"
)

type failingBackend struct{ store.Backend }

func (failingBackend) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func newMembers(t *testing.T) (*ledger.Members, store.Backend) {
	t.Helper()
	b := store.Files{Dir: t.TempDir()}
	l, err := ledger.LoadMembers(context.Background(), b, logging.Discard())
	require.NoError(t, err)
	return l, b
}

func TestAddAppliesUniqueSuffix(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	a, err := l.Add(ctx, domain.Member{Name: "Ada", PersonalPoints: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Ada", a.Name)

	b, err := l.Add(ctx, domain.Member{Name: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada (1)", b.Name)

	c, err := l.Add(ctx, domain.Member{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada (2)", c.Name)

	_, err = l.Add(ctx, domain.Member{Name: "Bad#Name"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = l.Add(ctx, domain.Member{ID: a.ID, Name: "Other"})
	assert.ErrorIs(t, err, domain.ErrState)
}

func TestListSortedByName(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	for _, n := range []string{"carl", "Bea", "alma"} {
		_, err := l.Add(ctx, domain.Member{Name: n})
		require.NoError(t, err)
	}
	var names []string
	for _, m := range l.List() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"alma", "Bea", "carl"}, names)
}

func TestUpdateRenamesOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	a, _ := l.Add(ctx, domain.Member{Name: "Ada"})
	b, _ := l.Add(ctx, domain.Member{Name: "Bo"})

	b.PersonalPoints = 7
	require.NoError(t, l.Update(ctx, b))
	got, err := l.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", got.Name)
	assert.Equal(t, 7, got.PersonalPoints)

	b.Name = "Ada"
	require.NoError(t, l.Update(ctx, b))
	got, _ = l.Get(b.ID)
	assert.Equal(t, "Ada (1)", got.Name)

	a.PersonalPoints = -1
	assert.ErrorIs(t, l.Update(ctx, a), domain.ErrValidation)
	assert.ErrorIs(t, l.Update(ctx, domain.Member{ID: "nope", Name: "X"}), domain.ErrNotFound)
}

func TestDeleteAndGet(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	a, _ := l.Add(ctx, domain.Member{Name: "Ada"})
	require.NoError(t, l.Delete(ctx, a.ID))
	_, err := l.Get(a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, l.Delete(ctx, a.ID), domain.ErrNotFound)
	assert.Equal(t, "", l.NameOf(&a.ID))
	assert.Equal(t, "", l.NameOf(nil))
}

func TestApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	a, _ := l.Add(ctx, domain.Member{Name: "Ada", PersonalPoints: 3})
	err := l.Apply(ctx, ledger.PointChange{MemberID: a.ID, Delta: 5}, ledger.PointChange{MemberID: "ghost", Delta: -5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, _ := l.Get(a.ID)
	assert.Equal(t, 3, got.PersonalPoints)

	require.NoError(t, l.Apply(ctx, ledger.PointChange{MemberID: a.ID, Delta: -10, Tasks: 1}))
	got, _ = l.Get(a.ID)
	assert.Equal(t, 0, got.PersonalPoints)
	assert.Equal(t, 1, got.TotalTasksCompleted)
}

func TestWeeklyBonusTiers(t *testing.T) {
	ctx := context.Background()
	l, _ := newMembers(t)
	idle, _ := l.Add(ctx, domain.Member{Name: "Idle", PersonalPoints: 20, TotalTasksCompleted: 1})
	some, _ := l.Add(ctx, domain.Member{Name: "Some", PersonalPoints: 20, TotalTasksCompleted: 3})
	busy, _ := l.Add(ctx, domain.Member{Name: "Busy", PersonalPoints: 20, TotalTasksCompleted: 5})
	most, _ := l.Add(ctx, domain.Member{Name: "Most", PersonalPoints: 20, TotalTasksCompleted: 6})
	rich, _ := l.Add(ctx, domain.Member{Name: "Rich", PersonalPoints: 400, TotalTasksCompleted: 0})

	awarded := l.ApplyWeeklyBonus(ctx, ledger.DefaultSchedule())
	assert.Equal(t, 6, awarded[idle.ID])
	assert.Equal(t, 4, awarded[some.ID])
	assert.Equal(t, 2, awarded[busy.ID])
	assert.Equal(t, 0, awarded[most.ID])
	assert.Equal(t, 15, awarded[rich.ID], "bonus is computed on the capped balance")

	for _, m := range l.List() {
		assert.Zero(t, m.TotalTasksCompleted, m.Name)
	}
	got, _ := l.Get(rich.ID)
	assert.Equal(t, 415, got.PersonalPoints)
}

func TestScheduleRounding(t *testing.T) {
	s := ledger.DefaultSchedule()
	assert.Equal(t, 30, s.Percent(0))
	assert.Equal(t, 20, s.Percent(2))
	assert.Equal(t, 10, s.Percent(4))
	assert.Equal(t, 0, s.Percent(6))
	assert.Equal(t, 11, s.Bonus(35, 0), "10.5 rounds up")
	assert.Equal(t, 1, s.Bonus(3, 1), "0.9 rounds up")
	assert.Equal(t, 0, s.Bonus(0, 0))
}

func TestResetPointsPersists(t *testing.T) {
	ctx := context.Background()
	l, b := newMembers(t)
	for _, n := range []string{"Ada", "Bo"} {
		_, err := l.Add(ctx, domain.Member{Name: n, PersonalPoints: 33})
		require.NoError(t, err)
	}
	require.NoError(t, l.ResetPoints(ctx, 10))

	reloaded, err := ledger.LoadMembers(ctx, b, logging.Discard())
	require.NoError(t, err)
	for _, m := range reloaded.List() {
		assert.Equal(t, 10, m.PersonalPoints)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.LoadMembers(ctx, failingBackend{store.Files{Dir: t.TempDir()}}, logging.Discard())
	require.NoError(t, err)
	m, err := l.Add(ctx, domain.Member{Name: "Ada"})
	require.NoError(t, err)
	_, err = l.Get(m.ID)
	assert.NoError(t, err)
}

func TestSettingsDueDates(t *testing.T) {
	ctx := context.Background()
	b := store.Files{Dir: t.TempDir()}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := ledger.LoadSettings(ctx, b, logging.Discard(), start)
	require.NoError(t, err)

	assert.False(t, s.WeeklyResetDue(start.AddDate(0, 0, 6)))
	assert.True(t, s.WeeklyResetDue(start.AddDate(0, 0, 7)))
	assert.False(t, s.PointResetDue(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, s.PointResetDue(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))

	s.MarkWeeklyReset(ctx, start.AddDate(0, 0, 8))
	assert.False(t, s.WeeklyResetDue(start.AddDate(0, 0, 14)))

	reloaded, err := ledger.LoadSettings(ctx, b, logging.Discard(), start.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 8), reloaded.Get().LastResetDate)
}

func TestSettingsUpdate(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := ledger.LoadSettings(ctx, store.Files{Dir: t.TempDir()}, logging.Discard(), today)
	require.NoError(t, err)

	require.NoError(t, s.AddCommunityPoints(ctx, 4))
	assert.ErrorIs(t, s.AddCommunityPoints(ctx, -1), domain.ErrValidation)

	next := s.Get()
	next.CommunityGoal = "Plant 20 trees"
	next.TargetPoints = 250
	next.LastResetDate = today.AddDate(-1, 0, 0)
	require.NoError(t, s.Update(ctx, next))
	got := s.Get()
	assert.Equal(t, "Plant 20 trees", got.CommunityGoal)
	assert.Equal(t, 4, got.CommunityPoints)
	assert.Equal(t, today, got.LastResetDate, "reset dates are not editable")

	next.CommunityGoal = ""
	assert.ErrorIs(t, s.Update(ctx, next), domain.ErrValidation)
}
