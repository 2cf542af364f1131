// Package ledger owns the member collection and the settings singleton. All
// point mutations go through it; callers receive copies, never references
// into ledger state.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cloverville/internal/domain"
	"cloverville/internal/store"
)

// PointChange is one member's share of a transfer. A negative Delta is
// subtracted with the balance floored at zero.
type PointChange struct {
	MemberID string
	Delta    int
	Tasks    int
}

type Members struct {
	backend store.Backend
	log     logrus.FieldLogger
	members map[string]*domain.Member
	NewID   func() string
}

// LoadMembers reads the member collection from the backend.
func LoadMembers(ctx context.Context, b store.Backend, log logrus.FieldLogger) (*Members, error) {
	items, err := store.LoadCollection[domain.Member](ctx, b, store.Members)
	if err != nil {
		return nil, err
	}
	l := &Members{
		backend: b,
		log:     log,
		members: make(map[string]*domain.Member, len(items)),
		NewID:   uuid.NewString,
	}
	for i := range items {
		m := items[i]
		l.members[m.ID] = &m
	}
	return l, nil
}

func (l *Members) Add(ctx context.Context, m domain.Member) (domain.Member, error) {
	if err := m.Validate(); err != nil {
		return domain.Member{}, err
	}
	if m.ID == "" {
		m.ID = l.NewID()
	}
	if _, ok := l.members[m.ID]; ok {
		return domain.Member{}, fmt.Errorf("%w: duplicate member id %s", domain.ErrState, m.ID)
	}
	m.Name = l.uniqueName(m.Name, "")
	l.members[m.ID] = &m
	l.save(ctx)
	return m, nil
}

func (l *Members) Delete(ctx context.Context, id string) error {
	if _, ok := l.members[id]; !ok {
		return fmt.Errorf("%w: member %s", domain.ErrNotFound, id)
	}
	delete(l.members, id)
	l.save(ctx)
	return nil
}

func (l *Members) Get(id string) (domain.Member, error) {
	m, ok := l.members[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("%w: member %s", domain.ErrNotFound, id)
	}
	return *m, nil
}

func (l *Members) Exists(id string) bool {
	_, ok := l.members[id]
	return ok
}

// List returns members ordered by name.
func (l *Members) List() []domain.Member {
	res := make([]domain.Member, 0, len(l.members))
	for _, m := range l.members {
		res = append(res, *m)
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := strings.ToLower(res[i].Name), strings.ToLower(res[j].Name)
		if a != b {
			return a < b
		}
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// Update copies name, points and task counter onto the stored member. The
// uniqueness suffix is recomputed only when the name changed.
func (l *Members) Update(ctx context.Context, m domain.Member) error {
	stored, ok := l.members[m.ID]
	if !ok {
		return fmt.Errorf("%w: member %s", domain.ErrNotFound, m.ID)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if stored.Name != m.Name {
		stored.Name = l.uniqueName(m.Name, m.ID)
	}
	stored.PersonalPoints = m.PersonalPoints
	stored.TotalTasksCompleted = m.TotalTasksCompleted
	l.save(ctx)
	return nil
}

// NameOf returns the member's name, or "" for a nil or unknown id.
func (l *Members) NameOf(id *string) string {
	if id == nil {
		return ""
	}
	if m, ok := l.members[*id]; ok {
		return m.Name
	}
	return ""
}

// Apply performs a point transfer. Every member is resolved before anything
// is mutated, so an unknown id leaves all balances untouched.
func (l *Members) Apply(ctx context.Context, changes ...PointChange) error {
	for _, c := range changes {
		if _, ok := l.members[c.MemberID]; !ok {
			return fmt.Errorf("%w: member %s", domain.ErrNotFound, c.MemberID)
		}
		if c.Tasks < 0 {
			return fmt.Errorf("%w: task increment cannot be negative", domain.ErrValidation)
		}
	}
	for _, c := range changes {
		m := l.members[c.MemberID]
		if c.Delta >= 0 {
			m.AddPoints(c.Delta)
		} else {
			m.SubtractPoints(-c.Delta)
		}
		for i := 0; i < c.Tasks; i++ {
			m.IncrementTasks()
		}
		l.log.WithFields(logrus.Fields{"member": m.ID, "delta": c.Delta, "balance": m.PersonalPoints}).Debug("points applied")
	}
	l.save(ctx)
	return nil
}

// ResetPoints sets every balance to baseline.
func (l *Members) ResetPoints(ctx context.Context, baseline int) error {
	if baseline < 0 {
		return fmt.Errorf("%w: baseline cannot be negative", domain.ErrValidation)
	}
	for _, m := range l.members {
		m.PersonalPoints = baseline
	}
	l.save(ctx)
	return nil
}

// ApplyWeeklyBonus credits each member's participation bonus, then zeroes
// the task counters for the next period.
func (l *Members) ApplyWeeklyBonus(ctx context.Context, s Schedule) map[string]int {
	awarded := make(map[string]int, len(l.members))
	for _, m := range l.members {
		bonus := s.Bonus(m.PersonalPoints, m.TotalTasksCompleted)
		m.AddPoints(bonus)
		m.TotalTasksCompleted = 0
		awarded[m.ID] = bonus
	}
	l.save(ctx)
	return awarded
}

// uniqueName appends " (N)" with the smallest N that is not taken by a member
// other than self. Comparison is case-insensitive.
func (l *Members) uniqueName(name, self string) string {
	taken := make(map[string]bool, len(l.members))
	for id, m := range l.members {
		if id != self {
			taken[strings.ToLower(m.Name)] = true
		}
	}
	if !taken[strings.ToLower(name)] {
		return name
	}
	base := domain.BaseName(name)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func (l *Members) save(ctx context.Context) {
	if err := store.SaveCollection(ctx, l.backend, store.Members, l.List()); err != nil {
		l.log.WithError(err).WithField("collection", store.Members).Error("persist members failed; in-memory state kept")
	}
}
