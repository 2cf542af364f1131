package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cloverville/internal/domain"
	"cloverville/internal/history"
	"cloverville/internal/ledger"
	"cloverville/internal/store"
)

var partitions = []string{store.Green, store.Communal, store.Trade}

// Engine owns the activity partitions and drives every cross-entity effect
// through the member and settings ledgers.
type Engine struct {
	Members  *ledger.Members
	Settings *ledger.Settings
	Backend  store.Backend
	History  history.Sink
	Log      logrus.FieldLogger
	Now      func() time.Time
	NewID    func() string

	Schedule        ledger.Schedule
	BaselinePoints  int
	GreenWindowDays int

	activities map[string][]domain.Activity
}

func New(members *ledger.Members, settings *ledger.Settings, b store.Backend, h history.Sink, log logrus.FieldLogger) *Engine {
	return &Engine{
		Members:         members,
		Settings:        settings,
		Backend:         b,
		History:         h,
		Log:             log,
		Now:             time.Now,
		NewID:           uuid.NewString,
		Schedule:        ledger.DefaultSchedule(),
		BaselinePoints:  10,
		GreenWindowDays: 7,
		activities:      map[string][]domain.Activity{},
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) today() time.Time {
	return domain.Day(e.now())
}

// Load replaces the in-memory partitions with the stored ones.
func (e *Engine) Load(ctx context.Context) error {
	loaded := make(map[string][]domain.Activity, len(partitions))
	for _, p := range partitions {
		items, err := store.LoadCollection[domain.Activity](ctx, e.Backend, p)
		if err != nil {
			return err
		}
		loaded[p] = items
	}
	e.activities = loaded
	return nil
}

// Create validates and stores a new activity. GREEN activities pay the
// community pool immediately.
func (e *Engine) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	if !a.Type.Valid() {
		return domain.Activity{}, fmt.Errorf("%w: unknown activity type %q", domain.ErrValidation, a.Type)
	}
	if a.ID != "" {
		if _, ok := e.Get(a.ID); ok {
			return domain.Activity{}, fmt.Errorf("%w: duplicate activity id %s", domain.ErrState, a.ID)
		}
	}
	today := e.today()
	if a.Deadline != nil && domain.Day(*a.Deadline).Before(today) {
		return domain.Activity{}, fmt.Errorf("%w: deadline %s is in the past", domain.ErrValidation, a.Deadline.Format("2006-01-02"))
	}
	if err := a.ValidateParticipants(); err != nil {
		return domain.Activity{}, err
	}
	if err := e.checkMembers(a.PerformerID, a.ReceiverID); err != nil {
		return domain.Activity{}, err
	}
	a.CreatedAt = today
	a.CompletedAt = nil
	if err := a.ValidateDeadline(); err != nil {
		return domain.Activity{}, err
	}
	if err := a.ValidateFields(); err != nil {
		return domain.Activity{}, err
	}
	if a.ID == "" {
		a.ID = e.NewID()
	}
	a = clone(a)
	p := a.Type.Partition()
	e.activities[p] = append(e.activities[p], a)
	e.save(ctx, p)
	e.Log.WithFields(logrus.Fields{"id": a.ID, "type": a.Type}).Info("activity created")

	if a.Type == domain.Green {
		e.record(ctx, a)
		if err := e.Settings.AddCommunityPoints(ctx, a.PointValue); err != nil {
			return domain.Activity{}, err
		}
	}
	return clone(a), nil
}

// Complete executes the point transfer of an activity. An unknown id is a
// no-op so that completion after removal succeeds silently.
func (e *Engine) Complete(ctx context.Context, id string) error {
	a, ok := e.Get(id)
	if !ok {
		return nil
	}
	changes, err := transfer(a)
	if err != nil {
		return err
	}
	if err := e.Members.Apply(ctx, changes...); err != nil {
		return err
	}
	now := e.now()
	a.CompletedAt = &now
	e.record(ctx, a)

	p := a.Type.Partition()
	if a.Type.IsTrade() {
		e.remove(p, a.ID)
	} else {
		e.replace(a)
	}
	e.save(ctx, p)
	e.Log.WithFields(logrus.Fields{"id": a.ID, "type": a.Type, "points": a.PointValue}).Info("activity completed")
	return nil
}

// transfer returns the ledger changes for completing a. TRADE_TASK pays the
// receiver and charges the performer; TRADE_GOODS pays the performer and
// charges the receiver.
func transfer(a domain.Activity) ([]ledger.PointChange, error) {
	v := a.PointValue
	switch a.Type {
	case domain.Green:
		return nil, fmt.Errorf("%w: GREEN activities are credited at creation and cannot be completed", domain.ErrValidation)
	case domain.Communal:
		if a.CompletedAt != nil {
			return nil, fmt.Errorf("%w: activity %s was already completed this period", domain.ErrState, a.ID)
		}
		if a.PerformerID == nil {
			return nil, fmt.Errorf("%w: COMMUNAL activity %s requires a performer", domain.ErrValidation, a.ID)
		}
		return []ledger.PointChange{{MemberID: *a.PerformerID, Delta: v, Tasks: 1}}, nil
	case domain.TradeTask, domain.TradeGoods:
		if a.PerformerID == nil || a.ReceiverID == nil {
			return nil, fmt.Errorf("%w: trade %s requires performer and receiver", domain.ErrValidation, a.ID)
		}
		if *a.PerformerID == *a.ReceiverID {
			return nil, fmt.Errorf("%w: trade %s performer and receiver must differ", domain.ErrValidation, a.ID)
		}
		if a.Type == domain.TradeTask {
			return []ledger.PointChange{
				{MemberID: *a.ReceiverID, Delta: v, Tasks: 1},
				{MemberID: *a.PerformerID, Delta: -v},
			}, nil
		}
		return []ledger.PointChange{
			{MemberID: *a.PerformerID, Delta: v},
			{MemberID: *a.ReceiverID, Delta: -v},
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown activity type %q", domain.ErrValidation, a.Type)
}

// Update copies the mutable fields onto the stored activity. An activity
// whose new deadline already passed is deleted instead.
func (e *Engine) Update(ctx context.Context, a domain.Activity) error {
	stored, ok := e.Get(a.ID)
	if !ok {
		return fmt.Errorf("%w: activity %s", domain.ErrNotFound, a.ID)
	}
	if a.Type != stored.Type {
		return fmt.Errorf("%w: activity type is immutable (%s → %s)", domain.ErrState, stored.Type, a.Type)
	}
	if a.Expired(e.today()) {
		e.Log.WithField("id", a.ID).Info("deadline passed on update; activity deleted")
		return e.Delete(ctx, a.ID)
	}
	if err := a.ValidateFields(); err != nil {
		return err
	}
	if err := a.ValidateAssignment(); err != nil {
		return err
	}
	if err := e.checkMembers(a.PerformerID, a.ReceiverID); err != nil {
		return err
	}
	next := stored
	next.Title = a.Title
	next.Description = a.Description
	next.PointValue = a.PointValue
	next.PerformerID = a.PerformerID
	next.ReceiverID = a.ReceiverID
	next.Deadline = a.Deadline
	if err := next.ValidateDeadline(); err != nil {
		return err
	}
	e.replace(clone(next))
	e.save(ctx, next.Type.Partition())
	return nil
}

// Delete removes an activity without any point reversal. Unknown ids are
// ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	a, ok := e.Get(id)
	if !ok {
		return nil
	}
	p := a.Type.Partition()
	e.remove(p, id)
	e.save(ctx, p)
	return nil
}

func (e *Engine) Get(id string) (domain.Activity, bool) {
	for _, p := range partitions {
		for _, a := range e.activities[p] {
			if a.ID == id {
				return clone(a), true
			}
		}
	}
	return domain.Activity{}, false
}

// List returns the activities of one type in insertion order.
func (e *Engine) List(t domain.ActivityType) []domain.Activity {
	var res []domain.Activity
	for _, a := range e.activities[t.Partition()] {
		if a.Type == t {
			res = append(res, clone(a))
		}
	}
	return res
}

// All returns every activity, GREEN first, then COMMUNAL, then trades.
func (e *Engine) All() []domain.Activity {
	var res []domain.Activity
	for _, p := range partitions {
		for _, a := range e.activities[p] {
			res = append(res, clone(a))
		}
	}
	return res
}

// SweepGreen drops GREEN activities older than the rolling window and
// returns how many were removed.
func (e *Engine) SweepGreen(ctx context.Context) int {
	today := e.today()
	var kept []domain.Activity
	removed := 0
	for _, a := range e.activities[store.Green] {
		if domain.Day(a.CreatedAt).AddDate(0, 0, e.GreenWindowDays).Before(today) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	if removed > 0 {
		e.activities[store.Green] = kept
		e.save(ctx, store.Green)
		e.Log.WithField("removed", removed).Info("green sweep")
	}
	return removed
}

// WeeklyReset recycles every COMMUNAL activity for the next period, pays
// the participation bonus and records the reset date. It returns the bonus
// awarded per member id.
func (e *Engine) WeeklyReset(ctx context.Context) map[string]int {
	today := e.today()
	deadline := today.AddDate(0, 0, e.Settings.WeeklyDays)
	communal := e.activities[store.Communal]
	for i := range communal {
		d := deadline
		communal[i].Deadline = &d
		communal[i].CreatedAt = today
		communal[i].PerformerID = nil
		communal[i].ReceiverID = nil
		communal[i].CompletedAt = nil
	}
	e.save(ctx, store.Communal)
	awarded := e.Members.ApplyWeeklyBonus(ctx, e.Schedule)
	e.Settings.MarkWeeklyReset(ctx, today)
	e.Log.WithFields(logrus.Fields{"communal": len(communal), "members": len(awarded)}).Info("weekly reset")
	return awarded
}

// PointReset sets every balance to the baseline and records the reset date.
func (e *Engine) PointReset(ctx context.Context) error {
	if err := e.Members.ResetPoints(ctx, e.BaselinePoints); err != nil {
		return err
	}
	e.Settings.MarkPointReset(ctx, e.today())
	e.Log.WithField("baseline", e.BaselinePoints).Info("point reset")
	return nil
}

// Report lists the periodic work done by RunScheduled.
type Report struct {
	GreenSwept  int            `json:"green_swept"`
	WeeklyReset bool           `json:"weekly_reset"`
	Bonuses     map[string]int `json:"bonuses,omitempty"`
	PointReset  bool           `json:"point_reset"`
}

// RunScheduled performs whatever periodic work is due as of now: the GREEN
// sweep, then the weekly reset, then the point reset.
func (e *Engine) RunScheduled(ctx context.Context) (Report, error) {
	var r Report
	r.GreenSwept = e.SweepGreen(ctx)
	today := e.today()
	if e.Settings.WeeklyResetDue(today) {
		r.Bonuses = e.WeeklyReset(ctx)
		r.WeeklyReset = true
	}
	if e.Settings.PointResetDue(today) {
		if err := e.PointReset(ctx); err != nil {
			return r, err
		}
		r.PointReset = true
	}
	return r, nil
}

func (e *Engine) checkMembers(ids ...*string) error {
	for _, id := range ids {
		if id != nil && !e.Members.Exists(*id) {
			return fmt.Errorf("%w: member %s", domain.ErrNotFound, *id)
		}
	}
	return nil
}

func (e *Engine) replace(a domain.Activity) {
	items := e.activities[a.Type.Partition()]
	for i := range items {
		if items[i].ID == a.ID {
			items[i] = a
			return
		}
	}
}

func (e *Engine) remove(partition, id string) {
	items := e.activities[partition]
	for i := range items {
		if items[i].ID == id {
			e.activities[partition] = append(items[:i:i], items[i+1:]...)
			return
		}
	}
}

func (e *Engine) record(ctx context.Context, a domain.Activity) {
	entry := history.Entry{
		TS:        e.now(),
		Type:      string(a.Type),
		Title:     a.Title,
		Performer: e.Members.NameOf(a.PerformerID),
		Receiver:  e.Members.NameOf(a.ReceiverID),
		Points:    a.PointValue,
	}
	if err := e.History.Append(ctx, entry); err != nil {
		e.Log.WithError(err).WithField("id", a.ID).Warn("history append failed")
	}
}

func (e *Engine) save(ctx context.Context, partition string) {
	if err := store.SaveCollection(ctx, e.Backend, partition, e.activities[partition]); err != nil {
		e.Log.WithError(err).WithField("collection", partition).Error("persist activities failed; in-memory state kept")
	}
}

func clone(a domain.Activity) domain.Activity {
	a.PerformerID = clonePtr(a.PerformerID)
	a.ReceiverID = clonePtr(a.ReceiverID)
	a.Deadline = clonePtr(a.Deadline)
	a.CompletedAt = clonePtr(a.CompletedAt)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
