package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type ActivityType string

const (
	Green      ActivityType = "GREEN"
	Communal   ActivityType = "COMMUNAL"
	TradeTask  ActivityType = "TRADE_TASK"
	TradeGoods ActivityType = "TRADE_GOODS"
)

// ActivityTypes lists the known variants in display order.
var ActivityTypes = []ActivityType{Green, Communal, TradeTask, TradeGoods}

func (t ActivityType) Valid() bool {
	switch t {
	case Green, Communal, TradeTask, TradeGoods:
		return true
	}
	return false
}

func (t ActivityType) IsTrade() bool {
	return t == TradeTask || t == TradeGoods
}

// Partition names the storage collection holding activities of this type.
// Both trade variants share one collection.
func (t ActivityType) Partition() string {
	switch t {
	case Green:
		return "green"
	case Communal:
		return "communal"
	case TradeTask, TradeGoods:
		return "trade"
	}
	return ""
}

// ParseActivityType accepts the variant names case-insensitively.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown activity type %q", ErrValidation, s)
	}
	return t, nil
}

const (
	TitleMax       = 50
	DescriptionMax = 300
	NameMax        = 30
)

type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PointValue  int          `json:"point_value"`
	PerformerID *string      `json:"performer_id,omitempty"`
	ReceiverID  *string      `json:"receiver_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ValidateFields checks the text and point bounds.
func (a Activity) ValidateFields() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(a.Title) > TitleMax {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, TitleMax)
	}
	if strings.TrimSpace(a.Description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(a.Description) > DescriptionMax {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrValidation, DescriptionMax)
	}
	if a.PointValue < 0 {
		return fmt.Errorf("%w: point value cannot be negative", ErrValidation)
	}
	return nil
}

// ValidateParticipants checks performer/receiver presence for a new activity.
// It does not resolve member references.
func (a Activity) ValidateParticipants() error {
	switch a.Type {
	case Green:
		if a.PerformerID != nil || a.ReceiverID != nil {
			return fmt.Errorf("%w: GREEN activities cannot have a performer or receiver", ErrValidation)
		}
	case Communal:
		if a.PerformerID != nil || a.ReceiverID != nil {
			return fmt.Errorf("%w: COMMUNAL activities cannot have a performer or receiver on creation", ErrValidation)
		}
	case TradeTask, TradeGoods:
		if a.PerformerID == nil {
			return fmt.Errorf("%w: trades require a performer", ErrValidation)
		}
		if a.ReceiverID != nil && *a.ReceiverID == *a.PerformerID {
			return fmt.Errorf("%w: trade receiver must differ from performer", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown activity type %q", ErrValidation, a.Type)
	}
	return nil
}

// ValidateAssignment checks performer/receiver presence on an existing
// activity, where a COMMUNAL activity may have been assigned a performer.
func (a Activity) ValidateAssignment() error {
	if a.Type == Communal {
		if a.ReceiverID != nil {
			return fmt.Errorf("%w: COMMUNAL activities cannot have a receiver", ErrValidation)
		}
		return nil
	}
	return a.ValidateParticipants()
}

// ValidateDeadline enforces the per-type deadline policy relative to CreatedAt.
func (a Activity) ValidateDeadline() error {
	if a.Deadline == nil {
		if a.Type == Communal {
			return fmt.Errorf("%w: COMMUNAL activities must have a deadline", ErrValidation)
		}
		return nil
	}
	if !Day(*a.Deadline).After(Day(a.CreatedAt)) {
		return fmt.Errorf("%w: deadline must be after the creation date", ErrValidation)
	}
	return nil
}

// Expired reports whether the deadline lies before today.
func (a Activity) Expired(today time.Time) bool {
	return a.Deadline != nil && Day(*a.Deadline).Before(Day(today))
}

type Member struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	PersonalPoints      int    `json:"personal_points"`
	TotalTasksCompleted int    `json:"total_tasks_completed"`
}

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)
	suffixPattern = regexp.MustCompile(`^(.*) \((\d+)\)$`)
)

// BaseName strips a " (N)" disambiguation suffix.
func BaseName(name string) string {
	if m := suffixPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

func ValidateName(name string) error {
	base := BaseName(name)
	if strings.TrimSpace(base) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(base) > NameMax {
		return fmt.Errorf("%w: name cannot exceed %d characters", ErrValidation, NameMax)
	}
	if !namePattern.MatchString(base) {
		return fmt.Errorf("%w: name may only contain letters, digits and spaces", ErrValidation)
	}
	return nil
}

func (m Member) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}
	if m.PersonalPoints < 0 {
		return fmt.Errorf("%w: points cannot be negative", ErrValidation)
	}
	if m.TotalTasksCompleted < 0 {
		return fmt.Errorf("%w: total tasks completed cannot be negative", ErrValidation)
	}
	return nil
}

func (m *Member) AddPoints(n int) {
	if n > 0 {
		m.PersonalPoints += n
	}
}

// SubtractPoints never takes the balance below zero.
func (m *Member) SubtractPoints(n int) {
	if n <= 0 {
		return
	}
	m.PersonalPoints -= n
	if m.PersonalPoints < 0 {
		m.PersonalPoints = 0
	}
}

func (m *Member) IncrementTasks() {
	m.TotalTasksCompleted++
}

type Settings struct {
	CommunityPoints int       `json:"community_points"`
	CommunityGoal   string    `json:"community_goal"`
	TargetPoints    int       `json:"target_points"`
	LastResetDate   time.Time `json:"last_reset_date"`
	PointResetDate  time.Time `json:"point_reset_date"`
}

func DefaultSettings(today time.Time) Settings {
	d := Day(today)
	return Settings{
		CommunityGoal:  "Keep Cloverville green",
		TargetPoints:   100,
		LastResetDate:  d,
		PointResetDate: d,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.CommunityGoal) == "" {
		return fmt.Errorf("%w: community goal cannot be blank", ErrValidation)
	}
	if s.TargetPoints < 0 {
		return fmt.Errorf("%w: target points cannot be negative", ErrValidation)
	}
	if s.CommunityPoints < 0 {
		return fmt.Errorf("%w: community points cannot be negative", ErrValidation)
	}
	return nil
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
