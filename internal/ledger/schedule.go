package ledger

// Tier grants Percent bonus to members with at most MaxTasks completed tasks.
type Tier struct {
	MaxTasks int
	Percent  int
}

// Schedule is the weekly participation bonus: a step function of the task
// counter applied to the balance, capped at Cap points.
type Schedule struct {
	Cap   int
	Tiers []Tier
}

// DefaultSchedule rewards low participation most: 0-1 tasks 30%, 2-3 tasks
// 20%, 4-5 tasks 10%, otherwise nothing.
func DefaultSchedule() Schedule {
	return Schedule{
		Cap: 50,
		Tiers: []Tier{
			{MaxTasks: 1, Percent: 30},
			{MaxTasks: 3, Percent: 20},
			{MaxTasks: 5, Percent: 10},
		},
	}
}

// Percent returns the tier percentage for a task count. Tiers are ordered by
// ascending MaxTasks.
func (s Schedule) Percent(tasks int) int {
	for _, t := range s.Tiers {
		if tasks <= t.MaxTasks {
			return t.Percent
		}
	}
	return 0
}

// Bonus is round(min(points, Cap) * percent / 100), rounding halves up.
func (s Schedule) Bonus(points, tasks int) int {
	pct := s.Percent(tasks)
	if pct <= 0 || points <= 0 {
		return 0
	}
	base := points
	if base > s.Cap {
		base = s.Cap
	}
	return (base*pct + 50) / 100
}
