package habits

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

type Context struct {
	*repository.Context
	Habits      *repository.Set[uuid.UUID, *Habit]
	Completions *repository.Set[uuid.UUID, *Completion]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:     c,
		Habits:      repository.Register[uuid.UUID, *Habit](c, "habits"),
		Completions: repository.Register[uuid.UUID, *Completion](c, "habit_completions"),
	}
}

func (c *Context) completedDays(ctx context.Context, habitID uuid.UUID) (map[time.Time]bool, error) {
	done, err := c.Completions.Filter(ctx, func(x *Completion) bool { return x.HabitID == habitID })
	if err != nil {
		return nil, err
	}
	days := make(map[time.Time]bool, len(done))
	for _, x := range done {
		days[truncateDay(x.CompletedOn)] = true
	}
	return days, nil
}

// Streak counts consecutive completed days ending today, or yesterday when
// today is not done yet.
func (c *Context) Streak(ctx context.Context, habitID uuid.UUID, today time.Time) (int, error) {
	days, err := c.completedDays(ctx, habitID)
	if err != nil {
		return 0, err
	}
	d := truncateDay(today)
	if !days[d] {
		d = d.AddDate(0, 0, -1)
	}
	n := 0
	for days[d] {
		n++
		d = d.AddDate(0, 0, -1)
	}
	return n, nil
}

// WeekProgress reports completions in the seven days ending today and
// whether the habit's weekly target is met.
func (c *Context) WeekProgress(ctx context.Context, h *Habit, today time.Time) (int, bool, error) {
	days, err := c.completedDays(ctx, h.ID)
	if err != nil {
		return 0, false, err
	}
	d := truncateDay(today)
	n := 0
	for i := 0; i < 7; i++ {
		if days[d.AddDate(0, 0, -i)] {
			n++
		}
	}
	return n, n >= h.TargetDaysPerWeek, nil
}
