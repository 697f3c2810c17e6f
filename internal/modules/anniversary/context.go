package anniversary

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

type Context struct {
	*repository.Context
	ImportantDates *repository.Set[uuid.UUID, *ImportantDate]
	Reminders      *repository.Set[uuid.UUID, *Reminder]
	Gifts          *repository.Set[uuid.UUID, *Gift]
	Celebrations   *repository.Set[uuid.UUID, *Celebration]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:        c,
		ImportantDates: repository.Register[uuid.UUID, *ImportantDate](c, "anniversary_important_dates"),
		Reminders:      repository.Register[uuid.UUID, *Reminder](c, "anniversary_reminders"),
		Gifts:          repository.Register[uuid.UUID, *Gift](c, "anniversary_gifts"),
		Celebrations:   repository.Register[uuid.UUID, *Celebration](c, "anniversary_celebrations"),
	}
}

// Upcoming pairs a date with its next occurrence.
type Upcoming struct {
	Date *ImportantDate
	On   time.Time
}

// UpcomingDates returns the active dates of user occurring within days of
// now, soonest first.
func (c *Context) UpcomingDates(ctx context.Context, user uuid.UUID, now time.Time, days int) ([]Upcoming, error) {
	dates, err := c.ImportantDates.Filter(ctx, func(d *ImportantDate) bool {
		return d.UserID == user && d.IsActive
	})
	if err != nil {
		return nil, err
	}
	limit := truncateDay(now).AddDate(0, 0, days)

	var out []Upcoming
	for _, d := range dates {
		next, ok := d.NextOccurrence(now)
		if !ok || next.After(limit) {
			continue
		}
		out = append(out, Upcoming{Date: d, On: next})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].On.Before(out[j].On) })
	return out, nil
}

// DueReminders returns scheduled reminders whose time has come.
func (c *Context) DueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	return c.Reminders.Filter(ctx, func(r *Reminder) bool { return r.Due(now) })
}

// GiftsFor lists the gifts planned for one date.
func (c *Context) GiftsFor(ctx context.Context, dateID uuid.UUID) ([]*Gift, error) {
	return c.Gifts.Filter(ctx, func(g *Gift) bool { return g.ImportantDateID == dateID })
}
