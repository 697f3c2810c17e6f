package chores

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

type Context struct {
	*repository.Context
	Chores      *repository.Set[uuid.UUID, *Chore]
	Assignments *repository.Set[uuid.UUID, *Assignment]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:     c,
		Chores:      repository.Register[uuid.UUID, *Chore](c, "chores"),
		Assignments: repository.Register[uuid.UUID, *Assignment](c, "chore_assignments"),
	}
}

func (c *Context) Overdue(ctx context.Context, now time.Time) ([]*Assignment, error) {
	return c.Assignments.Filter(ctx, func(a *Assignment) bool { return a.Overdue(now) })
}

// Leaderboard sums verified points per assignee.
func (c *Context) Leaderboard(ctx context.Context) (map[uuid.UUID]int, error) {
	verified, err := c.Assignments.Filter(ctx, func(a *Assignment) bool { return a.Status == Verified })
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int)
	for _, a := range verified {
		out[a.AssigneeID] += a.PointsEarned
	}
	return out, nil
}
