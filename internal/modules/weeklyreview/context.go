package weeklyreview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

type Context struct {
	*repository.Context
	Reviews         *repository.Set[uuid.UUID, *WeeklyReview]
	Accomplishments *repository.Set[uuid.UUID, *Accomplishment]
	Challenges      *repository.Set[uuid.UUID, *Challenge]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:         c,
		Reviews:         repository.Register[uuid.UUID, *WeeklyReview](c, "weekly_reviews"),
		Accomplishments: repository.Register[uuid.UUID, *Accomplishment](c, "weekly_accomplishments"),
		Challenges:      repository.Register[uuid.UUID, *Challenge](c, "weekly_challenges"),
	}
}

// ReviewFor returns user's review of the week containing t, creating and
// tracking one if none exists.
func (c *Context) ReviewFor(ctx context.Context, user uuid.UUID, t time.Time) (*WeeklyReview, error) {
	start, end := WeekOf(t)
	r, err := c.Reviews.First(ctx, func(r *WeeklyReview) bool {
		return r.UserID == user && r.WeekStartDate.Equal(start)
	})
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if r, err = NewWeeklyReview(c.Tenant(), user, start, end); err != nil {
		return nil, err
	}
	return r, c.Reviews.Add(r)
}

// Summary is the content of one review.
type Summary struct {
	Review          *WeeklyReview
	Accomplishments []*Accomplishment
	Challenges      []*Challenge
}

func (c *Context) Summarize(ctx context.Context, reviewID uuid.UUID) (*Summary, error) {
	r, err := c.Reviews.Find(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	acc, err := c.Accomplishments.Filter(ctx, func(a *Accomplishment) bool { return a.ReviewID == reviewID })
	if err != nil {
		return nil, err
	}
	ch, err := c.Challenges.Filter(ctx, func(x *Challenge) bool { return x.ReviewID == reviewID })
	if err != nil {
		return nil, err
	}
	return &Summary{Review: r, Accomplishments: acc, Challenges: ch}, nil
}
