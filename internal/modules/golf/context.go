package golf

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

type Context struct {
	*repository.Context
	Courses    *repository.Set[uuid.UUID, *Course]
	Rounds     *repository.Set[uuid.UUID, *Round]
	HoleScores *repository.Set[uuid.UUID, *HoleScore]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:    c,
		Courses:    repository.Register[uuid.UUID, *Course](c, "golf_courses"),
		Rounds:     repository.Register[uuid.UUID, *Round](c, "golf_rounds"),
		HoleScores: repository.Register[uuid.UUID, *HoleScore](c, "golf_hole_scores"),
	}
}

// Scorecard returns the hole scores of a round ordered by hole.
func (c *Context) Scorecard(ctx context.Context, roundID uuid.UUID) ([]*HoleScore, error) {
	holes, err := c.HoleScores.Filter(ctx, func(h *HoleScore) bool { return h.RoundID == roundID })
	if err != nil {
		return nil, err
	}
	sort.Slice(holes, func(i, j int) bool { return holes[i].HoleNumber < holes[j].HoleNumber })
	return holes, nil
}

// Tally recomputes a round's totals from its hole scores. The round is
// tracked, so the next SaveChanges persists the totals.
func (c *Context) Tally(ctx context.Context, roundID uuid.UUID) (*Round, error) {
	r, err := c.Rounds.Find(ctx, roundID)
	if err != nil {
		return nil, err
	}
	holes, err := c.Scorecard(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if len(holes) == 0 {
		return r, nil
	}
	r.TotalScore, r.TotalPar = 0, 0
	for _, h := range holes {
		r.TotalScore += h.Score
		r.TotalPar += h.Par
	}
	return r, nil
}
