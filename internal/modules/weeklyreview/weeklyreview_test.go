package weeklyreview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

func TestWeekOf(t *testing.T) {
	// Wednesday
	start, end := WeekOf(time.Date(2024, 4, 10, 15, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start: %v", start)
	}
	if end.Weekday() != time.Sunday || end.Day() != 14 {
		t.Errorf("end: %v", end)
	}
	// Sunday belongs to the week that started the Monday before
	s2, _ := WeekOf(time.Date(2024, 4, 14, 23, 0, 0, 0, time.UTC))
	if !s2.Equal(start) {
		t.Errorf("sunday start: %v", s2)
	}
}

func TestNewWeeklyReviewValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewWeeklyReview(uuid.New(), uuid.New(), now, now); !errors.Is(err, ErrBadWeek) {
		t.Errorf("expected ErrBadWeek, got %v", err)
	}
	r, err := NewWeeklyReview(uuid.New(), uuid.New(), now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Complete(11, ""); !errors.Is(err, ErrBadRating) {
		t.Errorf("expected ErrBadRating, got %v", err)
	}
	if err := r.Complete(8, " Great week! "); err != nil || !r.IsCompleted || r.Reflections != "Great week!" {
		t.Errorf("complete: %v %+v", err, r)
	}
}

func TestReviewForAndSummary(t *testing.T) {
	ctx := context.Background()
	tenant, user := uuid.New(), uuid.New()
	b := repository.NewMemory()
	now := time.Date(2024, 4, 10, 15, 0, 0, 0, time.UTC)

	c := New(b, tenant)
	r, err := c.ReviewFor(ctx, user, now)
	if err != nil {
		t.Fatalf("review for: %v", err)
	}
	a, err := NewAccomplishment(r, "Completed Project", 9)
	if err != nil {
		t.Fatalf("accomplishment: %v", err)
	}
	ch, err := NewChallenge(r, "Time Management")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	c.Accomplishments.Add(a)
	c.Challenges.Add(ch)
	if n, err := c.SaveChanges(ctx); err != nil || n != 3 {
		t.Fatalf("save: %d %v", n, err)
	}

	c = New(b, tenant)
	again, err := c.ReviewFor(ctx, user, now.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("review for: %v", err)
	}
	if again.ID != r.ID {
		t.Error("expected the existing review for the same week")
	}
	sum, err := c.Summarize(ctx, r.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sum.Accomplishments) != 1 || len(sum.Challenges) != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if dirty, _ := c.HasChanges(); dirty {
		t.Error("lookups should not leave pending changes")
	}
}
