package habits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/logging"
	"tracker-suite/internal/repository"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	b := repository.NewMemory()
	tenant, owner := uuid.New(), uuid.New()
	now := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if err := Seed(ctx, New(b, tenant), owner, now, logging.Discard()); err != nil {
			t.Fatalf("seed #%d: %v", i, err)
		}
	}

	c := New(b, tenant)
	habits, err := c.Habits.Filter(ctx, func(h *Habit) bool { return h.UserID == owner })
	if err != nil {
		t.Fatalf("habits: %v", err)
	}
	if len(habits) != len(sampleHabits) {
		t.Fatalf("expected %d habits, got %d", len(sampleHabits), len(habits))
	}
	streaks := map[string]int{}
	for _, h := range habits {
		n, err := c.Streak(ctx, h.ID, now)
		if err != nil {
			t.Fatalf("streak: %v", err)
		}
		streaks[h.Name] = n
	}
	if streaks["Morning Exercise"] != 15 || streaks["Read for 30 Minutes"] != 12 || streaks["Meditate"] != 0 {
		t.Errorf("unexpected streaks %v", streaks)
	}
}
