package habits

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var sampleHabits = []struct {
	name, description, notes string
	frequency                HabitFrequency
	target                   int
	startedDaysAgo           int
	streak                   int
}{
	{"Morning Exercise", "30 minutes of cardio or strength training", "Best time is 6:00 AM", Daily, 7, 30, 15},
	{"Read for 30 Minutes", "Read books or articles for personal development", "Before bedtime", Daily, 7, 20, 12},
	{"Meditate", "10 minutes of mindfulness meditation", "Use Headspace app", Daily, 7, 15, 0},
	{"Drink 8 Glasses of Water", "Stay hydrated throughout the day", "", Daily, 7, 10, 0},
	{"Practice Guitar", "Practice guitar for skill improvement", "Focus on scales and chord progressions", Weekly, 3, 45, 0},
}

// Seed adds sample habits for owner, with completions ending yesterday for
// the ones that carry a streak. It does nothing when the tenant already has
// habits.
func Seed(ctx context.Context, c *Context, owner uuid.UUID, now time.Time, logger *log.Logger) error {
	existing, err := c.Habits.All(ctx)
	if err != nil {
		return fmt.Errorf("seed habits: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("habit data already present, skipping seed")
		return nil
	}

	for _, s := range sampleHabits {
		h, err := NewHabit(c.Tenant(), owner, s.name)
		if err != nil {
			return err
		}
		if err := h.SetTarget(s.target); err != nil {
			return err
		}
		h.Description, h.Notes, h.Frequency = s.description, s.notes, s.frequency
		h.StartDate = truncateDay(now.AddDate(0, 0, -s.startedDaysAgo))
		if err := c.Habits.Add(h); err != nil {
			return err
		}
		for i := 1; i <= s.streak; i++ {
			if err := c.Completions.Add(NewCompletion(h, now.AddDate(0, 0, -i))); err != nil {
				return err
			}
		}
	}

	if _, err := c.SaveChanges(ctx); err != nil {
		return fmt.Errorf("seed habits: %w", err)
	}
	logger.Info("seeded habit data", "habits", len(sampleHabits))
	return nil
}
