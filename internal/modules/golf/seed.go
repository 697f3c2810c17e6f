package golf

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var sampleCourses = []struct {
	name, location, notes string
	par                   int
	rating                string
	slope                 int
}{
	{"Pebble Beach Golf Links", "Pebble Beach, CA", "Famous oceanside course", 72, "74.5", 145},
	{"Augusta National Golf Club", "Augusta, GA", "Home of The Masters", 72, "76.2", 137},
	{"Pine Valley Golf Club", "Pine Valley, NJ", "Consistently rated #1 in the world", 70, "75.3", 153},
	{"Oakmont Country Club", "Oakmont, PA", "Known for its challenging bunkers", 71, "77.5", 151},
	{"St Andrews Old Course", "St Andrews, Scotland", "The Home of Golf", 72, "73.8", 135},
}

// Seed adds sample courses and two recent rounds for owner. It does nothing
// when the tenant already has courses.
func Seed(ctx context.Context, c *Context, owner uuid.UUID, now time.Time, logger *log.Logger) error {
	existing, err := c.Courses.All(ctx)
	if err != nil {
		return fmt.Errorf("seed golf: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("golf data already present, skipping seed")
		return nil
	}

	courses := make([]*Course, 0, len(sampleCourses))
	for _, s := range sampleCourses {
		course, err := NewCourse(c.Tenant(), s.name, 18, s.par, decimal.RequireFromString(s.rating), s.slope)
		if err != nil {
			return err
		}
		course.Location, course.Notes = s.location, s.notes
		if err := c.Courses.Add(course); err != nil {
			return err
		}
		courses = append(courses, course)
	}

	rounds := []struct {
		course         *Course
		daysAgo, score int
		weather, notes string
	}{
		{courses[0], 7, 82, "Sunny, light breeze", "Great day on the course"},
		{courses[1], 14, 88, "Overcast", "Struggled with putting"},
	}
	for _, s := range rounds {
		r := NewRound(s.course, owner, now.AddDate(0, 0, -s.daysAgo))
		r.TotalScore, r.Weather, r.Notes = s.score, s.weather, s.notes
		if err := c.Rounds.Add(r); err != nil {
			return err
		}
	}

	if _, err := c.SaveChanges(ctx); err != nil {
		return fmt.Errorf("seed golf: %w", err)
	}
	logger.Info("seeded golf data", "courses", len(courses), "rounds", len(rounds))
	return nil
}
