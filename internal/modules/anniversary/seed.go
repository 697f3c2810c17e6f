package anniversary

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type sampleDate struct {
	person       string
	kind         DateType
	on           time.Time
	relationship string
	notes        string
}

var sampleDates = []sampleDate{
	{"John Smith", Birthday, time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC), "Friend", "Likes technology gadgets"},
	{"Jane Doe", Birthday, time.Date(1990, 3, 22, 0, 0, 0, 0, time.UTC), "Family", "Loves books and gardening"},
	{"Wedding Anniversary", Anniversary, time.Date(2015, 9, 10, 0, 0, 0, 0, time.UTC), "Spouse", "10th anniversary coming up!"},
	{"Mom", Birthday, time.Date(1960, 12, 5, 0, 0, 0, 0, time.UTC), "Family", "Prefers experiences over gifts"},
	{"Company Anniversary", Custom, time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), "Work", "Celebrate work anniversary"},
}

// Seed adds sample dates for owner with a reminder, a gift idea and a past
// celebration. It does nothing when the tenant already has dates.
func Seed(ctx context.Context, c *Context, owner uuid.UUID, now time.Time, logger *log.Logger) error {
	existing, err := c.ImportantDates.All(ctx)
	if err != nil {
		return fmt.Errorf("seed anniversary: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("anniversary data already present, skipping seed")
		return nil
	}

	dates := make([]*ImportantDate, 0, len(sampleDates))
	for _, s := range sampleDates {
		d, err := NewImportantDate(c.Tenant(), owner, s.person, s.kind, s.on, Annual)
		if err != nil {
			return err
		}
		d.Relationship, d.Notes = s.relationship, s.notes
		if err := c.ImportantDates.Add(d); err != nil {
			return err
		}
		dates = append(dates, d)
	}

	if r, ok := NewReminder(dates[0], 7, Email, now); ok {
		if err := c.Reminders.Add(r); err != nil {
			return err
		}
	}
	g, err := NewGift(dates[0], "Wireless Bluetooth Headphones", decimal.RequireFromString("79.99"))
	if err != nil {
		return err
	}
	g.PurchaseURL = "https://example.com/headphones"
	if err := c.Gifts.Add(g); err != nil {
		return err
	}
	cel := NewCelebration(dates[2], time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC))
	cel.Notes = "Had a wonderful dinner at our favorite restaurant"
	cel.Photos = []string{"photo1.jpg", "photo2.jpg"}
	cel.Attendees = []string{"Spouse"}
	if err := cel.Complete(5); err != nil {
		return err
	}
	if err := c.Celebrations.Add(cel); err != nil {
		return err
	}

	if _, err := c.SaveChanges(ctx); err != nil {
		return fmt.Errorf("seed anniversary: %w", err)
	}
	logger.Info("seeded anniversary data", "dates", len(dates))
	return nil
}
