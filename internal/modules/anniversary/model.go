// Package anniversary tracks birthdays, anniversaries and other recurring
// dates together with their reminders, gift ideas and celebrations.
package anniversary

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyPersonName  = errors.New("person name cannot be empty")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrNegativePrice    = errors.New("price cannot be negative")
	ErrBadRating        = errors.New("rating must be between 1 and 5")
)

const maxPersonName = 200

type ImportantDate struct {
	ID                uuid.UUID         `json:"id"`
	TenantID          uuid.UUID         `json:"tenantId"`
	UserID            uuid.UUID         `json:"userId"`
	PersonName        string            `json:"personName"`
	DateType          DateType          `json:"dateType"`
	DateValue         time.Time         `json:"dateValue"`
	RecurrencePattern RecurrencePattern `json:"recurrencePattern"`
	Relationship      string            `json:"relationship,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func NewImportantDate(tenant, user uuid.UUID, person string, kind DateType, on time.Time, pattern RecurrencePattern) (*ImportantDate, error) {
	person = strings.TrimSpace(person)
	if person == "" {
		return nil, ErrEmptyPersonName
	}
	person = truncate(person, maxPersonName)
	return &ImportantDate{
		ID:                uuid.New(),
		TenantID:          tenant,
		UserID:            user,
		PersonName:        person,
		DateType:          kind,
		DateValue:         truncateDay(on),
		RecurrencePattern: pattern,
		IsActive:          true,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (d *ImportantDate) Key() uuid.UUID       { return d.ID }
func (d *ImportantDate) TenantKey() uuid.UUID { return d.TenantID }

// NextOccurrence returns the first day on or after from on which the date
// falls. One-time dates in the past have none. An annual Feb 29 falls on
// Feb 28 in common years.
func (d *ImportantDate) NextOccurrence(from time.Time) (time.Time, bool) {
	from = truncateDay(from)
	if d.RecurrencePattern == OneTime {
		if d.DateValue.Before(from) {
			return time.Time{}, false
		}
		return d.DateValue, true
	}
	if d.DateValue.After(from) {
		return d.DateValue, true
	}
	next := anniversaryIn(d.DateValue, from.Year())
	if next.Before(from) {
		next = anniversaryIn(d.DateValue, from.Year()+1)
	}
	return next, true
}

func anniversaryIn(orig time.Time, year int) time.Time {
	day := orig.Day()
	if orig.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, orig.Month(), day, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool { return y%4 == 0 && (y%100 != 0 || y%400 == 0) }

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Reminder struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenantId"`
	ImportantDateID   uuid.UUID       `json:"importantDateId"`
	ScheduledTime     time.Time       `json:"scheduledTime"`
	AdvanceNoticeDays int             `json:"advanceNoticeDays"`
	DeliveryChannel   DeliveryChannel `json:"deliveryChannel"`
	Status            ReminderStatus  `json:"status"`
	SentAt            *time.Time      `json:"sentAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// NewReminder schedules a reminder advance days before the next occurrence
// of d after from.
func NewReminder(d *ImportantDate, advance int, channel DeliveryChannel, from time.Time) (*Reminder, bool) {
	next, ok := d.NextOccurrence(from.AddDate(0, 0, advance))
	if !ok {
		return nil, false
	}
	return &Reminder{
		ID:                uuid.New(),
		TenantID:          d.TenantID,
		ImportantDateID:   d.ID,
		ScheduledTime:     next.AddDate(0, 0, -advance),
		AdvanceNoticeDays: advance,
		DeliveryChannel:   channel,
		Status:            ReminderScheduled,
		CreatedAt:         time.Now().UTC(),
	}, true
}

func (r *Reminder) Key() uuid.UUID       { return r.ID }
func (r *Reminder) TenantKey() uuid.UUID { return r.TenantID }

// Due reports whether a scheduled reminder should go out at now.
func (r *Reminder) Due(now time.Time) bool {
	return r.Status == ReminderScheduled && !now.Before(r.ScheduledTime)
}

func (r *Reminder) MarkSent(at time.Time) {
	at = at.UTC()
	r.Status = ReminderSent
	r.SentAt = &at
}

// FollowUp schedules the reminder for the occurrence after the one r was
// sent for, keeping its notice and channel. Dates that do not recur or are
// no longer active get none.
func (r *Reminder) FollowUp(d *ImportantDate, now time.Time) (*Reminder, bool) {
	if d == nil || !d.IsActive || d.RecurrencePattern != Annual {
		return nil, false
	}
	from := r.ScheduledTime.AddDate(0, 0, 1)
	if now.After(from) {
		from = now
	}
	return NewReminder(d, r.AdvanceNoticeDays, r.DeliveryChannel, from)
}

type Gift struct {
	ID              uuid.UUID           `json:"id"`
	TenantID        uuid.UUID           `json:"tenantId"`
	ImportantDateID uuid.UUID           `json:"importantDateId"`
	Description     string              `json:"description"`
	EstimatedPrice  decimal.Decimal     `json:"estimatedPrice"`
	ActualPrice     decimal.NullDecimal `json:"actualPrice"`
	PurchaseURL     string              `json:"purchaseUrl,omitempty"`
	Status          GiftStatus          `json:"status"`
	PurchasedAt     *time.Time          `json:"purchasedAt,omitempty"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func NewGift(d *ImportantDate, description string, estimate decimal.Decimal) (*Gift, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if estimate.IsNegative() {
		return nil, ErrNegativePrice
	}
	return &Gift{
		ID:              uuid.New(),
		TenantID:        d.TenantID,
		ImportantDateID: d.ID,
		Description:     description,
		EstimatedPrice:  estimate.Round(2),
		Status:          GiftIdea,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (g *Gift) Key() uuid.UUID       { return g.ID }
func (g *Gift) TenantKey() uuid.UUID { return g.TenantID }

func (g *Gift) MarkPurchased(price decimal.Decimal, at time.Time) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	at = at.UTC()
	g.ActualPrice = decimal.NewNullDecimal(price.Round(2))
	g.PurchasedAt = &at
	g.Status = GiftPurchased
	return nil
}

func (g *Gift) MarkDelivered(at time.Time) {
	at = at.UTC()
	g.DeliveredAt = &at
	g.Status = GiftDelivered
}

// OverBudget is the amount spent beyond the estimate, zero when under.
func (g *Gift) OverBudget() decimal.Decimal {
	if !g.ActualPrice.Valid {
		return decimal.Zero
	}
	diff := g.ActualPrice.Decimal.Sub(g.EstimatedPrice)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

type Celebration struct {
	ID              uuid.UUID         `json:"id"`
	TenantID        uuid.UUID         `json:"tenantId"`
	ImportantDateID uuid.UUID         `json:"importantDateId"`
	CelebrationDate time.Time         `json:"celebrationDate"`
	Notes           string            `json:"notes,omitempty"`
	Photos          []string          `json:"photos"`
	Attendees       []string          `json:"attendees"`
	Rating          *int              `json:"rating,omitempty"`
	Status          CelebrationStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func NewCelebration(d *ImportantDate, on time.Time) *Celebration {
	return &Celebration{
		ID:              uuid.New(),
		TenantID:        d.TenantID,
		ImportantDateID: d.ID,
		CelebrationDate: truncateDay(on),
		Photos:          []string{},
		Attendees:       []string{},
		Status:          CelebrationPlanned,
		CreatedAt:       time.Now().UTC(),
	}
}

func (c *Celebration) Key() uuid.UUID       { return c.ID }
func (c *Celebration) TenantKey() uuid.UUID { return c.TenantID }

// Complete closes the celebration with a 1-5 rating.
func (c *Celebration) Complete(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrBadRating
	}
	c.Rating = &rating
	c.Status = CelebrationCompleted
	return nil
}
