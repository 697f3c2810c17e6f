// Package weeklyreview records end-of-week reviews with the week's
// accomplishments and challenges.
package weeklyreview

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBadWeek    = errors.New("week end must be after week start")
	ErrBadRating  = errors.New("rating must be between 1 and 10")
	ErrEmptyTitle = errors.New("title cannot be empty")
)

type WeeklyReview struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenantId"`
	UserID        uuid.UUID `json:"userId"`
	WeekStartDate time.Time `json:"weekStartDate"`
	WeekEndDate   time.Time `json:"weekEndDate"`
	OverallRating int       `json:"overallRating,omitempty"`
	Reflections   string    `json:"reflections,omitempty"`
	IsCompleted   bool      `json:"isCompleted"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewWeeklyReview(tenant, user uuid.UUID, start, end time.Time) (*WeeklyReview, error) {
	if !end.After(start) {
		return nil, ErrBadWeek
	}
	return &WeeklyReview{
		ID:            uuid.New(),
		TenantID:      tenant,
		UserID:        user,
		WeekStartDate: start.UTC(),
		WeekEndDate:   end.UTC(),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// WeekOf returns the Monday-to-Sunday week containing t.
func WeekOf(t time.Time) (start, end time.Time) {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

func (r *WeeklyReview) Key() uuid.UUID       { return r.ID }
func (r *WeeklyReview) TenantKey() uuid.UUID { return r.TenantID }

func (r *WeeklyReview) Complete(rating int, reflections string) error {
	if rating < 1 || rating > 10 {
		return ErrBadRating
	}
	r.OverallRating = rating
	r.Reflections = strings.TrimSpace(reflections)
	r.IsCompleted = true
	return nil
}

type Accomplishment struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	ReviewID    uuid.UUID `json:"reviewId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImpactLevel int       `json:"impactLevel"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewAccomplishment(r *WeeklyReview, title string, impact int) (*Accomplishment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if impact < 1 || impact > 10 {
		return nil, ErrBadRating
	}
	return &Accomplishment{
		ID:          uuid.New(),
		TenantID:    r.TenantID,
		ReviewID:    r.ID,
		Title:       title,
		ImpactLevel: impact,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (a *Accomplishment) Key() uuid.UUID       { return a.ID }
func (a *Accomplishment) TenantKey() uuid.UUID { return a.TenantID }

type Challenge struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenantId"`
	ReviewID       uuid.UUID `json:"reviewId"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	LessonsLearned string    `json:"lessonsLearned,omitempty"`
	IsResolved     bool      `json:"isResolved"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewChallenge(r *WeeklyReview, title string) (*Challenge, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Challenge{
		ID:        uuid.New(),
		TenantID:  r.TenantID,
		ReviewID:  r.ID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *Challenge) Key() uuid.UUID       { return c.ID }
func (c *Challenge) TenantKey() uuid.UUID { return c.TenantID }
