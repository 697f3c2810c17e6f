// Package habits tracks habits and the days they were completed.
package habits

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName     = errors.New("habit name cannot be empty")
	ErrBadTargetDays = errors.New("target days per week must be between 1 and 7")
)

type HabitFrequency int

const (
	Daily HabitFrequency = iota
	Weekly
	Custom
)

func (f HabitFrequency) String() string {
	switch f {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Custom:
		return "Custom"
	}
	return fmt.Sprintf("HabitFrequency(%d)", int(f))
}

type Habit struct {
	ID                uuid.UUID      `json:"id"`
	TenantID          uuid.UUID      `json:"tenantId"`
	UserID            uuid.UUID      `json:"userId"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	Frequency         HabitFrequency `json:"frequency"`
	TargetDaysPerWeek int            `json:"targetDaysPerWeek"`
	StartDate         time.Time      `json:"startDate"`
	IsActive          bool           `json:"isActive"`
	Notes             string         `json:"notes,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// NewHabit starts a daily habit targeting every day of the week.
func NewHabit(tenant, user uuid.UUID, name string) (*Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now().UTC()
	return &Habit{
		ID:                uuid.New(),
		TenantID:          tenant,
		UserID:            user,
		Name:              name,
		Frequency:         Daily,
		TargetDaysPerWeek: 7,
		StartDate:         now,
		IsActive:          true,
		CreatedAt:         now,
	}, nil
}

func (h *Habit) Key() uuid.UUID       { return h.ID }
func (h *Habit) TenantKey() uuid.UUID { return h.TenantID }

func (h *Habit) SetTarget(days int) error {
	if days < 1 || days > 7 {
		return ErrBadTargetDays
	}
	h.TargetDaysPerWeek = days
	return nil
}

type Completion struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	HabitID     uuid.UUID `json:"habitId"`
	CompletedOn time.Time `json:"completedOn"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewCompletion(h *Habit, on time.Time) *Completion {
	return &Completion{
		ID:          uuid.New(),
		TenantID:    h.TenantID,
		HabitID:     h.ID,
		CompletedOn: truncateDay(on),
		CreatedAt:   time.Now().UTC(),
	}
}

func (c *Completion) Key() uuid.UUID       { return c.ID }
func (c *Completion) TenantKey() uuid.UUID { return c.TenantID }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
