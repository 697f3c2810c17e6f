// Package chores assigns household chores and tracks the points earned for
// doing them.
package chores

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName      = errors.New("chore name cannot be empty")
	ErrNegativePoints = errors.New("points cannot be negative")
	ErrNotCompleted   = errors.New("assignment is not completed")
)

type ChoreFrequency int

const (
	Daily ChoreFrequency = iota
	Weekly
	Biweekly
	Monthly
	AsNeeded
)

func (f ChoreFrequency) String() string {
	switch f {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Biweekly:
		return "Biweekly"
	case Monthly:
		return "Monthly"
	case AsNeeded:
		return "AsNeeded"
	}
	return fmt.Sprintf("ChoreFrequency(%d)", int(f))
}

// Interval is the time between two occurrences, zero for AsNeeded.
func (f ChoreFrequency) Interval() time.Duration {
	switch f {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Biweekly:
		return 14 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

type TaskStatus int

const (
	Pending TaskStatus = iota
	InProgress
	Completed
	Verified
	Skipped
)

func (s TaskStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case InProgress:
		return "InProgress"
	case Completed:
		return "Completed"
	case Verified:
		return "Verified"
	case Skipped:
		return "Skipped"
	}
	return fmt.Sprintf("TaskStatus(%d)", int(s))
}

type Chore struct {
	ID               uuid.UUID      `json:"id"`
	TenantID         uuid.UUID      `json:"tenantId"`
	UserID           uuid.UUID      `json:"userId"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Frequency        ChoreFrequency `json:"frequency"`
	EstimatedMinutes int            `json:"estimatedMinutes"`
	Points           int            `json:"points"`
	Category         string         `json:"category,omitempty"`
	IsActive         bool           `json:"isActive"`
	CreatedAt        time.Time      `json:"createdAt"`
}

func NewChore(tenant, user uuid.UUID, name string, freq ChoreFrequency, points int) (*Chore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if points < 0 {
		return nil, ErrNegativePoints
	}
	return &Chore{
		ID:        uuid.New(),
		TenantID:  tenant,
		UserID:    user,
		Name:      name,
		Frequency: freq,
		Points:    points,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *Chore) Key() uuid.UUID       { return c.ID }
func (c *Chore) TenantKey() uuid.UUID { return c.TenantID }

type Assignment struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenantId"`
	ChoreID      uuid.UUID  `json:"choreId"`
	AssigneeID   uuid.UUID  `json:"assigneeId"`
	AssignedDate time.Time  `json:"assignedDate"`
	DueDate      time.Time  `json:"dueDate"`
	Status       TaskStatus `json:"status"`
	PointsEarned int        `json:"pointsEarned"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Assign creates an assignment of c to assignee due one interval after on.
// AsNeeded chores are due the same day.
func Assign(c *Chore, assignee uuid.UUID, on time.Time) *Assignment {
	on = on.UTC()
	due := on.Add(c.Frequency.Interval())
	if due.Equal(on) {
		due = on.Add(24 * time.Hour)
	}
	return &Assignment{
		ID:           uuid.New(),
		TenantID:     c.TenantID,
		ChoreID:      c.ID,
		AssigneeID:   assignee,
		AssignedDate: on,
		DueDate:      due,
		Status:       Pending,
		CreatedAt:    time.Now().UTC(),
	}
}

func (a *Assignment) Key() uuid.UUID       { return a.ID }
func (a *Assignment) TenantKey() uuid.UUID { return a.TenantID }

func (a *Assignment) Complete(at time.Time) {
	at = at.UTC()
	a.CompletedAt = &at
	a.Status = Completed
}

// Verify confirms a completed assignment and awards points.
func (a *Assignment) Verify(points int) error {
	if a.Status != Completed {
		return ErrNotCompleted
	}
	a.Status = Verified
	a.PointsEarned = points
	return nil
}

func (a *Assignment) Overdue(now time.Time) bool {
	open := a.Status == Pending || a.Status == InProgress
	return open && now.After(a.DueDate)
}
