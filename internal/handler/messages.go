package handler

import (
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/modules/anniversary"
)

type Empty struct{}

type LoginRequest struct {
	// Login is a user name or an email address.
	Login    string    `json:"login"`
	Password string    `json:"password"`
	TenantID uuid.UUID `json:"tenantId,omitempty"`
}

type LoginResult struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
	RefreshToken string    `json:"refreshToken"`
	UserID       uuid.UUID `json:"userId"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
}

type RegisterRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest revokes one refresh token, or all of the caller's when
// RefreshToken is empty.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type DeleteRoleRequest struct {
	ID uuid.UUID `json:"id"`
}

type RoleInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ListRolesResponse struct {
	Roles []RoleInfo `json:"roles"`
}

type RoleMembershipRequest struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"userName"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
}

type ListUsersResponse struct {
	Users []UserInfo `json:"users"`
}

type CreateImportantDateRequest struct {
	PersonName        string                        `json:"personName"`
	DateType          anniversary.DateType          `json:"dateType"`
	DateValue         time.Time                     `json:"dateValue"`
	RecurrencePattern anniversary.RecurrencePattern `json:"recurrencePattern"`
	Relationship      string                        `json:"relationship,omitempty"`
	Notes             string                        `json:"notes,omitempty"`
	// RemindDaysBefore schedules an email reminder when positive.
	RemindDaysBefore int `json:"remindDaysBefore,omitempty"`
}

type ImportantDateRequest struct {
	ID uuid.UUID `json:"id"`
}

type ImportantDateResponse struct {
	Date     *anniversary.ImportantDate `json:"date"`
	Reminder *anniversary.Reminder      `json:"reminder,omitempty"`
}

type ListImportantDatesRequest struct {
	IncludeInactive bool `json:"includeInactive,omitempty"`
}

type ListImportantDatesResponse struct {
	Dates []*anniversary.ImportantDate `json:"dates"`
}

type UpcomingDatesRequest struct {
	// Days defaults to 30.
	Days int `json:"days,omitempty"`
}

type UpcomingDate struct {
	Date     *anniversary.ImportantDate `json:"date"`
	On       time.Time                  `json:"on"`
	DaysAway int                        `json:"daysAway"`
}

type UpcomingDatesResponse struct {
	Dates []UpcomingDate `json:"dates"`
}
