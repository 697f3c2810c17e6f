package handler

import (
	"context"
	"errors"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tracker-suite/internal/middleware"
	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/repository"
)

const (
	defaultUpcomingDays = 30
	maxUpcomingDays     = 366
)

func principal(ctx context.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return p, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return p, nil
}

func (h *Handler) CreateImportantDate(ctx context.Context, req *CreateImportantDateRequest) (*ImportantDateResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.DateValue.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "date required")
	}
	if req.RemindDaysBefore < 0 || req.RemindDaysBefore > maxUpcomingDays {
		return nil, status.Error(codes.InvalidArgument, "reminder days out of range")
	}
	d, err := anniversary.NewImportantDate(p.TenantID, p.UserID, req.PersonName, req.DateType, req.DateValue, req.RecurrencePattern)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	d.Relationship = strings.TrimSpace(req.Relationship)
	d.Notes = strings.TrimSpace(req.Notes)

	ac := h.anniversary(p.TenantID)
	if err := ac.ImportantDates.Add(d); err != nil {
		return nil, h.toStatus("create date", err)
	}
	resp := &ImportantDateResponse{Date: d}
	if req.RemindDaysBefore > 0 {
		// a one-time date already past gets no reminder
		if r, ok := anniversary.NewReminder(d, req.RemindDaysBefore, anniversary.Email, h.now()); ok {
			if err := ac.Reminders.Add(r); err != nil {
				return nil, h.toStatus("create date: reminder", err)
			}
			resp.Reminder = r
		}
	}
	if _, err := ac.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("create date", err)
	}
	return resp, nil
}

func (h *Handler) ListImportantDates(ctx context.Context, req *ListImportantDatesRequest) (*ListImportantDatesResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := h.anniversary(p.TenantID).ImportantDates.Filter(ctx, func(d *anniversary.ImportantDate) bool {
		return d.UserID == p.UserID && (d.IsActive || req.IncludeInactive)
	})
	if err != nil {
		return nil, h.toStatus("list dates", err)
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].PersonName < dates[j].PersonName })
	return &ListImportantDatesResponse{Dates: dates}, nil
}

func (h *Handler) GetImportantDate(ctx context.Context, req *ImportantDateRequest) (*ImportantDateResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	d, err := h.ownedDate(ctx, h.anniversary(p.TenantID), p, req)
	if err != nil {
		return nil, err
	}
	return &ImportantDateResponse{Date: d}, nil
}

func (h *Handler) DeactivateImportantDate(ctx context.Context, req *ImportantDateRequest) (*ImportantDateResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	ac := h.anniversary(p.TenantID)
	d, err := h.ownedDate(ctx, ac, p, req)
	if err != nil {
		return nil, err
	}
	d.IsActive = false

	// pending reminders go with it
	reminders, err := ac.Reminders.Filter(ctx, func(r *anniversary.Reminder) bool {
		return r.ImportantDateID == d.ID && r.Status == anniversary.ReminderScheduled
	})
	if err != nil {
		return nil, h.toStatus("deactivate date", err)
	}
	for _, r := range reminders {
		r.Status = anniversary.ReminderCancelled
	}
	if _, err := ac.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("deactivate date", err)
	}
	return &ImportantDateResponse{Date: d}, nil
}

// ownedDate hides other users' records behind NotFound.
func (h *Handler) ownedDate(ctx context.Context, ac *anniversary.Context, p middleware.Principal, req *ImportantDateRequest) (*anniversary.ImportantDate, error) {
	d, err := ac.ImportantDates.Find(ctx, req.ID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && d.UserID != p.UserID) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	if err != nil {
		return nil, h.toStatus("get date", err)
	}
	return d, nil
}

func (h *Handler) UpcomingDates(ctx context.Context, req *UpcomingDatesRequest) (*UpcomingDatesResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	days := req.Days
	if days == 0 {
		days = defaultUpcomingDays
	}
	if days < 0 || days > maxUpcomingDays {
		return nil, status.Error(codes.InvalidArgument, "days out of range")
	}

	now := h.now()
	upcoming, err := h.anniversary(p.TenantID).UpcomingDates(ctx, p.UserID, now, days)
	if err != nil {
		return nil, h.toStatus("upcoming dates", err)
	}
	out := make([]UpcomingDate, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, UpcomingDate{Date: u.Date, On: u.On, DaysAway: anniversary.DaysBetween(now, u.On)})
	}
	return &UpcomingDatesResponse{Dates: out}, nil
}
