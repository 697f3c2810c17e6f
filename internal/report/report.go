// Package report gathers one user's view across every tracker module.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/modules/chores"
	"tracker-suite/internal/modules/golf"
	"tracker-suite/internal/modules/habits"
	"tracker-suite/internal/modules/weeklyreview"
	"tracker-suite/internal/repository"
)

type Report struct {
	UserID      uuid.UUID      `json:"userId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Upcoming    []UpcomingDate `json:"upcoming"`
	Chores      ChoreStatus    `json:"chores"`
	Habits      []HabitStatus  `json:"habits"`
	Golf        GolfStatus     `json:"golf"`
	Week        WeekStatus     `json:"week"`
}

type UpcomingDate struct {
	Person   string    `json:"person"`
	Type     string    `json:"type"`
	On       time.Time `json:"on"`
	DaysAway int       `json:"daysAway"`
}

type ChoreStatus struct {
	Overdue int `json:"overdue"`
	Points  int `json:"points"`
}

type HabitStatus struct {
	Name      string `json:"name"`
	Streak    int    `json:"streak"`
	ThisWeek  int    `json:"thisWeek"`
	TargetMet bool   `json:"targetMet"`
}

type GolfStatus struct {
	Rounds    int  `json:"rounds"`
	BestToPar *int `json:"bestToPar,omitempty"`
}

type WeekStatus struct {
	Start           time.Time `json:"start"`
	Completed       bool      `json:"completed"`
	Accomplishments int       `json:"accomplishments"`
	Challenges      int       `json:"challenges"`
}

// Build reads every module for user in tenant as of now. Nothing is written.
func Build(ctx context.Context, b repository.Backend, tenant, user uuid.UUID, now time.Time, days int) (*Report, error) {
	r := &Report{UserID: user, GeneratedAt: now.UTC()}

	upcoming, err := anniversary.New(b, tenant).UpcomingDates(ctx, user, now, days)
	if err != nil {
		return nil, err
	}
	for _, u := range upcoming {
		r.Upcoming = append(r.Upcoming, UpcomingDate{
			Person:   u.Date.PersonName,
			Type:     u.Date.DateType.String(),
			On:       u.On,
			DaysAway: anniversary.DaysBetween(now, u.On),
		})
	}

	cc := chores.New(b, tenant)
	overdue, err := cc.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, a := range overdue {
		if a.AssigneeID == user {
			r.Chores.Overdue++
		}
	}
	points, err := cc.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	r.Chores.Points = points[user]

	hc := habits.New(b, tenant)
	active, err := hc.Habits.Filter(ctx, func(h *habits.Habit) bool { return h.UserID == user && h.IsActive })
	if err != nil {
		return nil, err
	}
	for _, h := range active {
		streak, err := hc.Streak(ctx, h.ID, now)
		if err != nil {
			return nil, err
		}
		done, met, err := hc.WeekProgress(ctx, h, now)
		if err != nil {
			return nil, err
		}
		r.Habits = append(r.Habits, HabitStatus{Name: h.Name, Streak: streak, ThisWeek: done, TargetMet: met})
	}
	sort.Slice(r.Habits, func(i, j int) bool { return r.Habits[i].Name < r.Habits[j].Name })

	gc := golf.New(b, tenant)
	rounds, err := gc.Rounds.Filter(ctx, func(rd *golf.Round) bool { return rd.UserID == user })
	if err != nil {
		return nil, err
	}
	r.Golf.Rounds = len(rounds)
	for _, rd := range rounds {
		if rd, err = gc.Tally(ctx, rd.ID); err != nil {
			return nil, err
		}
		if rd.TotalScore == 0 {
			continue // not scored yet
		}
		if tp := rd.ToPar(); r.Golf.BestToPar == nil || tp < *r.Golf.BestToPar {
			r.Golf.BestToPar = &tp
		}
	}

	wc := weeklyreview.New(b, tenant)
	review, err := wc.ReviewFor(ctx, user, now)
	if err != nil {
		return nil, err
	}
	sum, err := wc.Summarize(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	r.Week = WeekStatus{
		Start:           review.WeekStartDate,
		Completed:       review.IsCompleted,
		Accomplishments: len(sum.Accomplishments),
		Challenges:      len(sum.Challenges),
	}
	return r, nil
}
