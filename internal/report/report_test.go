package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/modules/chores"
	"tracker-suite/internal/modules/golf"
	"tracker-suite/internal/modules/habits"
	"tracker-suite/internal/modules/weeklyreview"
	"tracker-suite/internal/repository"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func save(t *testing.T, c interface {
	SaveChanges(context.Context) (int, error)
}) {
	t.Helper()
	if _, err := c.SaveChanges(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	b := repository.NewMemory()
	tenant, user, other := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	ac := anniversary.New(b, tenant)
	d, err := anniversary.NewImportantDate(tenant, user, "Mum", anniversary.Birthday, day(1960, 3, 10), anniversary.Annual)
	must(t, err)
	must(t, ac.ImportantDates.Add(d))
	save(t, ac)

	cc := chores.New(b, tenant)
	chore, err := chores.NewChore(tenant, other, "Dishes", chores.Daily, 5)
	must(t, err)
	must(t, cc.Chores.Add(chore))
	must(t, cc.Assignments.Add(chores.Assign(chore, user, day(2024, 3, 1))))
	done := chores.Assign(chore, user, day(2024, 3, 2))
	done.Complete(day(2024, 3, 2))
	must(t, done.Verify(5))
	must(t, cc.Assignments.Add(done))
	must(t, cc.Assignments.Add(chores.Assign(chore, other, day(2024, 3, 1))))
	save(t, cc)

	hc := habits.New(b, tenant)
	h, err := habits.NewHabit(tenant, user, "Read")
	must(t, err)
	must(t, hc.Habits.Add(h))
	for _, on := range []time.Time{day(2024, 3, 4), day(2024, 3, 5), day(2024, 3, 6)} {
		must(t, hc.Completions.Add(habits.NewCompletion(h, on)))
	}
	save(t, hc)

	gc := golf.New(b, tenant)
	course, err := golf.NewCourse(tenant, "Links", 18, 72, decimal.NewFromFloat(71.5), 130)
	must(t, err)
	must(t, gc.Courses.Add(course))
	round := golf.NewRound(course, user, day(2024, 3, 3))
	must(t, gc.Rounds.Add(round))
	for _, s := range [][3]int{{1, 4, 5}, {2, 3, 3}} {
		hs, err := golf.NewHoleScore(round, s[0], s[1], s[2], 2)
		must(t, err)
		must(t, gc.HoleScores.Add(hs))
	}
	save(t, gc)

	wc := weeklyreview.New(b, tenant)
	review, err := wc.ReviewFor(ctx, user, now)
	must(t, err)
	a, err := weeklyreview.NewAccomplishment(review, "Shipped", 8)
	must(t, err)
	must(t, wc.Accomplishments.Add(a))
	ch, err := weeklyreview.NewChallenge(review, "Sleep")
	must(t, err)
	must(t, wc.Challenges.Add(ch))
	save(t, wc)

	r, err := Build(ctx, b, tenant, user, now, 30)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(r.Upcoming) != 1 || r.Upcoming[0].Person != "Mum" || r.Upcoming[0].DaysAway != 4 {
		t.Errorf("upcoming %+v", r.Upcoming)
	}
	if r.Chores.Overdue != 1 || r.Chores.Points != 5 {
		t.Errorf("chores %+v", r.Chores)
	}
	if len(r.Habits) != 1 || r.Habits[0].Streak != 3 || r.Habits[0].ThisWeek != 3 || r.Habits[0].TargetMet {
		t.Errorf("habits %+v", r.Habits)
	}
	if r.Golf.Rounds != 1 || r.Golf.BestToPar == nil || *r.Golf.BestToPar != 1 {
		t.Errorf("golf %+v", r.Golf)
	}
	if !r.Week.Start.Equal(day(2024, 3, 4)) || r.Week.Accomplishments != 1 || r.Week.Challenges != 1 {
		t.Errorf("week %+v", r.Week)
	}
}

func TestBuildEmpty(t *testing.T) {
	r, err := Build(context.Background(), repository.NewMemory(), uuid.New(), uuid.New(), time.Now(), 30)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(r.Upcoming) != 0 || r.Golf.BestToPar != nil || r.Week.Completed {
		t.Errorf("expected empty report, got %+v", r)
	}
}
