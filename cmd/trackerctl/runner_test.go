package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/config"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/logging"
	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/repository"
)

var testNow = time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

func newTestRunner(b repository.Backend) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config: config.Config{
			DBDriver:       "memory",
			JWTSecret:      "cli-test-secret",
			JWTIssuer:      "tracker-suite",
			JWTTTL:         time.Hour,
			PasswordHasher: "pbkdf2",
			AdminPassword:  "Admin123!",
		},
		Logger: logging.Discard(),
		Output: out,
		Open:   func(context.Context) (repository.Backend, error) { return b, nil },
		Now:    func() time.Time { return testNow },
	})
	return r, out
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "trackerctl", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"trackerctl"}, args...))
}

func TestHashPassword(t *testing.T) {
	r, out := newTestRunner(repository.NewMemory())
	if err := run(r, "hash-password", "s3cret-pass"); err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	salt, err := base64.StdEncoding.DecodeString(got["salt"])
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	if !(auth.PBKDF2Hasher{}).VerifyPassword("s3cret-pass", got["hash"], salt) {
		t.Error("printed hash does not verify")
	}

	if err := run(r, "hash-password"); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if err := run(r, "hash-password", "--hasher", "md5", "x"); err == nil {
		t.Error("expected unknown hasher error")
	}
}

func TestSeedAndIssueToken(t *testing.T) {
	b := repository.NewMemory()
	r, out := newTestRunner(b)
	if err := run(r, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := run(r, "issue-token", "--user", identity.AdminUserName); err != nil {
		t.Fatalf("issue-token: %v", err)
	}
	var got struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		Roles     []string  `json:"roles"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("expires %s", got.ExpiresAt)
	}

	parser, err := auth.NewJWTService(auth.JWTConfig{Secret: "cli-test-secret", Issuer: "tracker-suite", Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	claims, err := parser.ParseToken(got.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Name != identity.AdminUserName || !claims.HasRole(identity.RoleAdmin) {
		t.Errorf("unexpected claims %+v", claims)
	}

	if err := run(r, "issue-token", "--user", "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := run(r, "issue-token"); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestReminders(t *testing.T) {
	ctx := context.Background()
	b := repository.NewMemory()
	tenant := identity.DefaultTenantID

	ac := anniversary.New(b, tenant)
	d, err := anniversary.NewImportantDate(tenant, tenant, "Mum", anniversary.Birthday, time.Date(1960, 3, 10, 0, 0, 0, 0, time.UTC), anniversary.Annual)
	if err != nil {
		t.Fatal(err)
	}
	rem, ok := anniversary.NewReminder(d, 3, anniversary.Email, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("no reminder")
	}
	ac.ImportantDates.Add(d)
	ac.Reminders.Add(rem)
	if _, err := ac.SaveChanges(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	status := func() anniversary.ReminderStatus {
		got, err := anniversary.New(b, tenant).Reminders.Find(ctx, rem.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		return got.Status
	}

	r, out := newTestRunner(b)
	if err := run(r, "reminders", "--dry-run"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if status() != anniversary.ReminderScheduled {
		t.Error("dry run changed the reminder")
	}
	var listed []sentReminder
	if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].Person != "Mum" {
		t.Errorf("unexpected listing %+v", listed)
	}

	if err := run(r, "reminders"); err != nil {
		t.Fatalf("reminders: %v", err)
	}
	if status() != anniversary.ReminderSent {
		t.Error("reminder not marked sent")
	}

	scheduled, err := anniversary.New(b, tenant).Reminders.Filter(ctx, func(x *anniversary.Reminder) bool {
		return x.Status == anniversary.ReminderScheduled
	})
	if err != nil {
		t.Fatalf("reminders: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected next year's reminder, got %d scheduled", len(scheduled))
	}
	next := scheduled[0]
	if want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC); !next.ScheduledTime.Equal(want) {
		t.Errorf("follow-up at %v, want %v", next.ScheduledTime, want)
	}
	if next.AdvanceNoticeDays != 3 || next.DeliveryChannel != anniversary.Email {
		t.Errorf("follow-up lost its settings: %+v", next)
	}
}

func TestSeedSamples(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		args      []string
		wantDates int
	}{
		{"with samples", []string{"seed"}, 5},
		{"without samples", []string{"seed", "--no-samples"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := repository.NewMemory()
			r, _ := newTestRunner(b)
			// twice: seeding is idempotent
			for i := 0; i < 2; i++ {
				if err := run(r, tt.args...); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			admin, err := identity.New(b, identity.DefaultTenantID).UserByName(ctx, identity.AdminUserName)
			if err != nil {
				t.Fatalf("admin: %v", err)
			}
			dates, err := anniversary.New(b, identity.DefaultTenantID).ImportantDates.Filter(ctx, func(d *anniversary.ImportantDate) bool {
				return d.UserID == admin.ID
			})
			if err != nil {
				t.Fatalf("dates: %v", err)
			}
			if len(dates) != tt.wantDates {
				t.Errorf("expected %d dates, got %d", tt.wantDates, len(dates))
			}
		})
	}
}

func TestReport(t *testing.T) {
	b := repository.NewMemory()
	r, out := newTestRunner(b)
	if err := run(r, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out.Reset()
	if err := run(r, "report", "--user", identity.AdminUserName); err != nil {
		t.Fatalf("report: %v", err)
	}
	var got struct {
		UserID string `json:"userId"`
		Week   struct {
			Start time.Time `json:"start"`
		} `json:"week"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID == "" || !got.Week.Start.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected report %+v", got)
	}
}
