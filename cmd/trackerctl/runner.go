package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/config"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/modules/golf"
	"tracker-suite/internal/modules/habits"
	"tracker-suite/internal/report"
	"tracker-suite/internal/repository"
	"tracker-suite/internal/store"
)

var ErrMissingArgument = errors.New("missing argument")

// Runner holds the dependencies of every command.
type Runner struct {
	cfg    config.Config
	logger *log.Logger
	output io.Writer
	open   func(ctx context.Context) (repository.Backend, error)
	now    func() time.Time
}

type RunnerOpts struct {
	Config config.Config
	Logger *log.Logger
	Output io.Writer
	// Open overrides how the backend is opened. Defaults to store.Open with
	// the configured driver.
	Open func(ctx context.Context) (repository.Backend, error)
	Now  func() time.Time
}

func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{cfg: opts.Config, logger: opts.Logger, output: opts.Output, open: opts.Open, now: opts.Now}
	if r.logger == nil {
		r.logger = log.Default()
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.open == nil {
		r.open = func(ctx context.Context) (repository.Backend, error) {
			return store.Open(ctx, r.cfg.DBDriver, r.cfg.DatabaseURL, r.cfg.SQLitePath)
		}
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		migrateCommand(r), seedCommand(r), hashPasswordCommand(r), issueTokenCommand(r),
		remindersCommand(r), reportCommand(r),
	}
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Runner) hasher(cmd *cli.Command) (auth.PasswordHasher, error) {
	name := cmd.String("hasher")
	if name == "" {
		name = r.cfg.PasswordHasher
	}
	return auth.NewPasswordHasher(name)
}

func (r *Runner) Migrate(ctx context.Context, _ *cli.Command) error {
	b, err := r.open(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer b.Close()
	r.logger.Info("migrations applied", "driver", r.cfg.DBDriver)
	return nil
}

// Seed creates the default roles and admin user, then fills the anniversary,
// golf and habit trackers with sample data owned by the admin unless
// --no-samples is set.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	hasher, err := r.hasher(cmd)
	if err != nil {
		return err
	}
	b, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	tenant := identity.DefaultTenantID
	idc := identity.New(b, tenant)
	if err := identity.Seed(ctx, idc, hasher, r.cfg.AdminPassword, r.logger); err != nil {
		return err
	}
	if cmd.Bool("no-samples") {
		return nil
	}
	admin, err := idc.UserByName(ctx, identity.AdminUserName)
	if err != nil {
		return fmt.Errorf("seed samples: %w", err)
	}
	now := r.now()
	if err := anniversary.Seed(ctx, anniversary.New(b, tenant), admin.ID, now, r.logger); err != nil {
		return err
	}
	if err := golf.Seed(ctx, golf.New(b, tenant), admin.ID, now, r.logger); err != nil {
		return err
	}
	return habits.Seed(ctx, habits.New(b, tenant), admin.ID, now, r.logger)
}

func (r *Runner) HashPassword(_ context.Context, cmd *cli.Command) error {
	plain := cmd.Args().First()
	if plain == "" {
		return fmt.Errorf("%w: password", ErrMissingArgument)
	}
	hasher, err := r.hasher(cmd)
	if err != nil {
		return err
	}
	hash, salt, err := hasher.HashPassword(plain)
	if err != nil {
		return err
	}
	return r.writeJSON(map[string]string{
		"hash": hash,
		"salt": base64.StdEncoding.EncodeToString(salt),
	})
}

func (r *Runner) IssueToken(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("user")
	if name == "" {
		return fmt.Errorf("%w: --user", ErrMissingArgument)
	}
	ttl := cmd.Duration("ttl")
	if ttl <= 0 {
		ttl = r.cfg.JWTTTL
	}
	tokens, err := auth.NewJWTService(auth.JWTConfig{
		Secret:   r.cfg.JWTSecret,
		Issuer:   r.cfg.JWTIssuer,
		Audience: r.cfg.JWTAudience,
		TTL:      ttl,
		Now:      r.now,
	})
	if err != nil {
		return err
	}

	b, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	idc := identity.New(b, identity.DefaultTenantID)
	u, err := idc.UserByName(ctx, name)
	if err != nil {
		return fmt.Errorf("user %q: %w", name, err)
	}
	roles, err := idc.RolesOf(ctx, u.ID)
	if err != nil {
		return err
	}
	tok, err := tokens.GenerateToken(ctx, auth.Subject{ID: u.ID, TenantID: u.TenantID, UserName: u.UserName, Email: u.Email}, roles)
	if err != nil {
		return err
	}
	return r.writeJSON(map[string]any{"token": tok, "expiresAt": tokens.TokenExpiration(), "roles": roles})
}

type sentReminder struct {
	ID      uuid.UUID `json:"id"`
	Person  string    `json:"person"`
	Channel string    `json:"channel"`
	Due     time.Time `json:"due"`
}

// Reminders marks every due reminder as sent. Delivery itself is left to
// whatever consumes the change events.
func (r *Runner) Reminders(ctx context.Context, cmd *cli.Command) error {
	b, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	now := r.now()
	ac := anniversary.New(b, uuid.Nil)
	due, err := ac.DueReminders(ctx, now)
	if err != nil {
		return err
	}
	out := make([]sentReminder, 0, len(due))
	for _, rem := range due {
		d, err := ac.ImportantDates.Find(ctx, rem.ImportantDateID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		s := sentReminder{ID: rem.ID, Channel: rem.DeliveryChannel.String(), Due: rem.ScheduledTime}
		if d != nil {
			s.Person = d.PersonName
		}
		out = append(out, s)
		if cmd.Bool("dry-run") {
			continue
		}
		rem.MarkSent(now)
		if next, ok := rem.FollowUp(d, now); ok {
			if err := ac.Reminders.Add(next); err != nil {
				return err
			}
		}
	}
	n, err := ac.SaveChanges(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("reminders processed", "due", len(due), "written", n)
	return r.writeJSON(out)
}

func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("user")
	if name == "" {
		return fmt.Errorf("%w: --user", ErrMissingArgument)
	}
	b, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	u, err := identity.New(b, identity.DefaultTenantID).UserByName(ctx, name)
	if err != nil {
		return fmt.Errorf("user %q: %w", name, err)
	}
	days := int(cmd.Duration("window").Hours() / 24)
	if days <= 0 {
		days = 30
	}
	rep, err := report.Build(ctx, b, u.TenantID, u.ID, r.now(), days)
	if err != nil {
		return err
	}
	return r.writeJSON(rep)
}
