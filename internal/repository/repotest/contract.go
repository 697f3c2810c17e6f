// Package repotest holds the contract every repository.Backend must satisfy,
// runnable against any implementation.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
)

// Note is a minimal tenanted entity used by the contract.
type Note struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Note) Key() uuid.UUID       { return n.ID }
func (n *Note) TenantKey() uuid.UUID { return n.TenantID }

// NewNote returns a note with a fresh ID.
func NewNote(tenant uuid.UUID, text string) *Note {
	return &Note{ID: uuid.New(), TenantID: tenant, Text: text, CreatedAt: time.Now().UTC()}
}

type notes struct {
	*repository.Context
	Notes *repository.Set[uuid.UUID, *Note]
}

func open(b repository.Backend, tenant uuid.UUID) notes {
	c := repository.New(b, tenant)
	return notes{Context: c, Notes: repository.Register[uuid.UUID, *Note](c, "contract_notes")}
}

// Run exercises backend b. newBackend must return an empty backend.
func Run(t *testing.T, newBackend func(t *testing.T) repository.Backend) {
	t.Helper()
	tenant := uuid.New()

	t.Run("commit and reload", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		uow := open(b, tenant)
		n1, n2 := NewNote(tenant, "one"), NewNote(tenant, "two")
		for _, n := range []*Note{n1, n2} {
			if err := uow.Notes.Add(n); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		affected, err := uow.SaveChanges(ctx)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if affected != 2 {
			t.Errorf("expected 2 affected rows, got %d", affected)
		}

		all, err := open(b, tenant).Notes.All(ctx)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 notes, got %d", len(all))
		}
		for id, n := range all {
			if n.ID != id {
				t.Errorf("key %s maps to note %s", id, n.ID)
			}
		}
		if all[n1.ID].Text != "one" {
			t.Errorf("text: got %q", all[n1.ID].Text)
		}
	})

	t.Run("cancelled commit writes nothing", func(t *testing.T) {
		b := newBackend(t)
		uow := open(b, tenant)
		if err := uow.Notes.Add(NewNote(tenant, "never")); err != nil {
			t.Fatalf("add: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n, err := uow.SaveChanges(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 affected rows, got %d", n)
		}

		all, err := open(b, tenant).Notes.All(context.Background())
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected nothing persisted, got %d", len(all))
		}
	})

	t.Run("mutation detected", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		n := NewNote(tenant, "draft")
		seed := open(b, tenant)
		seed.Notes.Add(n)
		if _, err := seed.SaveChanges(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}

		uow := open(b, tenant)
		got, err := uow.Notes.Find(ctx, n.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if dirty, _ := uow.HasChanges(); dirty {
			t.Fatal("freshly loaded entity reported as changed")
		}
		got.Text = "final"
		affected, err := uow.SaveChanges(ctx)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if affected != 1 {
			t.Errorf("expected 1 affected row, got %d", affected)
		}

		again, err := open(b, tenant).Notes.Find(ctx, n.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if again.Text != "final" {
			t.Errorf("expected final, got %q", again.Text)
		}
	})

	t.Run("duplicate insert rejected", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		n := NewNote(tenant, "x")

		first := open(b, tenant)
		first.Notes.Add(n)
		if _, err := first.SaveChanges(ctx); err != nil {
			t.Fatalf("first save: %v", err)
		}

		dup := *n
		second := open(b, tenant)
		second.Notes.Add(&dup)
		_, err := second.SaveChanges(ctx)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("failed batch is atomic", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		existing := NewNote(tenant, "existing")
		seed := open(b, tenant)
		seed.Notes.Add(existing)
		if _, err := seed.SaveChanges(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}

		uow := open(b, tenant)
		fresh := NewNote(tenant, "fresh")
		dup := *existing
		uow.Notes.Add(fresh)
		uow.Notes.Add(&dup)
		if _, err := uow.SaveChanges(ctx); err == nil {
			t.Fatal("expected error")
		}

		if _, err := open(b, tenant).Notes.Find(ctx, fresh.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected fresh note rolled back, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		n := NewNote(tenant, "gone")
		seed := open(b, tenant)
		seed.Notes.Add(n)
		if _, err := seed.SaveChanges(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}

		uow := open(b, tenant)
		uow.Notes.Remove(n.ID)
		if affected, err := uow.SaveChanges(ctx); err != nil || affected != 1 {
			t.Fatalf("remove: affected=%d err=%v", affected, err)
		}
		if _, err := open(b, tenant).Notes.Find(ctx, n.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("tenant isolation", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		other := uuid.New()

		mine := open(b, tenant)
		mine.Notes.Add(NewNote(tenant, "mine"))
		if _, err := mine.SaveChanges(ctx); err != nil {
			t.Fatalf("save: %v", err)
		}
		theirs := open(b, other)
		foreign := NewNote(other, "theirs")
		theirs.Notes.Add(foreign)
		if _, err := theirs.SaveChanges(ctx); err != nil {
			t.Fatalf("save: %v", err)
		}

		all, err := open(b, tenant).Notes.All(ctx)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 note for tenant, got %d", len(all))
		}
		if _, err := open(b, tenant).Notes.Find(ctx, foreign.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected other tenant's note hidden, got %v", err)
		}

		intruder := open(b, tenant)
		intruder.Notes.Remove(foreign.ID)
		if _, err := intruder.SaveChanges(ctx); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected cross-tenant delete to fail, got %v", err)
		}

		unscoped, err := open(b, uuid.Nil).Notes.All(ctx)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(unscoped) != 2 {
			t.Errorf("expected unscoped context to see 2 notes, got %d", len(unscoped))
		}
	})
}
