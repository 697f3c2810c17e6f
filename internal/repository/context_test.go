package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"tracker-suite/internal/repository"
	"tracker-suite/internal/repository/repotest"
)

func TestMemoryBackendContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Backend {
		return repository.NewMemory()
	})
}

type noteContext struct {
	*repository.Context
	Notes *repository.Set[uuid.UUID, *repotest.Note]
}

func openNotes(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) noteContext {
	c := repository.New(b, tenant, opts...)
	return noteContext{Context: c, Notes: repository.Register[uuid.UUID, *repotest.Note](c, "notes")}
}

func TestRegisterKeepsKind(t *testing.T) {
	uow := openNotes(repository.NewMemory(), uuid.New())
	if got := uow.Notes.Kind(); got != "notes" {
		t.Errorf("got kind %q", got)
	}
}

func TestAddDuplicateInSameContext(t *testing.T) {
	tenant := uuid.New()
	uow := openNotes(repository.NewMemory(), tenant)
	n := repotest.NewNote(tenant, "a")
	if err := uow.Notes.Add(n); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := uow.Notes.Add(n); !errors.Is(err, repository.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestAddWrongTenant(t *testing.T) {
	uow := openNotes(repository.NewMemory(), uuid.New())
	err := uow.Notes.Add(repotest.NewNote(uuid.New(), "foreign"))
	if !errors.Is(err, repository.ErrTenantMismatch) {
		t.Errorf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestAllIncludesPendingAdditionsAndHidesRemovals(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	b := repository.NewMemory()

	stored := repotest.NewNote(tenant, "stored")
	seed := openNotes(b, tenant)
	seed.Notes.Add(stored)
	if _, err := seed.SaveChanges(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	uow := openNotes(b, tenant)
	pending := repotest.NewNote(tenant, "pending")
	uow.Notes.Add(pending)
	uow.Notes.Remove(stored.ID)

	all, err := uow.Notes.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(all))
	}
	if _, ok := all[pending.ID]; !ok {
		t.Error("pending addition missing from All")
	}
}

func TestRemoveThenAddBecomesUpdate(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	b := repository.NewMemory()

	n := repotest.NewNote(tenant, "v1")
	seed := openNotes(b, tenant)
	seed.Notes.Add(n)
	if _, err := seed.SaveChanges(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	uow := openNotes(b, tenant)
	uow.Notes.Remove(n.ID)
	replacement := *n
	replacement.Text = "v2"
	if err := uow.Notes.Add(&replacement); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := openNotes(b, tenant).Notes.Find(ctx, n.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Text != "v2" {
		t.Errorf("expected v2, got %q", got.Text)
	}
}

func TestSaveWithoutChanges(t *testing.T) {
	uow := openNotes(repository.NewMemory(), uuid.New())
	n, err := uow.SaveChanges(context.Background())
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestSaveIsIdempotentAfterCommit(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	uow := openNotes(repository.NewMemory(), tenant)
	uow.Notes.Add(repotest.NewNote(tenant, "once"))

	if n, err := uow.SaveChanges(ctx); err != nil || n != 1 {
		t.Fatalf("first save: (%d, %v)", n, err)
	}
	if n, err := uow.SaveChanges(ctx); err != nil || n != 0 {
		t.Errorf("second save: expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestFailedSaveKeepsChangesPending(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	b := repository.NewMemory()

	existing := repotest.NewNote(tenant, "existing")
	seed := openNotes(b, tenant)
	seed.Notes.Add(existing)
	if _, err := seed.SaveChanges(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	uow := openNotes(b, tenant)
	dup := *existing
	uow.Notes.Add(&dup)
	if _, err := uow.SaveChanges(ctx); !errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	dirty, err := uow.HasChanges()
	if err != nil {
		t.Fatalf("has changes: %v", err)
	}
	if !dirty {
		t.Error("expected changes to remain pending after failed save")
	}
}

func TestCommitHookReceivesChanges(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	var got []repository.Change
	hook := repository.CommitHookFunc(func(_ context.Context, changes []repository.Change) {
		got = append(got, changes...)
	})
	uow := openNotes(repository.NewMemory(), tenant, repository.WithHook(hook))
	n := repotest.NewNote(tenant, "hooked")
	uow.Notes.Add(n)
	if _, err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 change, got %d", len(got))
	}
	if got[0].Op != repository.OpInsert || got[0].Record.ID != n.ID.String() {
		t.Errorf("unexpected change %+v", got[0])
	}
	if got[0].Record.Tenant != tenant.String() {
		t.Errorf("expected tenant %s, got %q", tenant, got[0].Record.Tenant)
	}
}

func TestHookNotCalledOnFailure(t *testing.T) {
	called := false
	hook := repository.CommitHookFunc(func(context.Context, []repository.Change) { called = true })
	uow := openNotes(repository.NewMemory(), uuid.New(), repository.WithHook(hook))
	uow.Notes.Remove(uuid.New())

	if _, err := uow.SaveChanges(context.Background()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Error("hook called for failed commit")
	}
}

func TestFilterOrderAndFirst(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	uow := openNotes(repository.NewMemory(), tenant)
	for _, text := range []string{"a", "b", "c", "d"} {
		uow.Notes.Add(repotest.NewNote(tenant, text))
	}

	found, err := uow.Notes.Filter(ctx, func(n *repotest.Note) bool { return n.Text != "c" })
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3, got %d", len(found))
	}
	for i := 1; i < len(found); i++ {
		if found[i-1].ID.String() > found[i].ID.String() {
			t.Errorf("results not ordered by key at %d", i)
		}
	}

	if _, err := uow.Notes.First(ctx, func(n *repotest.Note) bool { return n.Text == "z" }); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c := repository.New(repository.NewMemory(), uuid.Nil)
	repository.Register[uuid.UUID, *repotest.Note](c, "notes")
	repository.Register[uuid.UUID, *repotest.Note](c, "notes")
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   repository.Op
		want string
	}{
		{repository.OpInsert, "insert"},
		{repository.OpUpdate, "update"},
		{repository.OpDelete, "delete"},
		{repository.Op(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
