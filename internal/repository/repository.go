// Package repository is the persistence boundary shared by every tracker
// module.
//
// A module declares its collections as typed [Set] values registered on a
// [Context], the unit of work. Reads go through the sets, mutations are
// tracked in memory, and [Context.SaveChanges] hands the accumulated changes
// to a [Backend] in one atomic batch.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("entity not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrTenantMismatch = errors.New("entity belongs to another tenant")
)

// Key is the identifier type of an entity. It must be usable as a map key and
// render to the string stored by backends.
type Key interface {
	comparable
	String() string
}

// Entity is anything a [Set] can hold.
type Entity[K Key] interface {
	Key() K
}

// Tenanted is implemented by entities partitioned by tenant.
type Tenanted interface {
	TenantKey() uuid.UUID
}

// Op is the kind of write a [Change] carries.
type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Record is the stored form of one entity.
type Record struct {
	Kind   string
	ID     string
	Tenant string
	Body   []byte
}

// Change is a single pending write.
type Change struct {
	Op     Op
	Record Record
}

// Backend is a store able to satisfy the persistence boundary.
//
// Load and Get restrict results to tenant unless it is empty. Apply must be
// atomic: either every change is written or none is. It reports the number
// of affected rows.
type Backend interface {
	Load(ctx context.Context, kind, tenant string) ([]Record, error)
	Get(ctx context.Context, kind, tenant, id string) (Record, error)
	Apply(ctx context.Context, changes []Change) (int, error)
	Close() error
}

// CommitHook is notified after a successful commit.
type CommitHook interface {
	Committed(ctx context.Context, changes []Change)
}

// CommitHookFunc adapts a function to [CommitHook].
type CommitHookFunc func(ctx context.Context, changes []Change)

func (f CommitHookFunc) Committed(ctx context.Context, changes []Change) { f(ctx, changes) }
