package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type tracker interface {
	pending() ([]Change, error)
	accept()
}

// Context is a unit of work over one backend, optionally scoped to a tenant.
// Contexts are cheap; open one per request.
type Context struct {
	mu      sync.Mutex
	backend Backend
	tenant  uuid.UUID
	sets    []tracker
	kinds   map[string]bool
	hooks   []CommitHook
}

// Option configures a [Context].
type Option func(*Context)

// WithHook registers a hook run after every successful commit.
func WithHook(h CommitHook) Option {
	return func(c *Context) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// New opens a unit of work. uuid.Nil as tenant means unscoped.
func New(b Backend, tenant uuid.UUID, opts ...Option) *Context {
	c := &Context{
		backend: b,
		tenant:  tenant,
		kinds:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tenant returns the tenant the context is scoped to, or uuid.Nil.
func (c *Context) Tenant() uuid.UUID { return c.tenant }

func (c *Context) tenantFilter() string {
	if c.tenant == uuid.Nil {
		return ""
	}
	return c.tenant.String()
}

// Register declares a collection of kind on c. Kind names the collection in
// the backend and must be unique within the context.
func Register[K Key, T Entity[K]](c *Context, kind string) *Set[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kinds[kind] {
		panic(fmt.Sprintf("repository: kind %q registered twice", kind))
	}
	c.kinds[kind] = true
	s := &Set[K, T]{kind: kind, uow: c, entries: make(map[K]*entry[T])}
	c.sets = append(c.sets, s)
	return s
}

// HasChanges reports whether a commit would write anything.
func (c *Context) HasChanges() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changes, err := c.collect()
	return len(changes) > 0, err
}

// SaveChanges commits every pending change of every set and returns the
// number of affected rows. A cancelled ctx fails with ctx.Err() and writes
// nothing.
func (c *Context) SaveChanges(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	changes, err := c.collect()
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	n, err := c.backend.Apply(ctx, changes)
	if err != nil {
		return 0, fmt.Errorf("save changes: %w", err)
	}

	for _, s := range c.sets {
		s.accept()
	}
	for _, h := range c.hooks {
		h.Committed(ctx, changes)
	}
	return n, nil
}

func (c *Context) collect() ([]Change, error) {
	var out []Change
	for _, s := range c.sets {
		changes, err := s.pending()
		if err != nil {
			return nil, err
		}
		out = append(out, changes...)
	}
	// inserts first, deletes last; stable by kind/id otherwise
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		if out[i].Record.Kind != out[j].Record.Kind {
			return out[i].Record.Kind < out[j].Record.Kind
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	return out, nil
}
