package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

type state int

const (
	unchanged state = iota
	added
	modified
	deleted
)

type entry[T any] struct {
	value    T
	state    state
	snapshot []byte
	next     []byte
}

// Set is the collection of one entity kind inside a [Context]. Entities
// returned by a Set are tracked: mutating them and calling
// [Context.SaveChanges] persists the mutation.
type Set[K Key, T Entity[K]] struct {
	kind    string
	uow     *Context
	entries map[K]*entry[T]
	loaded  bool
}

// Kind returns the backend name of the collection.
func (s *Set[K, T]) Kind() string { return s.kind }

// Add tracks e as a new entity.
func (s *Set[K, T]) Add(e T) error {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	if err := s.checkTenant(e); err != nil {
		return err
	}
	k := e.Key()
	if en, ok := s.entries[k]; ok {
		if en.state != deleted {
			return fmt.Errorf("%s %s: %w", s.kind, k, ErrDuplicateKey)
		}
		// removed then re-added in the same unit of work
		en.value = e
		en.state = modified
		return nil
	}
	s.entries[k] = &entry[T]{value: e, state: added}
	return nil
}

// Update attaches e as modified. Entities obtained from the set do not need
// it; their mutations are detected on commit.
func (s *Set[K, T]) Update(e T) error {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	if err := s.checkTenant(e); err != nil {
		return err
	}
	k := e.Key()
	en, ok := s.entries[k]
	if !ok {
		s.entries[k] = &entry[T]{value: e, state: modified}
		return nil
	}
	if en.state == deleted {
		return fmt.Errorf("%s %s: %w", s.kind, k, ErrNotFound)
	}
	en.value = e
	if en.state == unchanged {
		en.state = modified
	}
	return nil
}

// Remove marks the entity with key id for deletion.
func (s *Set[K, T]) Remove(id K) {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	en, ok := s.entries[id]
	if !ok {
		s.entries[id] = &entry[T]{state: deleted}
		return
	}
	if en.state == added {
		delete(s.entries, id)
		return
	}
	en.state = deleted
}

// Find returns the entity with key id.
func (s *Set[K, T]) Find(ctx context.Context, id K) (T, error) {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	var zero T
	if en, ok := s.entries[id]; ok {
		if en.state == deleted {
			return zero, fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
		}
		return en.value, nil
	}
	if s.loaded {
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}

	rec, err := s.uow.backend.Get(ctx, s.kind, s.uow.tenantFilter(), id.String())
	if err != nil {
		return zero, fmt.Errorf("find %s %s: %w", s.kind, id, err)
	}
	v, err := s.decode(rec)
	if err != nil {
		return zero, err
	}
	s.entries[id] = &entry[T]{value: v, snapshot: snapshot(v)}
	return v, nil
}

// All returns the mapping from key to entity for the whole collection, as
// seen by this unit of work: stored rows plus pending additions, minus
// pending removals.
func (s *Set[K, T]) All(ctx context.Context) (map[K]T, error) {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	out := make(map[K]T, len(s.entries))
	for k, en := range s.entries {
		if en.state != deleted {
			out[k] = en.value
		}
	}
	return out, nil
}

// Filter returns the entities matching keep, ordered by key.
func (s *Set[K, T]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]K, 0, len(all))
	for k, v := range all {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = all[k]
	}
	return out, nil
}

// First returns the first entity (by key order) matching keep.
func (s *Set[K, T]) First(ctx context.Context, keep func(T) bool) (T, error) {
	var zero T
	found, err := s.Filter(ctx, keep)
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, fmt.Errorf("%s: %w", s.kind, ErrNotFound)
	}
	return found[0], nil
}

func (s *Set[K, T]) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	recs, err := s.uow.backend.Load(ctx, s.kind, s.uow.tenantFilter())
	if err != nil {
		return fmt.Errorf("load %s: %w", s.kind, err)
	}
	for _, rec := range recs {
		v, err := s.decode(rec)
		if err != nil {
			return err
		}
		k := v.Key()
		if _, tracked := s.entries[k]; tracked {
			continue
		}
		s.entries[k] = &entry[T]{value: v, snapshot: snapshot(v)}
	}
	s.loaded = true
	return nil
}

func (s *Set[K, T]) decode(rec Record) (T, error) {
	var v T
	if err := json.Unmarshal(rec.Body, &v); err != nil {
		return v, fmt.Errorf("decode %s %s: %w", s.kind, rec.ID, err)
	}
	return v, nil
}

// snapshot re-encodes v so that comparisons ignore how the backend
// normalised the stored document.
func snapshot(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (s *Set[K, T]) checkTenant(e T) error {
	if s.uow.tenant == uuid.Nil {
		return nil
	}
	if t, ok := any(e).(Tenanted); ok && t.TenantKey() != s.uow.tenant {
		return fmt.Errorf("%s %s: %w", s.kind, e.Key(), ErrTenantMismatch)
	}
	return nil
}

func (s *Set[K, T]) tenantOf(e T) string {
	if t, ok := any(e).(Tenanted); ok {
		return t.TenantKey().String()
	}
	return s.uow.tenantFilter()
}

func (s *Set[K, T]) pending() ([]Change, error) {
	var out []Change
	for k, en := range s.entries {
		en.next = nil
		if en.state == deleted {
			out = append(out, Change{Op: OpDelete, Record: Record{
				Kind:   s.kind,
				ID:     k.String(),
				Tenant: s.uow.tenantFilter(),
			}})
			continue
		}

		body, err := json.Marshal(en.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", s.kind, k, err)
		}
		op := OpUpdate
		switch en.state {
		case added:
			op = OpInsert
		case unchanged:
			if bytes.Equal(body, en.snapshot) {
				continue
			}
		}
		en.next = body
		out = append(out, Change{Op: op, Record: Record{
			Kind:   s.kind,
			ID:     k.String(),
			Tenant: s.tenantOf(en.value),
			Body:   body,
		}})
	}
	return out, nil
}

func (s *Set[K, T]) accept() {
	for k, en := range s.entries {
		switch {
		case en.state == deleted:
			delete(s.entries, k)
		case en.next != nil:
			en.snapshot = en.next
			en.next = nil
			en.state = unchanged
		}
	}
}
