package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is a process-local [Backend]. It is used by tests and by the
// server when DB_DRIVER=memory.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]map[string]Record
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]map[string]Record)}
}

func (m *Memory) Load(ctx context.Context, kind, tenant string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.rows[kind]))
	for _, r := range m.rows[kind] {
		if tenant != "" && r.Tenant != tenant {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Get(ctx context.Context, kind, tenant, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[kind][id]
	if !ok || (tenant != "" && r.Tenant != tenant) {
		return Record{}, ErrNotFound
	}
	return clone(r), nil
}

// Apply validates the whole batch against the current rows before writing
// any of it.
func (m *Memory) Apply(ctx context.Context, changes []Change) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	type slot struct{ kind, id string }
	staged := make(map[slot]*Record)
	lookup := func(kind, id string) (Record, bool) {
		if r, ok := staged[slot{kind, id}]; ok {
			if r == nil {
				return Record{}, false
			}
			return *r, true
		}
		r, ok := m.rows[kind][id]
		return r, ok
	}

	for _, c := range changes {
		rec := c.Record
		cur, exists := lookup(rec.Kind, rec.ID)
		switch c.Op {
		case OpInsert:
			if exists {
				return 0, fmt.Errorf("%s %s: %w", rec.Kind, rec.ID, ErrDuplicateKey)
			}
			r := clone(rec)
			staged[slot{rec.Kind, rec.ID}] = &r
		case OpUpdate:
			if !exists || (rec.Tenant != "" && cur.Tenant != rec.Tenant) {
				return 0, fmt.Errorf("%s %s: %w", rec.Kind, rec.ID, ErrNotFound)
			}
			r := clone(rec)
			r.Tenant = cur.Tenant
			staged[slot{rec.Kind, rec.ID}] = &r
		case OpDelete:
			if !exists || (rec.Tenant != "" && cur.Tenant != rec.Tenant) {
				return 0, fmt.Errorf("%s %s: %w", rec.Kind, rec.ID, ErrNotFound)
			}
			staged[slot{rec.Kind, rec.ID}] = nil
		default:
			return 0, fmt.Errorf("unknown op %d", c.Op)
		}
	}

	for s, r := range staged {
		if r == nil {
			delete(m.rows[s.kind], s.id)
			continue
		}
		if m.rows[s.kind] == nil {
			m.rows[s.kind] = make(map[string]Record)
		}
		m.rows[s.kind][s.id] = *r
	}
	return len(changes), nil
}

func (m *Memory) Close() error { return nil }

func clone(r Record) Record {
	r.Body = append([]byte(nil), r.Body...)
	return r
}
