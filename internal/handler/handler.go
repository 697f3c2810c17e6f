// Package handler implements the tracker gRPC services on top of the
// repository contexts.
package handler

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/modules/anniversary"
	"tracker-suite/internal/repository"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

type Options struct {
	Backend    repository.Backend
	Tokens     auth.TokenService
	Hasher     auth.PasswordHasher
	Logger     *log.Logger
	Hooks      []repository.CommitHook
	RefreshTTL time.Duration
	Now        func() time.Time
}

type Handler struct {
	backend    repository.Backend
	tokens     auth.TokenService
	hasher     auth.PasswordHasher
	logger     *log.Logger
	hooks      []repository.CommitHook
	refreshTTL time.Duration
	now        func() time.Time
}

func New(o Options) *Handler {
	h := &Handler{
		backend:    o.Backend,
		tokens:     o.Tokens,
		hasher:     o.Hasher,
		logger:     o.Logger,
		hooks:      o.Hooks,
		refreshTTL: o.RefreshTTL,
		now:        o.Now,
	}
	if h.hasher == nil {
		h.hasher = auth.PBKDF2Hasher{}
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	if h.refreshTTL <= 0 {
		h.refreshTTL = defaultRefreshTTL
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *Handler) opts() []repository.Option {
	out := make([]repository.Option, 0, len(h.hooks))
	for _, hk := range h.hooks {
		out = append(out, repository.WithHook(hk))
	}
	return out
}

// identity opens a per-request unit of work. uuid.Nil reads every tenant.
func (h *Handler) identity(tenant uuid.UUID) *identity.Context {
	return identity.New(h.backend, tenant, h.opts()...)
}

func (h *Handler) anniversary(tenant uuid.UUID) *anniversary.Context {
	return anniversary.New(h.backend, tenant, h.opts()...)
}
