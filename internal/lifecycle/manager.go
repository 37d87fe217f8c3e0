// Package lifecycle implements the publisher request workflow: submission,
// owner edits, admin review with role promotion, and the query layer over
// listings. Every mutation reads fresh state, checks its guards and writes
// conditionally on the version it read.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/db"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
)

// Config holds tunables for the manager.
type Config struct {
	// High-performing listing thresholds.
	HighPerformingMinTrust   int
	HighPerformingMinTraffic int64

	DefaultLimit int
	MaxLimit     int

	// MaxWriteAttempts bounds the re-read and re-check loop on version conflicts.
	MaxWriteAttempts int
}

// DefaultConfig returns the standard marketplace settings.
func DefaultConfig() Config {
	return Config{
		HighPerformingMinTrust:   70,
		HighPerformingMinTraffic: 10000,
		DefaultLimit:             10,
		MaxLimit:                 100,
		MaxWriteAttempts:         3,
	}
}

// Observer is notified after state changes are committed.
type Observer interface {
	StatusChanged(from, to models.Status)
	OwnerPromoted(source string)
}

// Promotion sources reported to the Observer.
const (
	PromotedOnApproval   = "approval"
	PromotedByReconciler = "reconciler"
)

type nopObserver struct{}

func (nopObserver) StatusChanged(models.Status, models.Status) {}
func (nopObserver) OwnerPromoted(string)                      {}

// Manager is the request lifecycle manager.
type Manager struct {
	store    Store
	scorer   *scoring.Engine
	cfg      Config
	observer Observer
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithObserver registers an observer for committed transitions.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock sets the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager over the given store. A nil scorer uses the
// heuristic scoring engine.
func NewManager(store Store, scorer *scoring.Engine, opts ...Option) *Manager {
	if scorer == nil {
		scorer = scoring.NewEngine(nil)
	}
	m := &Manager{
		store:    store,
		scorer:   scorer,
		cfg:      DefaultConfig(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.MaxWriteAttempts < 1 {
		m.cfg.MaxWriteAttempts = 1
	}
	if m.cfg.DefaultLimit < 1 {
		m.cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if m.cfg.MaxLimit < m.cfg.DefaultLimit {
		m.cfg.MaxLimit = m.cfg.DefaultLimit
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

func (m *Manager) timestamp() time.Time {
	return m.now().UTC()
}

// mutate runs a read, check, conditional-write cycle on one listing. apply
// receives a fresh copy and either mutates it and returns nil, or returns an
// error that aborts. write persists the copy conditionally on the version
// read. A version conflict starts over with a fresh read.
func (m *Manager) mutate(
	ctx context.Context,
	id uuid.UUID,
	apply func(r *models.PublisherRequest) error,
	write func(r *models.PublisherRequest, expected int64) error,
) (*models.PublisherRequest, error) {
	var lastErr error
	for attempt := 0; attempt < m.cfg.MaxWriteAttempts; attempt++ {
		current, err := m.store.GetListing(ctx, id)
		if err != nil {
			return nil, m.storeErr("load publisher request", err)
		}

		expected := current.Version
		next := current.Clone()
		if err := apply(next); err != nil {
			return nil, err
		}

		err = write(next, expected)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, db.ErrVersionConflict) {
			return nil, m.storeErr("save publisher request", err)
		}
		lastErr = err
		slog.Debug("publisher request changed during write, retrying", "id", id, "attempt", attempt+1)
	}
	return nil, apperr.Infrastructure("save publisher request", lastErr)
}

// storeErr translates store sentinels into classified errors.
func (m *Manager) storeErr(op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, db.ErrListingNotFound):
		return apperr.NotFound("publisher request not found")
	case errors.Is(err, db.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, db.ErrDuplicateEmail):
		return apperr.Conflict("an account with this email already exists", "")
	case errors.Is(err, db.ErrDuplicateActiveListing):
		return apperr.Conflict("an active request already exists for this website", "")
	}
	slog.Error("store operation failed", "op", op, "error", err)
	return apperr.Infrastructure(op, err)
}

func requireAdmin(actor *models.User) error {
	if actor == nil || !actor.HasRole(models.RoleAdmin) {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func requireUser(actor *models.User) error {
	if actor == nil || actor.ID == uuid.Nil {
		return apperr.Forbidden("authentication required")
	}
	return nil
}
