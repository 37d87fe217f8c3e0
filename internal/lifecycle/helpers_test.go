package lifecycle_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pubmarket/internal/auth"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/memstore"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []string
	promotions  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{promotions: make(map[string]int)}
}

func (o *recordingObserver) StatusChanged(from, to models.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, string(from)+"->"+string(to))
}

func (o *recordingObserver) OwnerPromoted(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.promotions[source]++
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	m        *lifecycle.Manager
	clock    *clock
	observer *recordingObserver
	admin    *models.User
	owner    *models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWithStore(t, memstore.New(), nil)
}

// setupWithStore builds a manager over store, which may wrap mem. Users are
// created in mem directly.
func setupWithStore(t *testing.T, mem *memstore.Store, store lifecycle.Store) *fixture {
	t.Helper()
	if store == nil {
		store = mem
	}

	c := newClock()
	obs := newRecordingObserver()
	engine := scoring.NewEngine(nil).WithClock(c.Now)
	f := &fixture{
		ctx:      context.Background(),
		store:    mem,
		clock:    c,
		observer: obs,
		m:        lifecycle.NewManager(store, engine, lifecycle.WithClock(c.Now), lifecycle.WithObserver(obs)),
	}
	f.admin = f.createUser(t, "admin@example.com", models.RoleAdmin)
	f.owner = f.createUser(t, "jane@example.com", models.RoleUser)
	return f
}

func (f *fixture) createUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{FullName: "Test " + string(role), Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) role(t *testing.T, id uuid.UUID) models.Role {
	t.Helper()
	u, err := f.store.GetUserByID(f.ctx, id)
	require.NoError(t, err)
	return u.Role
}

func (f *fixture) listing(t *testing.T, id uuid.UUID) *models.PublisherRequest {
	t.Helper()
	r, err := f.store.GetListing(f.ctx, id)
	require.NoError(t, err)
	return r
}

func (f *fixture) submit(t *testing.T, user *models.User, in models.ListingInput) *models.PublisherRequest {
	t.Helper()
	r, err := f.m.Submit(f.ctx, user, in)
	require.NoError(t, err)
	return r
}

// moveTo drives a fresh listing into the given status through the admin path.
func (f *fixture) moveTo(t *testing.T, id uuid.UUID, status models.Status) {
	t.Helper()
	in := models.ReviewInput{}
	if status == models.StatusRejected {
		in.RejectionReason = "not a fit"
	}
	_, err := f.m.SetStatus(f.ctx, f.admin, id, status, in)
	require.NoError(t, err)
}

func validInput() models.ListingInput {
	return models.ListingInput{
		FullName:          "Jane Doe",
		Email:             "jane@example.com",
		CompanyName:       "Example Media",
		Website:           "https://example.com",
		Category:          "Technology",
		StandardPostPrice: 50,
	}
}

func ptr[T any](v T) *T { return &v }
