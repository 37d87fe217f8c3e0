package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pubmarket/internal/lifecycle"
	"pubmarket/internal/models"
	"pubmarket/internal/testutil"
)

type fakeSyncer struct {
	mu    sync.Mutex
	calls int
	err   error
	ran   chan struct{}
}

func (f *fakeSyncer) ReconcileRoles(context.Context) (int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	return 0, f.err
}

func TestRoleReconciler_RunOnce(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success", err: nil, wantErr: false},
		{name: "failure is reported", err: errors.New("store down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{err: tt.err}
			var reported []error
			r := NewRoleReconciler(syncer, "@every 1h", func(err error) { reported = append(reported, err) })

			r.RunOnce(context.Background())

			if syncer.calls != 1 {
				t.Errorf("calls = %d, want 1", syncer.calls)
			}
			if len(reported) != 1 {
				t.Fatalf("onFinish called %d times, want 1", len(reported))
			}
			if (reported[0] != nil) != tt.wantErr {
				t.Errorf("reported error = %v, wantErr %v", reported[0], tt.wantErr)
			}
		})
	}
}

func TestRoleReconciler_RunOnceCancelled(t *testing.T) {
	syncer := &fakeSyncer{}
	r := NewRoleReconciler(syncer, "@every 1h", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.RunOnce(ctx)

	if syncer.calls != 0 {
		t.Errorf("calls = %d, want 0", syncer.calls)
	}
}

func TestRoleReconciler_InvalidSchedule(t *testing.T) {
	r := NewRoleReconciler(&fakeSyncer{}, "every now and then", nil)
	if err := r.Start(context.Background()); err == nil {
		t.Error("Start() expected error for invalid schedule")
	}
}

func TestRoleReconciler_StartRunsImmediately(t *testing.T) {
	syncer := &fakeSyncer{ran: make(chan struct{}, 1)}
	r := NewRoleReconciler(syncer, "@every 1h", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	select {
	case <-syncer.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("reconciler did not run on start")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestRoleReconciler_PromotesOwners(t *testing.T) {
	ctx := context.Background()
	m, store := testutil.MemoryManager(t)

	owner := testutil.CreateUser(t, store, "owner@example.com", models.RoleUser)
	listing := &models.PublisherRequest{UserID: owner.ID, Website: "https://owner.example", Status: models.StatusApproved}
	if err := store.CreateListing(ctx, listing); err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}

	var _ RoleSyncer = (*lifecycle.Manager)(nil)
	NewRoleReconciler(m, "@every 1h", nil).RunOnce(ctx)

	got, err := store.GetUserByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != models.RolePublisher {
		t.Errorf("role = %q, want %q", got.Role, models.RolePublisher)
	}
}
