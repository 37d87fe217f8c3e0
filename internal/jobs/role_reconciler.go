package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single reconciliation pass.
const runTimeout = 2 * time.Minute

// RoleSyncer promotes owners of approved listings that are still below the
// publisher role.
type RoleSyncer interface {
	ReconcileRoles(ctx context.Context) (int, error)
}

// RoleReconciler runs the role sync on a cron schedule.
type RoleReconciler struct {
	roles    RoleSyncer
	schedule string
	onFinish func(err error)
}

// NewRoleReconciler creates a reconciler. onFinish, if set, is called after
// every pass with its error.
func NewRoleReconciler(roles RoleSyncer, schedule string, onFinish func(err error)) *RoleReconciler {
	return &RoleReconciler{
		roles:    roles,
		schedule: schedule,
		onFinish: onFinish,
	}
}

// Start runs one pass immediately, then on every tick of the schedule until
// ctx is cancelled. It returns an error only for an invalid schedule.
func (r *RoleReconciler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}

	log.Printf("Role reconciler started (schedule: %s)", r.schedule)

	// Run immediately on start
	r.RunOnce(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	log.Println("Role reconciler stopped")
	return nil
}

// RunOnce performs a single reconciliation pass.
func (r *RoleReconciler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	promoted, err := r.roles.ReconcileRoles(runCtx)
	if err != nil {
		log.Printf("Role reconciler: pass failed after %d promotions: %v", promoted, err)
	} else if promoted > 0 {
		log.Printf("Role reconciler: promoted %d owners to publisher", promoted)
	}

	if r.onFinish != nil {
		r.onFinish(err)
	}
}
