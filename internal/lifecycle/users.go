package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/models"
)

// ListUsers returns one page of accounts for an admin.
func (m *Manager) ListUsers(ctx context.Context, admin *models.User, f models.UserFilter, page int) (models.Page[models.User], error) {
	if err := requireAdmin(admin); err != nil {
		return models.Page[models.User]{}, err
	}
	if f.Role != "" && !f.Role.Valid() {
		return models.Page[models.User]{}, apperr.Invalid("role", "unknown role")
	}

	page, f.Limit = m.pagination(page, f.Limit)
	f.Offset = (page - 1) * f.Limit
	f.Search = strings.TrimSpace(f.Search)

	users, total, err := m.store.ListUsers(ctx, f)
	if err != nil {
		return models.Page[models.User]{}, m.storeErr("list users", err)
	}
	return models.NewPage(users, total, page, f.Limit), nil
}

// UserByID loads an account.
func (m *Manager) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := m.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, m.storeErr("load user", err)
	}
	return u, nil
}

// SetUserRole changes another user's role.
func (m *Manager) SetUserRole(ctx context.Context, admin *models.User, id uuid.UUID, role models.Role) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Invalid("role", "unknown role: "+string(role))
	}
	if id == admin.ID {
		return nil, apperr.Forbidden("you cannot change your own role")
	}

	if err := m.store.UpdateUserRole(ctx, id, role); err != nil {
		return nil, m.storeErr("update user role", err)
	}
	slog.Info("user role changed", "user_id", id, "role", role, "admin_id", admin.ID)
	return m.UserByID(ctx, id)
}

// DeleteUser removes another user and all their listings. It returns the
// number of listings removed.
func (m *Manager) DeleteUser(ctx context.Context, admin *models.User, id uuid.UUID) (int, error) {
	if err := requireAdmin(admin); err != nil {
		return 0, err
	}
	if id == admin.ID {
		return 0, apperr.Forbidden("you cannot delete your own account")
	}

	removed, err := m.store.DeleteUser(ctx, id)
	if err != nil {
		return 0, m.storeErr("delete user", err)
	}
	slog.Info("user deleted", "user_id", id, "listings_removed", removed, "admin_id", admin.ID)
	return removed, nil
}

// ReconcileRoles promotes owners of approved listings whose role is still
// below publisher, e.g. after a promotion write was lost or an admin
// lowered a role. It returns the number of users promoted.
func (m *Manager) ReconcileRoles(ctx context.Context) (int, error) {
	ids, err := m.store.ListUnpromotedOwners(ctx)
	if err != nil {
		return 0, m.storeErr("list unpromoted owners", err)
	}

	promoted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return promoted, apperr.Infrastructure("reconcile roles", err)
		}
		ok, err := m.store.PromoteUser(ctx, id)
		if err != nil {
			slog.Error("failed to promote owner", "user_id", id, "error", err)
			continue
		}
		if ok {
			promoted++
			m.observer.OwnerPromoted(PromotedByReconciler)
			slog.Info("owner promoted to publisher by reconciler", "user_id", id)
		}
	}
	return promoted, nil
}
