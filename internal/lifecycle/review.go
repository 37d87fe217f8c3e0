package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/models"
)

// SetStatus overwrites a listing's status as an admin. Approval promotes the
// owner to publisher in the same write. Re-approving an approved listing keeps
// the original approval audit and only refreshes the review stamp.
func (m *Manager) SetStatus(ctx context.Context, admin *models.User, id uuid.UUID, status models.Status, in models.ReviewInput) (*models.PublisherRequest, error) {
	return m.review(ctx, admin, id, status, in, false)
}

// Approve approves a pending listing.
func (m *Manager) Approve(ctx context.Context, admin *models.User, id uuid.UUID, adminNotes string) (*models.PublisherRequest, error) {
	return m.review(ctx, admin, id, models.StatusApproved, models.ReviewInput{AdminNotes: adminNotes}, true)
}

// Reject rejects a pending listing. A reason is required.
func (m *Manager) Reject(ctx context.Context, admin *models.User, id uuid.UUID, in models.ReviewInput) (*models.PublisherRequest, error) {
	return m.review(ctx, admin, id, models.StatusRejected, in, true)
}

func (m *Manager) review(ctx context.Context, admin *models.User, id uuid.UUID, status models.Status, in models.ReviewInput, requirePending bool) (*models.PublisherRequest, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	// Input checks come before any lookup so they hold for every listing state.
	if !status.Valid() {
		return nil, apperr.Invalid("status", "unknown status: "+string(status))
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if status == models.StatusRejected && reason == "" {
		return nil, apperr.Validation([]apperr.FieldError{{Field: "rejection_reason", Problem: apperr.ProblemMissing}})
	}
	notes := strings.TrimSpace(in.AdminNotes)

	var from models.Status
	var promoted bool
	updated, err := m.mutate(ctx, id, func(r *models.PublisherRequest) error {
		from = r.Status
		if requirePending && from != models.StatusPending {
			return apperr.InvalidState("only pending publisher requests can be reviewed", string(from))
		}

		now := m.timestamp()
		reviewer := admin.ID
		r.ReviewedBy = &reviewer
		r.ReviewedAt = &now
		if notes != "" {
			r.AdminNotes = &notes
		}

		if from == models.StatusRejected && status != models.StatusRejected {
			r.RejectionReason = nil
		}
		if from == models.StatusApproved && status != models.StatusApproved {
			r.ApprovedBy = nil
			r.ApprovalDate = nil
		}

		switch status {
		case models.StatusApproved:
			if from != models.StatusApproved || r.ApprovedBy == nil {
				r.ApprovedBy = &reviewer
				r.ApprovalDate = &now
			}
		case models.StatusRejected:
			r.RejectionReason = &reason
		}

		r.Status = status
		return nil
	}, func(r *models.PublisherRequest, expected int64) error {
		var err error
		promoted, err = m.store.SaveReview(ctx, r, expected, status == models.StatusApproved)
		return err
	})
	if err != nil {
		return nil, err
	}

	if from != status {
		m.observer.StatusChanged(from, status)
	}
	if promoted {
		m.observer.OwnerPromoted(PromotedOnApproval)
		slog.Info("owner promoted to publisher", "user_id", updated.UserID, "request_id", id)
	}
	slog.Info("publisher request reviewed", "id", id, "admin_id", admin.ID, "from", from, "to", status)
	return updated, nil
}

// AdminDelete removes any listing regardless of status.
func (m *Manager) AdminDelete(ctx context.Context, admin *models.User, id uuid.UUID) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if err := m.store.DeleteListing(ctx, id, -1); err != nil {
		return m.storeErr("delete publisher request", err)
	}
	slog.Info("publisher request deleted by admin", "id", id, "admin_id", admin.ID)
	return nil
}
