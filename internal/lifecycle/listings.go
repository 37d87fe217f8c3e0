package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/auth"
	"pubmarket/internal/db"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
	"pubmarket/internal/validation"
)

// Submit creates a pending listing owned by user.
func (m *Manager) Submit(ctx context.Context, user *models.User, in models.ListingInput) (*models.PublisherRequest, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return m.submit(ctx, user, in)
}

func (m *Manager) submit(ctx context.Context, user *models.User, in models.ListingInput) (*models.PublisherRequest, error) {
	r := newListing(user, in)

	existing, err := m.store.FindActiveListing(ctx, user.ID, r.Website)
	switch {
	case err == nil:
		return nil, duplicateListing(existing.ID)
	case !errors.Is(err, db.ErrListingNotFound):
		return nil, m.storeErr("check active requests", err)
	}

	analysis := m.scorer.Score(ctx, scoring.InputFromRequest(r, in.SocialMedia))
	r.WebsiteAnalysis = &analysis

	if err := m.store.CreateListing(ctx, r); err != nil {
		if errors.Is(err, db.ErrDuplicateActiveListing) {
			// Lost a race with a concurrent submission; name the winner if we can.
			if winner, ferr := m.store.FindActiveListing(ctx, user.ID, r.Website); ferr == nil {
				return nil, duplicateListing(winner.ID)
			}
		}
		return nil, m.storeErr("create publisher request", err)
	}

	slog.Info("publisher request submitted", "id", r.ID, "user_id", user.ID, "website", r.Website)
	return r, nil
}

func duplicateListing(id uuid.UUID) error {
	return apperr.Conflict("an active request already exists for this website", id.String())
}

// AccountInput is the credential part of a combined signup and submission.
type AccountInput struct {
	FullName string
	Email    string
	Password string
}

// SubmitWithAccountCreation creates a user account and its first listing.
// If the listing cannot be created the new account is removed again.
func (m *Manager) SubmitWithAccountCreation(ctx context.Context, acct AccountInput, in models.ListingInput) (*models.User, *models.PublisherRequest, error) {
	if acct.FullName == "" {
		acct.FullName = in.FullName
	}
	if acct.Email == "" {
		acct.Email = in.Email
	}

	fe := credentialErrors(acct)
	if err := validateInput(in); err != nil {
		ae, _ := apperr.As(err)
		fe = append(fe, ae.Fields...)
	}
	if err := fe.err(); err != nil {
		return nil, nil, err
	}

	user, err := m.createAccount(ctx, acct, models.RoleUser)
	if err != nil {
		return nil, nil, err
	}

	listing, err := m.submit(ctx, user, in)
	if err != nil {
		// Use a fresh context so a cancelled request still cleans up.
		if _, derr := m.store.DeleteUser(context.WithoutCancel(ctx), user.ID); derr != nil {
			slog.Error("failed to remove account after listing failure", "user_id", user.ID, "error", derr)
		}
		return nil, nil, err
	}

	return user, listing, nil
}

func credentialErrors(acct AccountInput) fieldErrors {
	var fe fieldErrors
	fe.required("full_name", acct.FullName)
	if fe.required("email", acct.Email) {
		fe.checkEmail("email", acct.Email)
	}
	if acct.Password == "" {
		fe.missing("password")
	} else if ok, msg := validation.ValidatePassword(acct.Password); !ok {
		fe.invalid("password", msg)
	}
	return fe
}

func (m *Manager) createAccount(ctx context.Context, acct AccountInput, role models.Role) (*models.User, error) {
	hash, err := auth.HashPassword(acct.Password)
	if err != nil {
		return nil, apperr.Infrastructure("hash password", err)
	}

	user := &models.User{
		FullName:     acct.FullName,
		Email:        validation.NormalizeEmail(acct.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return nil, m.storeErr("create user", err)
	}
	return user, nil
}

// Get returns a listing visible to actor: its owner or any admin.
func (m *Manager) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.PublisherRequest, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	r, err := m.store.GetListing(ctx, id)
	if err != nil {
		return nil, m.storeErr("load publisher request", err)
	}
	if r.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperr.NotFound("publisher request not found")
	}
	return r, nil
}

// Update applies an owner's patch. Rejected listings go back to pending
// with their review metadata cleared.
func (m *Manager) Update(ctx context.Context, user *models.User, id uuid.UUID, patch models.ListingPatch) (*models.PublisherRequest, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var from models.Status
	updated, err := m.mutate(ctx, id, func(r *models.PublisherRequest) error {
		if err := ownedBy(r, user); err != nil {
			return err
		}
		if !r.Status.OwnerEditable() {
			return apperr.InvalidState("publisher request can no longer be edited", string(r.Status))
		}

		from = r.Status
		applyPatch(r, patch)

		if patch.AffectsAnalysis() || r.WebsiteAnalysis == nil {
			analysis := m.scorer.Score(ctx, scoring.InputFromRequest(r, scoring.SocialLinksOf(r.WebsiteAnalysis)))
			r.WebsiteAnalysis = &analysis
		}

		if r.Status == models.StatusRejected {
			r.Status = models.StatusPending
			r.RejectionReason = nil
			r.AdminNotes = nil
			r.ReviewedBy = nil
			r.ReviewedAt = nil
		}
		return nil
	}, func(r *models.PublisherRequest, expected int64) error {
		return m.store.SaveListing(ctx, r, expected)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, m.activeConflict(ctx, user.ID, patch, err)
		}
		return nil, err
	}

	if from != updated.Status {
		m.observer.StatusChanged(from, updated.Status)
	}
	slog.Info("publisher request updated", "id", id, "user_id", user.ID, "status", updated.Status)
	return updated, nil
}

// activeConflict names the active listing that blocked a website change.
func (m *Manager) activeConflict(ctx context.Context, userID uuid.UUID, patch models.ListingPatch, err error) error {
	if patch.Website == nil {
		return err
	}
	if other, ferr := m.store.FindActiveListing(ctx, userID, validation.NormalizeWebsite(*patch.Website)); ferr == nil {
		return duplicateListing(other.ID)
	}
	return err
}

// Delete removes an owner's listing unless it has been approved.
func (m *Manager) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if err := requireUser(user); err != nil {
		return err
	}

	_, err := m.mutate(ctx, id, func(r *models.PublisherRequest) error {
		if err := ownedBy(r, user); err != nil {
			return err
		}
		if r.Status == models.StatusApproved {
			return apperr.InvalidState("approved publisher requests cannot be deleted", string(r.Status))
		}
		return nil
	}, func(r *models.PublisherRequest, expected int64) error {
		return m.store.DeleteListing(ctx, r.ID, expected)
	})
	if err != nil {
		return err
	}

	slog.Info("publisher request deleted", "id", id, "user_id", user.ID)
	return nil
}

// ReAnalyze recomputes the analytics block of an owner's listing. A non-nil
// socialOverride replaces the social links used for analysis.
func (m *Manager) ReAnalyze(ctx context.Context, user *models.User, id uuid.UUID, socialOverride map[string]string) (*models.PublisherRequest, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	return m.mutate(ctx, id, func(r *models.PublisherRequest) error {
		if err := ownedBy(r, user); err != nil {
			return err
		}
		social := socialOverride
		if social == nil {
			social = scoring.SocialLinksOf(r.WebsiteAnalysis)
		}
		analysis := m.scorer.Score(ctx, scoring.InputFromRequest(r, social))
		r.WebsiteAnalysis = &analysis
		return nil
	}, func(r *models.PublisherRequest, expected int64) error {
		return m.store.SaveListing(ctx, r, expected)
	})
}

// ownedBy hides listings of other users behind a not-found error.
func ownedBy(r *models.PublisherRequest, user *models.User) error {
	if r.UserID != user.ID {
		return apperr.NotFound("publisher request not found")
	}
	return nil
}
