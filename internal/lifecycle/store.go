package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pubmarket/internal/models"
)

// UserStore persists accounts. Implementations return the db package error
// sentinels (db.ErrUserNotFound, db.ErrDuplicateEmail).
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	PromoteUser(ctx context.Context, userID uuid.UUID) (bool, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountUsersByRole(ctx context.Context) (models.UserCounts, error)
	AdminEmails(ctx context.Context) ([]string, error)
	SetResetToken(ctx context.Context, userID uuid.UUID, digest string, expiry time.Time) error
	GetUserByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// ListingStore persists publisher requests. Writes are conditional on the
// version the caller read; a mismatch yields db.ErrVersionConflict.
type ListingStore interface {
	CreateListing(ctx context.Context, r *models.PublisherRequest) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.PublisherRequest, error)
	FindActiveListing(ctx context.Context, userID uuid.UUID, website string) (*models.PublisherRequest, error)
	ListingsByOwner(ctx context.Context, userID uuid.UUID) ([]models.PublisherRequest, error)
	SaveListing(ctx context.Context, r *models.PublisherRequest, expectedVersion int64) error
	SaveReview(ctx context.Context, r *models.PublisherRequest, expectedVersion int64, promoteOwner bool) (bool, error)
	DeleteListing(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	SearchListings(ctx context.Context, f models.ListingFilter) ([]models.PublisherRequest, int, error)
	CountListingsByStatus(ctx context.Context, ownerID *uuid.UUID) (models.StatusCounts, error)
	SumApprovedTraffic(ctx context.Context) (int64, error)
	ListUnpromotedOwners(ctx context.Context) ([]uuid.UUID, error)
}

// Store is the full persistence contract of the manager.
type Store interface {
	UserStore
	ListingStore
}
