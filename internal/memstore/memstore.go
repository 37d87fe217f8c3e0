// Package memstore is a thread-safe in-memory implementation of the
// lifecycle store. It backs tests and the memory store driver.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pubmarket/internal/db"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/models"
)

var _ lifecycle.Store = (*Store)(nil)

// Store keeps users and publisher requests in maps guarded by one lock, so
// every write, including review plus promotion, is a single critical section.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	listings map[uuid.UUID]*models.PublisherRequest
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		listings: make(map[uuid.UUID]*models.PublisherRequest),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// Users ---------------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return db.ErrDuplicateEmail
		}
	}

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := s.now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context, f models.UserFilter) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []models.User
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" && !containsFold(search, u.FullName, u.Email) {
			continue
		}
		matched = append(matched, u)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, f.Offset, f.Limit), len(matched), nil
}

func (s *Store) UpdateUserRole(_ context.Context, userID uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

func (s *Store) PromoteUser(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoteLocked(userID), nil
}

func (s *Store) promoteLocked(userID uuid.UUID) bool {
	u, ok := s.users[userID]
	if !ok || u.Role.AtLeast(models.RolePublisher) || !u.Role.Valid() {
		return false
	}
	u.Role = models.RolePublisher
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return true
}

func (s *Store) DeleteUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return 0, db.ErrUserNotFound
	}

	removed := 0
	for id, r := range s.listings {
		if r.UserID == userID {
			delete(s.listings, id)
			removed++
		}
	}
	delete(s.users, userID)
	return removed, nil
}

func (s *Store) CountUsersByRole(context.Context) (models.UserCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts models.UserCounts
	for _, u := range s.users {
		counts.Add(u.Role, 1)
	}
	return counts, nil
}

func (s *Store) AdminEmails(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emails []string
	for _, u := range s.users {
		if u.Role == models.RoleAdmin && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}

func (s *Store) SetResetToken(_ context.Context, userID uuid.UUID, digest string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	u.ResetToken = &digest
	u.ResetTokenExpiry = &expiry
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

func (s *Store) GetUserByResetToken(_ context.Context, digest string, now time.Time) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == digest &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			return &u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *Store) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

// Publisher requests --------------------------------------------------------

func (s *Store) CreateListing(_ context.Context, r *models.PublisherRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[r.UserID]; !ok {
		return db.ErrUserNotFound
	}
	if r.Status.Active() && s.activeLocked(r.UserID, r.Website, uuid.Nil) != nil {
		return db.ErrDuplicateActiveListing
	}

	now := s.now()
	r.ID = uuid.New()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now
	s.listings[r.ID] = r.Clone()
	return nil
}

func (s *Store) GetListing(_ context.Context, id uuid.UUID) (*models.PublisherRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.listings[id]
	if !ok {
		return nil, db.ErrListingNotFound
	}
	return r.Clone(), nil
}

func (s *Store) FindActiveListing(_ context.Context, userID uuid.UUID, website string) (*models.PublisherRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.activeLocked(userID, website, uuid.Nil); r != nil {
		return r.Clone(), nil
	}
	return nil, db.ErrListingNotFound
}

// activeLocked finds an active request for (userID, website) other than except.
func (s *Store) activeLocked(userID uuid.UUID, website string, except uuid.UUID) *models.PublisherRequest {
	for id, r := range s.listings {
		if id != except && r.UserID == userID && r.Website == website && r.Status.Active() {
			return r
		}
	}
	return nil
}

func (s *Store) ListingsByOwner(_ context.Context, userID uuid.UUID) ([]models.PublisherRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PublisherRequest
	for _, r := range s.listings {
		if r.UserID == userID {
			out = append(out, *r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveListing(_ context.Context, r *models.PublisherRequest, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(r, expectedVersion)
}

func (s *Store) SaveReview(_ context.Context, r *models.PublisherRequest, expectedVersion int64, promoteOwner bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(r, expectedVersion); err != nil {
		return false, err
	}
	if !promoteOwner {
		return false, nil
	}
	return s.promoteLocked(r.UserID), nil
}

func (s *Store) saveLocked(r *models.PublisherRequest, expectedVersion int64) error {
	current, ok := s.listings[r.ID]
	if !ok {
		return db.ErrListingNotFound
	}
	if current.Version != expectedVersion {
		return db.ErrVersionConflict
	}
	if r.Status.Active() && s.activeLocked(current.UserID, r.Website, r.ID) != nil {
		return db.ErrDuplicateActiveListing
	}

	r.UserID = current.UserID
	r.CreatedAt = current.CreatedAt
	r.Version = current.Version + 1
	r.UpdatedAt = s.now()
	s.listings[r.ID] = r.Clone()
	return nil
}

func (s *Store) DeleteListing(_ context.Context, id uuid.UUID, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.listings[id]
	if !ok {
		return db.ErrListingNotFound
	}
	if expectedVersion >= 0 && current.Version != expectedVersion {
		return db.ErrVersionConflict
	}
	delete(s.listings, id)
	return nil
}

func (s *Store) SearchListings(_ context.Context, f models.ListingFilter) ([]models.PublisherRequest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.PublisherRequest
	for _, r := range s.listings {
		if matches(r, f) {
			matched = append(matched, *r.Clone())
		}
	}

	sortListings(matched, f.Sort)
	return paginate(matched, f.Offset, f.Limit), len(matched), nil
}

func (s *Store) CountListingsByStatus(_ context.Context, ownerID *uuid.UUID) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts models.StatusCounts
	for _, r := range s.listings {
		if ownerID != nil && r.UserID != *ownerID {
			continue
		}
		counts.Add(r.Status, 1)
	}
	return counts, nil
}

func (s *Store) SumApprovedTraffic(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, r := range s.listings {
		if r.Status == models.StatusApproved {
			total += traffic(r)
		}
	}
	return total, nil
}

func (s *Store) ListUnpromotedOwners(context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, r := range s.listings {
		if r.Status != models.StatusApproved || seen[r.UserID] {
			continue
		}
		u, ok := s.users[r.UserID]
		if !ok || u.Role.AtLeast(models.RolePublisher) {
			continue
		}
		seen[r.UserID] = true
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

func matches(r *models.PublisherRequest, f models.ListingFilter) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.OwnerID != nil && r.UserID != *f.OwnerID {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.GrayNiche != "" && !r.AcceptsGrayNiche(f.GrayNiche) {
		return false
	}
	if f.MinPrice != nil && r.Pricing.StandardPostPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && r.Pricing.StandardPostPrice > *f.MaxPrice {
		return false
	}
	if f.MinTrustScore != nil && trust(r) < *f.MinTrustScore {
		return false
	}
	if f.MinMonthlyTraffic != nil && traffic(r) < *f.MinMonthlyTraffic {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" &&
		!containsFold(q, r.CompanyName, r.Website, r.Email, r.FullName) {
		return false
	}
	return true
}

func sortListings(rs []models.PublisherRequest, order string) {
	newer := func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID.String() < rs[j].ID.String()
	}

	var less func(i, j int) bool
	switch order {
	case models.SortTrustScore:
		less = func(i, j int) bool {
			a, b := trust(&rs[i]), trust(&rs[j])
			if a != b {
				return a > b
			}
			return newer(i, j)
		}
	case models.SortDomainAuthority:
		less = func(i, j int) bool {
			if rs[i].DomainAuthority != rs[j].DomainAuthority {
				return rs[i].DomainAuthority > rs[j].DomainAuthority
			}
			return newer(i, j)
		}
	case models.SortPrice:
		less = func(i, j int) bool {
			if rs[i].Pricing.StandardPostPrice != rs[j].Pricing.StandardPostPrice {
				return rs[i].Pricing.StandardPostPrice < rs[j].Pricing.StandardPostPrice
			}
			return newer(i, j)
		}
	case models.SortNewest:
		less = newer
	default:
		less = func(i, j int) bool {
			a, b := traffic(&rs[i]), traffic(&rs[j])
			if a != b {
				return a > b
			}
			return newer(i, j)
		}
	}
	sort.SliceStable(rs, less)
}

func traffic(r *models.PublisherRequest) int64 {
	if r.WebsiteAnalysis == nil {
		return 0
	}
	return r.WebsiteAnalysis.MonthlyTraffic
}

func trust(r *models.PublisherRequest) int {
	if r.WebsiteAnalysis == nil {
		return 0
	}
	return r.WebsiteAnalysis.TrustScore
}

func containsFold(lowerQuery string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
