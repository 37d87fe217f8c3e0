package lifecycle

import (
	"context"
	"math"

	"pubmarket/internal/apperr"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
)

// pagination normalises a 1-based page and a limit capped by the config.
func (m *Manager) pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = m.cfg.DefaultLimit
	}
	if limit > m.cfg.MaxLimit {
		limit = m.cfg.MaxLimit
	}
	return page, limit
}

// ListActive returns one page of listings matching the filter. Unset filter
// fields are ignored; the default order is monthly traffic, highest first.
func (m *Manager) ListActive(ctx context.Context, f models.ListingFilter, page int) (models.Page[models.PublisherRequest], error) {
	if f.Status != "" && !f.Status.Valid() {
		return models.Page[models.PublisherRequest]{}, apperr.Invalid("status", "unknown status: "+string(f.Status))
	}
	if f.Sort == "" {
		f.Sort = models.SortMonthlyTraffic
	}
	if !models.IsSort(f.Sort) {
		return models.Page[models.PublisherRequest]{}, apperr.Invalid("sort", "unknown sort order: "+f.Sort)
	}

	page, f.Limit = m.pagination(page, f.Limit)
	f.Offset = (page - 1) * f.Limit

	items, total, err := m.store.SearchListings(ctx, f)
	if err != nil {
		return models.Page[models.PublisherRequest]{}, m.storeErr("search publisher requests", err)
	}
	return models.NewPage(items, total, page, f.Limit), nil
}

// HighPerforming lists approved listings above the configured trust and
// traffic thresholds, highest traffic first.
func (m *Manager) HighPerforming(ctx context.Context, page, limit int) (models.Page[models.PublisherRequest], error) {
	minTrust := m.cfg.HighPerformingMinTrust
	minTraffic := m.cfg.HighPerformingMinTraffic
	return m.ListActive(ctx, models.ListingFilter{
		Status:            models.StatusApproved,
		MinTrustScore:     &minTrust,
		MinMonthlyTraffic: &minTraffic,
		Sort:              models.SortMonthlyTraffic,
		Limit:             limit,
	}, page)
}

// DashboardStats returns the admin overview.
func (m *Manager) DashboardStats(ctx context.Context, admin *models.User) (models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := requireAdmin(admin); err != nil {
		return stats, err
	}

	var err error
	if stats.Requests, err = m.store.CountListingsByStatus(ctx, nil); err != nil {
		return stats, m.storeErr("count publisher requests", err)
	}
	if stats.TotalTraffic, err = m.store.SumApprovedTraffic(ctx); err != nil {
		return stats, m.storeErr("sum approved traffic", err)
	}
	if stats.Users, err = m.store.CountUsersByRole(ctx); err != nil {
		return stats, m.storeErr("count users", err)
	}
	return stats, nil
}

// PerUserStats summarises the user's own listings.
func (m *Manager) PerUserStats(ctx context.Context, user *models.User) (models.PublisherStats, error) {
	var stats models.PublisherStats
	if err := requireUser(user); err != nil {
		return stats, err
	}

	listings, err := m.store.ListingsByOwner(ctx, user.ID)
	if err != nil {
		return stats, m.storeErr("list publisher requests", err)
	}

	trustSum := 0
	for i := range listings {
		r := &listings[i]
		stats.Requests.Add(r.Status, 1)
		stats.TotalEstimatedAudience += scoring.TotalAudience(r)
		if r.WebsiteAnalysis != nil {
			trustSum += r.WebsiteAnalysis.TrustScore
			if r.WebsiteAnalysis.HasAnalytics {
				stats.AnalyticsEnabled++
			}
		}
	}
	if n := len(listings); n > 0 {
		stats.AverageTrustScore = int(math.Round(float64(trustSum) / float64(n)))
	}
	return stats, nil
}
