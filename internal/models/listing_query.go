package models

import "github.com/google/uuid"

// Sort orders for listing queries.
const (
	SortMonthlyTraffic  = "monthly_traffic"
	SortTrustScore      = "trust_score"
	SortDomainAuthority = "domain_authority"
	SortPrice           = "price"
	SortNewest          = "newest"
)

// IsSort reports whether s is a supported sort order.
func IsSort(s string) bool {
	switch s {
	case SortMonthlyTraffic, SortTrustScore, SortDomainAuthority, SortPrice, SortNewest:
		return true
	}
	return false
}

// ListingFilter narrows listing queries. Zero values are no-ops.
type ListingFilter struct {
	Category          string
	GrayNiche         string
	MinPrice          *float64
	MaxPrice          *float64
	Status            Status
	MinTrustScore     *int
	MinMonthlyTraffic *int64
	OwnerID           *uuid.UUID
	Search            string
	Sort              string
	Offset            int
	Limit             int
}

// Page is one page of query results.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPage builds a page, computing the page count from total and limit.
func NewPage[T any](items []T, total, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// StatusCounts holds listing counts by status.
type StatusCounts struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}

// Add increments the counter for s and the total.
func (c *StatusCounts) Add(s Status, n int) {
	c.Total += n
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusUnderReview:
		c.UnderReview += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}

// UserCounts holds account counts by role.
type UserCounts struct {
	Total       int `json:"total"`
	Users       int `json:"users"`
	Advertisers int `json:"advertisers"`
	Publishers  int `json:"publishers"`
	Admins      int `json:"admins"`
}

// Add increments the counter for r and the total.
func (c *UserCounts) Add(r Role, n int) {
	c.Total += n
	switch r {
	case RoleUser:
		c.Users += n
	case RoleAdvertiser:
		c.Advertisers += n
	case RolePublisher:
		c.Publishers += n
	case RoleAdmin:
		c.Admins += n
	}
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	Requests     StatusCounts `json:"stats"`
	TotalTraffic int64        `json:"total_traffic"`
	Users        UserCounts   `json:"users"`
}

// PublisherStats summarises one user's listings.
type PublisherStats struct {
	Requests               StatusCounts `json:"requests"`
	TotalEstimatedAudience int64        `json:"total_estimated_audience"`
	AverageTrustScore      int          `json:"average_trust_score"`
	AnalyticsEnabled       int          `json:"analytics_enabled"`
}
