// Package api implements the JSON HTTP handlers of the marketplace.
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"

	"pubmarket/internal/auth"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
)

// Notifier sends best-effort notifications after the core has committed a
// change. Implemented by email.Notifier.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, user *models.User, token string)
	NotifyListingSubmitted(ctx context.Context, r *models.PublisherRequest)
	NotifyStatusChange(ctx context.Context, r *models.PublisherRequest)
}

// listingResponse is a publisher request with its read-time analytics digest.
type listingResponse struct {
	*models.PublisherRequest
	AnalyticsSummary scoring.Summary `json:"analytics_summary"`
}

func withSummary(r *models.PublisherRequest) listingResponse {
	return listingResponse{PublisherRequest: r, AnalyticsSummary: scoring.Summarize(r)}
}

func withSummaries(p models.Page[models.PublisherRequest]) models.Page[listingResponse] {
	items := make([]listingResponse, len(p.Items))
	for i := range p.Items {
		items[i] = withSummary(&p.Items[i])
	}
	return models.Page[listingResponse]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}

// sessionResponse is returned by every endpoint that logs a user in.
type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func newSession(tokens *auth.Issuer, user *models.User) (*sessionResponse, error) {
	token, exp, err := tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &sessionResponse{Token: token, ExpiresAt: exp, User: user}, nil
}

// decodeBody unmarshals a required JSON body.
func decodeBody(c fiber.Ctx, v any) bool {
	return json.Unmarshal(c.Body(), v) == nil
}

// decodeOptionalBody unmarshals the body if one was sent.
func decodeOptionalBody(c fiber.Ctx, v any) bool {
	if len(c.Body()) == 0 {
		return true
	}
	return decodeBody(c, v)
}

// listingFilter reads listing filters and pagination from the query string.
func listingFilter(c fiber.Ctx) (models.ListingFilter, int, error) {
	f := models.ListingFilter{
		Category:  c.Query("category"),
		GrayNiche: c.Query("gray_niche"),
		Status:    models.Status(c.Query("status")),
		Search:    c.Query("search"),
		Sort:      c.Query("sort"),
	}

	var err error
	if f.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return f, 0, err
	}
	if f.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return f, 0, err
	}
	if f.MinMonthlyTraffic, err = queryInt64(c, "min_traffic"); err != nil {
		return f, 0, err
	}
	if c.Query("min_trust_score") != "" {
		n, err := queryInt(c, "min_trust_score", 0)
		if err != nil {
			return f, 0, err
		}
		f.MinTrustScore = &n
	}
	if f.Limit, err = queryInt(c, "limit", 0); err != nil {
		return f, 0, err
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return f, 0, err
	}
	return f, page, nil
}
