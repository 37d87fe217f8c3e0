package api

import (
	"github.com/gofiber/fiber/v3"

	"pubmarket/internal/lifecycle"
	"pubmarket/internal/models"
)

// ListingHandler serves the public marketplace catalogue.
type ListingHandler struct {
	manager *lifecycle.Manager
}

// NewListingHandler creates a new API listing handler.
func NewListingHandler(manager *lifecycle.Manager) *ListingHandler {
	return &ListingHandler{manager: manager}
}

// List returns approved listings matching the query filters.
func (h *ListingHandler) List(c fiber.Ctx) error {
	f, page, err := listingFilter(c)
	if err != nil {
		return renderError(c, err)
	}
	// The catalogue only ever shows approved listings.
	f.Status = models.StatusApproved

	result, err := h.manager.ListActive(c.Context(), f, page)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummaries(result))
}

// HighPerforming returns approved listings above the trust and traffic thresholds.
func (h *ListingHandler) HighPerforming(c fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return renderError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return renderError(c, err)
	}

	result, err := h.manager.HighPerforming(c.Context(), page, limit)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummaries(result))
}
