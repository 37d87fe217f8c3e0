package api

import (
	"github.com/gofiber/fiber/v3"

	"pubmarket/internal/auth"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/middleware"
	"pubmarket/internal/models"
)

// PublisherHandler handles a publisher's own requests.
type PublisherHandler struct {
	manager  *lifecycle.Manager
	tokens   *auth.Issuer
	notifier Notifier
}

// NewPublisherHandler creates a new API publisher handler.
func NewPublisherHandler(manager *lifecycle.Manager, tokens *auth.Issuer, notifier Notifier) *PublisherHandler {
	return &PublisherHandler{manager: manager, tokens: tokens, notifier: notifier}
}

// CreateWithAccount signs a new user up and submits their first listing.
func (h *PublisherHandler) CreateWithAccount(c fiber.Ctx) error {
	var body struct {
		models.ListingInput
		Password string `json:"password"`
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, listing, err := h.manager.SubmitWithAccountCreation(c.Context(), lifecycle.AccountInput{
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
	}, body.ListingInput)
	if err != nil {
		return renderError(c, err)
	}
	h.notifier.NotifyListingSubmitted(c.Context(), listing)

	session, err := newSession(h.tokens, user)
	if err != nil {
		return renderError(c, err)
	}
	return jsonCreated(c, fiber.Map{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
		"request":    withSummary(listing),
	})
}

// Submit creates a listing for the authenticated user.
func (h *PublisherHandler) Submit(c fiber.Ctx) error {
	var body models.ListingInput
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.Submit(c.Context(), middleware.CurrentUser(c), body)
	if err != nil {
		return renderError(c, err)
	}
	h.notifier.NotifyListingSubmitted(c.Context(), listing)

	return jsonCreated(c, withSummary(listing))
}

// List returns the user's own listings in any status.
func (h *PublisherHandler) List(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	f, page, err := listingFilter(c)
	if err != nil {
		return renderError(c, err)
	}
	f.OwnerID = &user.ID
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}

	result, err := h.manager.ListActive(c.Context(), f, page)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummaries(result))
}

// Get returns one of the user's listings.
func (h *PublisherHandler) Get(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	listing, err := h.manager.Get(c.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummary(listing))
}

// Update edits a pending or rejected listing.
func (h *PublisherHandler) Update(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var patch models.ListingPatch
	if !decodeBody(c, &patch) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.Update(c.Context(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummary(listing))
}

// Delete removes a listing that has not been approved.
func (h *PublisherHandler) Delete(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	if err := h.manager.Delete(c.Context(), middleware.CurrentUser(c), id); err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, fiber.Map{
		"message": "publisher request deleted",
	})
}

// Analyze re-runs website analysis, optionally with new social links.
func (h *PublisherHandler) Analyze(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body struct {
		SocialMedia map[string]string `json:"social_media"`
	}
	if !decodeOptionalBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.ReAnalyze(c.Context(), middleware.CurrentUser(c), id, body.SocialMedia)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummary(listing))
}

// Stats summarises the user's listings.
func (h *PublisherHandler) Stats(c fiber.Ctx) error {
	stats, err := h.manager.PerUserStats(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, stats)
}
