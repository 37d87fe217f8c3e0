package api

import (
	"github.com/gofiber/fiber/v3"

	"pubmarket/internal/lifecycle"
	"pubmarket/internal/middleware"
	"pubmarket/internal/models"
)

// AdminHandler handles moderation and account management.
type AdminHandler struct {
	manager  *lifecycle.Manager
	notifier Notifier
}

// NewAdminHandler creates a new API admin handler.
func NewAdminHandler(manager *lifecycle.Manager, notifier Notifier) *AdminHandler {
	return &AdminHandler{manager: manager, notifier: notifier}
}

// DashboardStats returns request, traffic and user totals.
func (h *AdminHandler) DashboardStats(c fiber.Ctx) error {
	stats, err := h.manager.DashboardStats(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, stats)
}

// ListRequests returns publisher requests in any status.
func (h *AdminHandler) ListRequests(c fiber.Ctx) error {
	f, page, err := listingFilter(c)
	if err != nil {
		return renderError(c, err)
	}
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}

	result, err := h.manager.ListActive(c.Context(), f, page)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, withSummaries(result))
}

// GetRequest returns any publisher request.
func (h *AdminHandler) GetRequest(c fiber.Ctx) error {
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

// Approve approves a pending request and promotes its owner.
func (h *AdminHandler) Approve(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body models.ReviewInput
	if !decodeOptionalBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.Approve(c.Context(), middleware.CurrentUser(c), id, body.AdminNotes)
	if err != nil {
		return renderError(c, err)
	}
	h.notifier.NotifyStatusChange(c.Context(), listing)
	return jsonSuccess(c, withSummary(listing))
}

// Reject rejects a pending request with a reason.
func (h *AdminHandler) Reject(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body models.ReviewInput
	if !decodeOptionalBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.Reject(c.Context(), middleware.CurrentUser(c), id, body)
	if err != nil {
		return renderError(c, err)
	}
	h.notifier.NotifyStatusChange(c.Context(), listing)
	return jsonSuccess(c, withSummary(listing))
}

// SetStatus moves a request to any status.
func (h *AdminHandler) SetStatus(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body struct {
		Status models.Status `json:"status"`
		models.ReviewInput
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	listing, err := h.manager.SetStatus(c.Context(), middleware.CurrentUser(c), id, body.Status, body.ReviewInput)
	if err != nil {
		return renderError(c, err)
	}
	h.notifier.NotifyStatusChange(c.Context(), listing)
	return jsonSuccess(c, withSummary(listing))
}

// DeleteRequest removes any publisher request.
func (h *AdminHandler) DeleteRequest(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	if err := h.manager.AdminDelete(c.Context(), middleware.CurrentUser(c), id); err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, fiber.Map{
		"message": "publisher request deleted",
	})
}

// ListUsers returns accounts filtered by role and search text.
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return renderError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return renderError(c, err)
	}

	result, err := h.manager.ListUsers(c.Context(), middleware.CurrentUser(c), models.UserFilter{
		Role:   models.Role(c.Query("role")),
		Search: c.Query("search"),
		Limit:  limit,
	}, page)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, result)
}

// UpdateUserRole changes another user's role.
func (h *AdminHandler) UpdateUserRole(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body struct {
		Role models.Role `json:"role"`
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.manager.SetUserRole(c.Context(), middleware.CurrentUser(c), id, body.Role)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, user)
}

// DeleteUser removes another user and their requests.
func (h *AdminHandler) DeleteUser(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	removed, err := h.manager.DeleteUser(c.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, fiber.Map{
		"message":          "user deleted",
		"requests_removed": removed,
	})
}
