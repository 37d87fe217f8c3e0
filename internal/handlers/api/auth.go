package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"pubmarket/internal/apperr"
	"pubmarket/internal/auth"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/middleware"
)

// AuthHandler handles signup, login and password recovery.
type AuthHandler struct {
	manager  *lifecycle.Manager
	tokens   *auth.Issuer
	notifier Notifier
}

// NewAuthHandler creates a new API auth handler.
func NewAuthHandler(manager *lifecycle.Manager, tokens *auth.Issuer, notifier Notifier) *AuthHandler {
	return &AuthHandler{manager: manager, tokens: tokens, notifier: notifier}
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body lifecycle.RegisterInput
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.manager.Register(c.Context(), body)
	if err != nil {
		return renderError(c, err)
	}

	session, err := newSession(h.tokens, user)
	if err != nil {
		return renderError(c, err)
	}
	return jsonCreated(c, session)
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	var missing []apperr.FieldError
	if body.Email == "" {
		missing = append(missing, apperr.FieldError{Field: "email", Problem: apperr.ProblemMissing})
	}
	if body.Password == "" {
		missing = append(missing, apperr.FieldError{Field: "password", Problem: apperr.ProblemMissing})
	}
	if len(missing) > 0 {
		return renderError(c, apperr.Validation(missing))
	}

	user, err := h.manager.Authenticate(c.Context(), body.Email, body.Password)
	if err != nil {
		return renderError(c, err)
	}

	session, err := newSession(h.tokens, user)
	if err != nil {
		return renderError(c, err)
	}
	return jsonSuccess(c, session)
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c fiber.Ctx) error {
	return jsonSuccess(c, middleware.CurrentUser(c))
}

// ForgotPassword emails a reset link. The answer is the same whether or not
// the account exists.
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Email == "" {
		return renderError(c, apperr.Validation([]apperr.FieldError{{Field: "email", Problem: apperr.ProblemMissing}}))
	}

	user, token, err := h.manager.RequestPasswordReset(c.Context(), body.Email)
	if err != nil {
		return renderError(c, err)
	}
	if user != nil {
		h.notifier.NotifyPasswordReset(c.Context(), user, token)
		slog.Info("password reset requested", "user_id", user.ID)
	}

	return jsonSuccess(c, fiber.Map{
		"message": "if an account exists for this email, a reset link has been sent",
	})
}

// ResetPassword sets a new password from a reset token.
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if !decodeBody(c, &body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.manager.ResetPassword(c.Context(), c.Params("token"), body.Password); err != nil {
		return renderError(c, err)
	}

	return jsonSuccess(c, fiber.Map{
		"message": "password updated",
	})
}
