package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pubmarket/internal/apperr"
	"pubmarket/internal/auth"
	"pubmarket/internal/models"
)

// UserLoader resolves the account behind a session token.
type UserLoader interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware handles user authentication via bearer tokens.
type AuthMiddleware struct {
	tokens *auth.Issuer
	users  UserLoader
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(tokens *auth.Issuer, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth ensures the request carries a valid token for an existing
// user. The user is loaded fresh so role changes apply immediately.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return unauthorized(c, "authentication required")
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return unauthorized(c, "session has expired")
		}
		return unauthorized(c, "invalid token")
	}

	user, err := m.users.UserByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return unauthorized(c, "account no longer exists")
		}
		slog.Error("failed to load authenticated user", "user_id", claims.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error",
			"error":  "internal server error",
		})
	}

	c.Locals("user", user)
	return c.Next()
}

// RequireRole rejects users whose role is below min. It must run after
// RequireAuth.
func RequireRole(min models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return unauthorized(c, "authentication required")
		}
		if !user.HasRole(min) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  string(min) + " access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
