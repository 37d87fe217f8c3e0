package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pubmarket/internal/auth"
	"pubmarket/internal/handlers/api"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/middleware"
	"pubmarket/internal/models"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Manager  *lifecycle.Manager
	Tokens   *auth.Issuer
	Notifier api.Notifier
	Store    Pinger
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(d Deps) {
	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(d.Tokens, d.Manager)
	requireAuth := authMiddleware.RequireAuth
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	limit := s.rateLimiter()

	// Initialize handlers
	authHandler := api.NewAuthHandler(d.Manager, d.Tokens, d.Notifier)
	publisherHandler := api.NewPublisherHandler(d.Manager, d.Tokens, d.Notifier)
	listingHandler := api.NewListingHandler(d.Manager)
	adminHandler := api.NewAdminHandler(d.Manager, d.Notifier)

	// Operational endpoints
	s.App.Get("/healthz", healthz(d.Store))
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	authGroup := s.App.Group("/api/auth")
	authGroup.Post("/register", limit, authHandler.Register)
	authGroup.Post("/login", limit, authHandler.Login)
	authGroup.Get("/profile", requireAuth, authHandler.Profile)
	authGroup.Post("/forgot-password", limit, authHandler.ForgotPassword)
	authGroup.Post("/reset-password/:token", limit, authHandler.ResetPassword)

	// Publisher routes
	pub := s.App.Group("/api/publisher")
	pub.Post("/create", limit, publisherHandler.CreateWithAccount)
	pub.Get("/stats", requireAuth, publisherHandler.Stats)
	pub.Post("/requests", requireAuth, publisherHandler.Submit)
	pub.Get("/requests", requireAuth, publisherHandler.List)
	pub.Get("/requests/:id", requireAuth, publisherHandler.Get)
	pub.Put("/requests/:id", requireAuth, publisherHandler.Update)
	pub.Delete("/requests/:id", requireAuth, publisherHandler.Delete)
	pub.Post("/requests/:id/analyze", requireAuth, publisherHandler.Analyze)

	// Public catalogue
	s.App.Get("/api/listings", listingHandler.List)
	s.App.Get("/api/listings/high-performing", listingHandler.HighPerforming)

	// Admin routes (admin only)
	admin := s.App.Group("/api/admin", requireAuth, requireAdmin)
	admin.Get("/dashboard-stats", adminHandler.DashboardStats)
	admin.Get("/publisher-requests", adminHandler.ListRequests)
	admin.Get("/publisher-requests/:id", adminHandler.GetRequest)
	admin.Put("/publisher-requests/:id/approve", adminHandler.Approve)
	admin.Put("/publisher-requests/:id/reject", adminHandler.Reject)
	admin.Put("/publisher-requests/:id/status", adminHandler.SetStatus)
	admin.Delete("/publisher-requests/:id", adminHandler.DeleteRequest)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Delete("/users/:id", adminHandler.DeleteUser)

	// Unknown routes
	s.App.Use(func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	})
}

func healthz(store Pinger) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "error",
				"error":  "store unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
