// Package routes defines the API routes and URL structure
package routes

import (
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/handyhub/quotehub/internal/api/v1/handlers"
	"github.com/handyhub/quotehub/internal/api/v1/middleware"
	"github.com/handyhub/quotehub/internal/types"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
	// ServiceVersion is reported by the health endpoint
	ServiceVersion = "1.0.0"
)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Provider routes
	SubmitQuote       = "SubmitQuote"
	ListMyQuotes      = "ListMyQuotes"
	UpdateQuote       = "UpdateQuote"
	CancelQuote       = "CancelQuote"
	DeleteQuote       = "DeleteQuote"
	GetMyMetrics      = "GetMyMetrics"
	ListMyInvitations = "ListMyInvitations"
	DeclineInvitation = "DeclineInvitation"

	// Customer routes
	ListJobQuotes     = "ListJobQuotes"
	GetQuote          = "GetQuote"
	AcceptQuote       = "AcceptQuote"
	RejectQuote       = "RejectQuote"
	JobInvitationStat = "JobInvitationStats"
)

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering is important because routes will try and match in the
// order they are registered. Param urls (ie /:id) go after fixed slugs.
func RegisterRoutes(
	app *fiber.App,
	auth fiber.Handler,
	quotationHandler *handlers.QuotationHandler,
	invitationHandler *handlers.InvitationHandler,
	metricsHandler *handlers.MetricsHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":   "quotehub",
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"version":   ServiceVersion,
		})
	}).Name(HealthCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// Provider endpoints
	provider := v1.Group("/provider", auth, middleware.RequireRole(types.RoleProvider))
	provider.Get("/invitations", invitationHandler.ListMyInvitations).Name(ListMyInvitations)
	provider.Post("/invitations/:id/decline", invitationHandler.DeclineInvitation).Name(DeclineInvitation)
	provider.Get("/metrics", metricsHandler.GetMyMetrics).Name(GetMyMetrics)
	provider.Get("/quotes", quotationHandler.ListMyQuotes).Name(ListMyQuotes)
	provider.Post("/quotes", quotationHandler.SubmitQuote).Name(SubmitQuote)
	provider.Patch("/quotes/:id", quotationHandler.UpdateQuote).Name(UpdateQuote)
	provider.Post("/quotes/:id/cancel", quotationHandler.CancelQuote).Name(CancelQuote)
	provider.Delete("/quotes/:id", quotationHandler.DeleteQuote).Name(DeleteQuote)

	// Customer endpoints
	customer := v1.Group("/customer", auth, middleware.RequireRole(types.RoleCustomer))
	customer.Get("/jobs/:jobId/invitations/stats", invitationHandler.GetJobInvitationStats).Name(JobInvitationStat)
	customer.Get("/jobs/:jobId/quotes", quotationHandler.ListJobQuotes).Name(ListJobQuotes)
	customer.Get("/quotes/:id", quotationHandler.GetQuote).Name(GetQuote)
	customer.Post("/quotes/:id/accept", quotationHandler.AcceptQuote).Name(AcceptQuote)
	customer.Post("/quotes/:id/reject", quotationHandler.RejectQuote).Name(RejectQuote)
}
