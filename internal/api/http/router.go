package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Research       *handlers.ResearchHandler
	Calendar       *handlers.CalendarHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/me", cfg.Users.Me)

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/mine", cfg.Tickets.ListMine)
	tickets.Get("/queue", cfg.Tickets.Queue)
	tickets.Get("/:id<int>", cfg.Tickets.GetTicket)
	tickets.Post("/:id<int>/assign", cfg.Tickets.Assign)
	tickets.Post("/:id<int>/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id<int>/attachments", cfg.Tickets.UploadAttachment)
	tickets.Get("/:id<int>/attachments/:attachmentID<int>", cfg.Tickets.DownloadAttachment)
	tickets.Get("/:id<int>/research", cfg.Research.ListForTicket)
	tickets.Post("/:id<int>/research", cfg.Research.SaveResults)
	tickets.Post("/:id<int>/research/summary", cfg.Research.SaveSummary)

	researchGroup := protected.Group("/research")
	researchGroup.Get("/search", cfg.Research.Search)
	researchGroup.Post("/summarize", cfg.Research.Summarize)

	calendar := protected.Group("/calendar")
	calendar.Post("/events", cfg.Calendar.Create)
	calendar.Get("/events", cfg.Calendar.List)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id<int>/role", cfg.Admin.SetRole)
	admin.Get("/stats", cfg.Admin.Stats)
}
