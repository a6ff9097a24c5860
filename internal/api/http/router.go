package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latte-hq/latte-api/internal/api/http/handlers"
	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	Clients        *handlers.ClientsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Field-level permissions on ticket edits
// are enforced in the service layer; route guards only cover coarse
// authority checks.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/counts", cfg.Tickets.TicketCounts)
	tickets.Post("/", auth.RequireAuthority(domain.AuthorityCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
	tickets.Post("/:id/lock", auth.RequireAuthority(domain.AuthorityLockTicket), cfg.Tickets.LockTicket)
	tickets.Post("/:id/unlock", auth.RequireAuthority(domain.AuthorityLockTicket), cfg.Tickets.UnlockTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/activities", cfg.Tickets.ListActivities)
	tickets.Post("/:id/comments", cfg.Tickets.CreateComment)

	comments := api.Group("/comments")
	comments.Put("/:id", cfg.Tickets.UpdateComment)
	comments.Delete("/:id", cfg.Tickets.DeleteComment)

	users := api.Group("/users")
	users.Get("/", cfg.Users.ListUsers)
	users.Get("/firstnames", cfg.Users.ListFirstnames)
	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateSelf)
	users.Post("/me/password", cfg.Users.ResetOwnPassword)
	users.Get("/:email", cfg.Users.GetUser)
	users.Put("/:email", auth.RequireAuthority(domain.AuthorityEditUser), cfg.Users.UpdateUser)
	users.Delete("/:email", auth.RequireAuthority(domain.AuthorityDeleteUser), cfg.Users.DeleteUser)
	users.Post("/:email/password", auth.RequireAuthority(domain.AuthorityResetUserPassword), cfg.Users.ResetPassword)

	roles := api.Group("/roles")
	roles.Get("/", cfg.Roles.ListRoles)
	roles.Get("/authorities", cfg.Roles.ListAuthorities)
	roles.Post("/", auth.RequireAuthority(domain.AuthorityCreateRole), cfg.Roles.CreateRole)
	roles.Put("/:id", auth.RequireAuthority(domain.AuthorityEditRole), cfg.Roles.UpdateRole)
	roles.Delete("/:id", auth.RequireAuthority(domain.AuthorityDeleteRole), cfg.Roles.DeleteRole)

	clients := api.Group("/clients")
	clients.Get("/", cfg.Clients.ListClients)
	clients.Get("/:id", cfg.Clients.GetClient)
	clients.Post("/", cfg.Clients.CreateClient)
	clients.Put("/:id", cfg.Clients.UpdateClient)
	clients.Delete("/:id", cfg.Clients.DeleteClient)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.ListNotifications)
	notifications.Delete("/:id", cfg.Notifications.DeleteNotification)
}
