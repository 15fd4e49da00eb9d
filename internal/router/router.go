package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/interatlas/management-system/internal/handler"    // handlers translating HTTP to workflow calls
	"github.com/interatlas/management-system/internal/middleware" // JWT, admin gate, language and rate limiting
)

// Handlers bundles everything the API routes dispatch to.
type Handlers struct {
	Accounts *handler.AccountHandler
	Work     *handler.WorkHandler
	Catalog  *handler.CatalogHandler
	Reports  *handler.ReportHandler
}

// Guards are the middlewares shared by the route groups.
type Guards struct {
	Auth        echo.MiddlewareFunc // JWTAuth
	RateLimit   echo.MiddlewareFunc // token bucket on credential endpoints
	DefaultLang string
}

// RegisterRoutes registers the routes that live outside the API: the
// health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI registers every endpoint under /api/:lang.  Public auth
// routes need no token; everything else requires JWTAuth, and the
// admin group additionally RequireAdmin.
func RegisterAPI(e *echo.Echo, h Handlers, g Guards) {
	api := e.Group("/api/:lang", middleware.Language(g.DefaultLang))

	// ---- Public: login, registration and password recovery ----
	pub := api.Group("/auth")
	pub.POST("/login", h.Accounts.Login, g.RateLimit)
	pub.GET("/register", h.Accounts.Invitation)
	pub.POST("/register", h.Accounts.Register)
	pub.POST("/forgot-password", h.Accounts.ForgotPassword, g.RateLimit)
	pub.GET("/reset-password", h.Accounts.CheckResetToken)
	pub.POST("/reset-password", h.Accounts.ResetPassword)
	pub.GET("/verify-email", h.Accounts.VerifyEmail)
	pub.GET("/verify-email/:token", h.Accounts.VerifyEmail)

	// ---- Authenticated ----
	auth := api.Group("", g.Auth)
	auth.POST("/auth/logout", h.Accounts.Logout)
	auth.GET("/me", h.Accounts.Me)
	auth.PUT("/me/settings", h.Accounts.UpdateSettings)

	auth.GET("/tasks", h.Work.ListTasks)
	auth.POST("/tasks", h.Work.CreateTask)
	auth.POST("/tasks/:id/complete", h.Work.CompleteTask)

	auth.GET("/visits", h.Work.ListVisits)
	auth.GET("/visits/:id", h.Work.VisitDetail)

	auth.POST("/services", h.Work.RecordService)
	auth.POST("/replacements", h.Work.RecordReplacement)

	auth.GET("/clients", h.Catalog.ListClients)
	auth.GET("/clients/:id", h.Catalog.GetClient)
	auth.GET("/machines", h.Catalog.ListMachines)
	auth.GET("/machines/:serial", h.Catalog.MachineInfo)
	auth.GET("/machine-types", h.Catalog.ListMachineTypes)
	auth.GET("/machine-types/:id/prices", h.Catalog.Prices)
	auth.GET("/locations", h.Catalog.ListLocations)
	auth.GET("/parts", h.Catalog.ListParts)
	auth.GET("/parts/:number", h.Catalog.GetPart)

	auth.GET("/reports/clients/:id/parts", h.Reports.Parts)
	auth.GET("/reports/clients/:id/quarterly", h.Reports.Quarterly)
	auth.GET("/reports/monthly", h.Reports.Monthly)

	// ---- Admin only ----
	adm := api.Group("", g.Auth, middleware.RequireAdmin())
	adm.POST("/users/invite", h.Accounts.Invite, g.RateLimit)
	adm.GET("/users", h.Accounts.ListUsers)
	adm.PUT("/users/:id", h.Accounts.SetUserFlags)

	adm.POST("/clients", h.Catalog.CreateClient)
	adm.PUT("/clients/:id", h.Catalog.UpdateClient)

	adm.POST("/machines", h.Catalog.CreateMachine)
	adm.PUT("/machines/:id", h.Catalog.UpdateMachine)
	adm.POST("/machine-types", h.Catalog.CreateMachineType)
	adm.POST("/locations", h.Catalog.CreateLocation)

	adm.POST("/parts", h.Catalog.CreatePart)
	adm.PUT("/parts/:number/stock", h.Catalog.Recount)

	adm.POST("/visits", h.Work.CreateVisit)
	adm.PUT("/visits/:id", h.Work.EditVisit)
	adm.DELETE("/visits/:id", h.Work.DeleteVisit)
}
