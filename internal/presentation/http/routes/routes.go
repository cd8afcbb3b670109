package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/config"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/handler"
	"github.com/sangkips/tableside-api/internal/presentation/http/middleware"
	"github.com/sangkips/tableside-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	Restaurant *handler.RestaurantHandler
	Dashboard  *handler.DashboardHandler
	User       *handler.UserHandler
	Order      *handler.OrderHandler
	Table      *handler.TableHandler
	Inventory  *handler.InventoryHandler
	Menu       *handler.MenuHandler
	Payment    *handler.PaymentHandler
	Public     *handler.PublicHandler
	WS         *handler.WSHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RestaurantRepo  domainRepo.RestaurantRepository
	Log             zerolog.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RecoveryMiddleware(deps.Log))
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	rateLimiter := middleware.NewRestaurantRateLimiter(rateLimiterConfig(deps.Cfg.RateLimit))

	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		public := v1.Group("/public/:slug")
		public.Use(middleware.PublicRestaurantMiddleware(deps.RestaurantRepo))
		public.Use(rateLimiter.Middleware())
		registerPublicRoutes(public, h, deps)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.RequireRestaurant())
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func rateLimiterConfig(cfg config.RateLimitConfig) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		rl.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		rl.BurstSize = cfg.Requests
	}
	rl.CleanupInterval = 5 * time.Minute
	rl.EntryTTL = 10 * time.Minute
	return rl
}

func idempotent(deps *Deps) gin.HandlerFunc {
	return middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		Log:  deps.Log,
	})
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerPublicRoutes(public *gin.RouterGroup, h *Handlers, deps *Deps) {
	public.GET("/menu", h.Public.Menu)
	public.GET("/tables/:number", h.Public.Table)
	public.POST("/tables/:number/check-in", h.Public.CheckIn)
	public.POST("/tables/:number/orders", idempotent(deps), h.Public.PlaceOrder)
	public.GET("/orders/:id", h.Public.TrackOrder)
	public.POST("/orders/:id/payments", h.Public.StartPayment)
	public.POST("/payments/:txnId/proof", h.Public.SubmitProof)
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	// Dashboard
	protected.GET("/dashboard", middleware.RequireRole(string(enum.RoleAdmin), string(enum.RoleManager)), h.Dashboard.GetStats)

	// Live updates for staff screens
	protected.GET("/ws", h.WS.Connect)

	registerRestaurantRoutes(protected, h)
	registerStaffRoutes(protected, h)
	registerOrderRoutes(protected, h, deps)
	registerTableRoutes(protected, h)
	registerInventoryRoutes(protected, h)
	registerMenuRoutes(protected, h)
	registerPaymentRoutes(protected, h, deps)
}

func registerRestaurantRoutes(protected *gin.RouterGroup, h *Handlers) {
	restaurant := protected.Group("/restaurant")
	{
		restaurant.GET("", h.Restaurant.GetCurrent)
		restaurant.PUT("", middleware.RequireRole(string(enum.RoleAdmin), string(enum.RoleManager)), h.Restaurant.UpdateCurrent)
	}
}

func registerStaffRoutes(protected *gin.RouterGroup, h *Handlers) {
	staff := protected.Group("/staff")
	staff.Use(middleware.RequireRole(string(enum.RoleAdmin), string(enum.RoleManager)))
	{
		staff.GET("", h.User.List)
		staff.POST("", h.User.Create)
		staff.GET("/:id", h.User.Get)
		staff.PATCH("/:id", h.User.Update)
	}
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	orders := protected.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission(enum.PermViewOrders), h.Order.List)
		orders.GET("/kitchen", middleware.RequirePermission(enum.PermViewOrders), h.Order.KitchenQueue)
		orders.GET("/:id", middleware.RequirePermission(enum.PermViewOrders), h.Order.Get)
		orders.GET("/:id/payments", middleware.RequirePermission(enum.PermViewOrders), h.Payment.ListForOrder)

		orders.POST("", middleware.RequirePermission(enum.PermManageOrders), idempotent(deps), h.Order.Create)
		orders.POST("/:id/items", middleware.RequirePermission(enum.PermManageOrders), h.Order.AddItems)
		orders.DELETE("/:id/items/:itemId", middleware.RequirePermission(enum.PermManageOrders), h.Order.RemoveItem)
		orders.POST("/:id/cancel", middleware.RequirePermission(enum.PermManageOrders), h.Order.Cancel)
		orders.PATCH("/:id/priority", middleware.RequirePermission(enum.PermManageOrders), h.Order.SetPriority)

		// Kitchen staff move orders and lines along; waiters mark them served
		orders.PATCH("/:id/status", middleware.RequirePermission(enum.PermViewOrders), h.Order.UpdateStatus)
		orders.PATCH("/:id/items/:itemId/status", middleware.RequirePermission(enum.PermUpdateKitchen), h.Order.UpdateItemStatus)
	}
}

func registerTableRoutes(protected *gin.RouterGroup, h *Handlers) {
	tables := protected.Group("/tables")
	tables.Use(middleware.RequirePermission(enum.PermManageTables))
	{
		tables.GET("", h.Table.List)
		tables.POST("", h.Table.Create)
		tables.GET("/:id", h.Table.Get)
		tables.DELETE("/:id", h.Table.Delete)
		tables.PATCH("/:id/status", h.Table.SetStatus)
		tables.POST("/:id/check-in", h.Table.CheckIn)
		tables.POST("/:id/check-out", h.Table.CheckOut)
		tables.GET("/:id/sessions", h.Table.Sessions)
		tables.GET("/:id/availability", h.Table.Availability)
		tables.GET("/:id/reservations", h.Table.ListReservations)
		tables.POST("/:id/reservations", h.Table.CreateReservation)
	}

	reservations := protected.Group("/reservations")
	reservations.Use(middleware.RequirePermission(enum.PermManageTables))
	{
		reservations.PATCH("/:reservationId/status", h.Table.UpdateReservationStatus)
	}
}

func registerInventoryRoutes(protected *gin.RouterGroup, h *Handlers) {
	inventory := protected.Group("/inventory")
	inventory.Use(middleware.RequirePermission(enum.PermManageInventory))
	{
		inventory.GET("", h.Inventory.List)
		inventory.POST("", h.Inventory.Create)
		inventory.GET("/:id", h.Inventory.Get)
		inventory.PUT("/:id", h.Inventory.Update)
		inventory.DELETE("/:id", h.Inventory.Delete)
		inventory.GET("/:id/transactions", h.Inventory.ListTransactions)
		inventory.POST("/:id/transactions", h.Inventory.RecordTransaction)
	}
}

func registerMenuRoutes(protected *gin.RouterGroup, h *Handlers) {
	menu := protected.Group("/menu")
	{
		menu.GET("", h.Menu.List)
		menu.GET("/:id", h.Menu.Get)
		menu.POST("", middleware.RequirePermission(enum.PermManageMenu), h.Menu.Create)
		menu.PUT("/:id/recipe", middleware.RequirePermission(enum.PermManageMenu), h.Menu.SetRecipe)
		menu.PATCH("/:id/availability", middleware.RequirePermission(enum.PermManageMenu), h.Menu.SetAvailability)
	}
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payments")
	payments.Use(middleware.RequirePermission(enum.PermManagePayments))
	{
		payments.POST("", h.Payment.Initialize)
		payments.POST("/cash", idempotent(deps), h.Payment.ConfirmCash)
		payments.GET("/:txnId", h.Payment.Get)
		payments.POST("/:txnId/proof", h.Payment.RecordProof)
		payments.POST("/:txnId/verify", middleware.RequirePermission(enum.PermVerifyPayments), h.Payment.Verify)
	}
}
