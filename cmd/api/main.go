package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/config"
	"github.com/sangkips/tableside-api/internal/domain/event"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/infrastructure/database"
	"github.com/sangkips/tableside-api/internal/infrastructure/messaging"
	"github.com/sangkips/tableside-api/internal/infrastructure/realtime"
	"github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/handler"
	"github.com/sangkips/tableside-api/internal/presentation/http/routes"
	"github.com/sangkips/tableside-api/pkg/logger"
	"github.com/sangkips/tableside-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, database.NewGormLogger(logger.Component(log, "gorm"), cfg.App.Debug), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed default data
	if _, err := database.SeedDefaultData(db, &cfg.Seed, log); err != nil {
		log.Warn().Err(err).Msg("failed to seed default data")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	txManager := repository.NewTxManager(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	userRepo := repository.NewUserRepository(db)
	tableRepo := repository.NewTableRepository(db)
	sessionRepo := repository.NewTableSessionRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	orderHistoryRepo := repository.NewOrderHistoryRepository(db)
	menuRepo := repository.NewMenuItemRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	inventoryTxnRepo := repository.NewInventoryTransactionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Event sinks: staff screens always, the broker when configured
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, logger.Component(log, "realtime"))
	sinks := event.Fanout{hub}

	var publisher *messaging.RabbitPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = messaging.NewRabbitPublisher(cfg.RabbitMQ, logger.Component(log, "rabbitmq"))
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, events go to websocket clients only")
		} else {
			sinks = append(sinks, publisher)
		}
	}

	// Initialize services
	inventoryService := service.NewInventoryService(txManager, inventoryRepo, inventoryTxnRepo, menuRepo, sinks, logger.Component(log, "inventory"))
	deductions := service.NewAsyncDeductionDispatcher(
		inventoryService,
		cfg.Orders.DeductionWorkers,
		cfg.Orders.DeductionQueue,
		cfg.Orders.DeductionTimeout,
		logger.Component(log, "deductions"),
	)
	tableService := service.NewTableService(txManager, tableRepo, sessionRepo, reservationRepo, orderRepo, sinks, logger.Component(log, "tables"))
	orderService := service.NewOrderService(
		txManager,
		orderRepo,
		orderItemRepo,
		orderHistoryRepo,
		menuRepo,
		restaurantRepo,
		tableService,
		deductions,
		sinks,
		cfg.Orders.NumberPrefix,
		logger.Component(log, "orders"),
	)
	paymentService := service.NewPaymentService(txManager, paymentRepo, orderRepo, orderService, sinks, logger.Component(log, "payments"))
	menuService := service.NewMenuService(txManager, menuRepo, inventoryRepo)
	restaurantService := service.NewRestaurantService(restaurantRepo)
	dashboardService := service.NewDashboardService(orderRepo, tableRepo, inventoryRepo, analyticsRepo)
	authService := service.NewAuthService(userRepo, jwtManager, logger.Component(log, "auth"))
	userService := service.NewUserService(userRepo, logger.Component(log, "users"))

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Restaurant: handler.NewRestaurantHandler(restaurantService),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		User:       handler.NewUserHandler(userService),
		Order:      handler.NewOrderHandler(orderService),
		Table:      handler.NewTableHandler(tableService),
		Inventory:  handler.NewInventoryHandler(inventoryService),
		Menu:       handler.NewMenuHandler(menuService),
		Payment:    handler.NewPaymentHandler(paymentService),
		Public:     handler.NewPublicHandler(tableService, menuService, orderService, paymentService),
		WS:         handler.NewWSHandler(hub, logger.Component(log, "ws")),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RestaurantRepo:  restaurantRepo,
		Log:             log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeIdempotencyKeys(ctx, idempotencyRepo, log)

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Str("env", cfg.App.Env).Msgf("starting %s", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	// Queued deductions run against the database, drain them before closing it
	if err := deductions.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("deduction dispatcher shutdown")
	}
	hub.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("rabbitmq publisher close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// purgeIdempotencyKeys drops expired keys once an hour
func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to purge idempotency keys")
			}
		}
	}
}
