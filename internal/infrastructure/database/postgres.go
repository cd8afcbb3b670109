package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/config"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormWriter routes gorm's logger through zerolog
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewGormLogger builds a gorm logger on top of zerolog. Debug mode logs every query.
func NewGormLogger(log zerolog.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(gormWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, gormLogger logger.Interface, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("connected to PostgreSQL")
	return db, nil
}

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&entity.Restaurant{},
		&entity.User{},
		&entity.IdempotencyKey{},

		// Menu and stock
		&entity.InventoryItem{},
		&entity.InventoryTransaction{},
		&entity.MenuItem{},
		&entity.RecipeIngredient{},

		// Floor
		&entity.Table{},
		&entity.TableSession{},
		&entity.Reservation{},

		// Orders and settlement
		&entity.Order{},
		&entity.OrderItem{},
		&entity.OrderHistory{},
		&entity.OrderSequence{},
		&entity.Payment{},
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("database migrations completed")
	return nil
}

// SeedDefaultData creates the default restaurant and, when credentials are
// configured, its admin account. Running it again changes nothing.
func SeedDefaultData(db *gorm.DB, cfg *config.SeedConfig, log zerolog.Logger) (*entity.Restaurant, error) {
	name := cfg.RestaurantName
	if name == "" {
		name = "Main Restaurant"
	}
	slug := utils.Slugify(name)

	var restaurant entity.Restaurant
	err := db.Where("slug = ?", slug).First(&restaurant).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		restaurant = entity.Restaurant{Name: name, Slug: slug, Currency: "KES", Timezone: cfg.Timezone}
		if err := db.Create(&restaurant).Error; err != nil {
			return nil, fmt.Errorf("create default restaurant: %w", err)
		}
		log.Info().Str("slug", slug).Msg("default restaurant created")
	case err != nil:
		return nil, fmt.Errorf("load default restaurant: %w", err)
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return &restaurant, nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var existing entity.User
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Info().Str("email", email).Msg("admin user already exists")
		return &restaurant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load admin user: %w", err)
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	adminName := cfg.AdminName
	if adminName == "" {
		adminName = "Administrator"
	}
	admin := entity.User{
		RestaurantID: restaurant.ID,
		Name:         adminName,
		Email:        email,
		Password:     hashed,
		Role:         enum.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}

	log.Info().Str("email", email).Msg("admin user created")
	return &restaurant, nil
}
