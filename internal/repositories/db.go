// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"momo/internal/config"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories/cache"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the global database instance used by the binaries.
var DB *gorm.DB
var CacheService *cache.CacheService

// DBConfig holds database connection and pool configuration
type DBConfig struct {
	Host            string
	User            string
	Password        string
	Name            string
	Port            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewDBConfig reads the database configuration from the environment.
func NewDBConfig() DBConfig {
	return DBConfig{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Name:            config.GetEnv("DB_NAME", "momo"),
		Port:            config.GetEnv("DB_PORT", "5432"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// InitDB connects PostgreSQL and Redis, applies migrations and sets the globals.
func InitDB() error {
	db, err := OpenPostgres(NewDBConfig())
	if err != nil {
		return err
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	DB = db

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	CacheService = cache.NewCacheService(cache.NewRedisClient(redisCfg), 24*time.Hour)

	logger.Log.Info("database and cache initialised",
		zap.String("db_host", config.GetEnv("DB_HOST", "localhost")),
		zap.String("redis_host", redisCfg.Host))
	return nil
}

// OpenPostgres opens a pooled connection with the gorm logger tuned down to warnings.
func OpenPostgres(cfg DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  !config.IsProduction(),
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// AutoMigrate creates or updates the ledger schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Merchant{},
		&models.Transaction{},
		&models.SavingsGoal{},
	)
}

// DBHealth probes the database for the health endpoint.
type DBHealth struct {
	DB *gorm.DB
}

func (h DBHealth) HealthCheck(ctx context.Context) error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases the global connections.
func Close() {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Log.Warn("failed to close database connection", zap.Error(err))
			}
		}
	}
	if CacheService != nil {
		if err := CacheService.Close(); err != nil {
			logger.Log.Warn("failed to close redis connection", zap.Error(err))
		}
	}
}
