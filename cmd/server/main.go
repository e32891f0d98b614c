// Package main is the entry point for the ledger API.
// It initializes all dependencies, sets up the HTTP server,
// runs the reconciliation sweep and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"momo/internal/config"
	"momo/internal/logger"
	"momo/internal/repositories"
	"momo/internal/routes"
	"momo/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	logger.Init(config.IsProduction())
	defer logger.Sync()

	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		logger.Log.Fatal("JWT_SECRET must be set")
	}

	ledgerCfg, err := config.LoadLedger(config.GetEnv("LEDGER_CONFIG", "configs/ledger.yaml"))
	if err != nil {
		logger.Log.Fatal("invalid ledger configuration", zap.Error(err))
	}

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		logger.Log.Fatal("failed to initialise storage", zap.Error(err))
	}
	defer repositories.Close()

	services := routes.BuildServices(repositories.DB, repositories.CacheService, ledgerCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runReconciler(ctx, services.Ledger,
		config.GetDurationEnv("RECONCILE_INTERVAL", time.Minute),
		services.Ledger.MinReconcileAge())

	app := fiber.New(fiber.Config{
		AppName:      "momo",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,HEAD",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))

	app.Use("/api/wallet", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, repositories.DB, repositories.CacheService, services, jwtSecret)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + config.GetEnv("PORT", "3000")
	logger.Log.Info("listening", zap.String("addr", addr), zap.Bool("atomic_mutations", ledgerCfg.AtomicMutations))
	if err := app.Listen(addr); err != nil {
		logger.Log.Error("server stopped", zap.Error(err))
	}
}

// runReconciler settles PENDING records left behind by the sequential path.
func runReconciler(ctx context.Context, ledger transaction.Service, interval, age time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := ledger.Reconcile(ctx, age)
			if err != nil {
				logger.Log.Error("reconcile sweep failed", zap.Error(err))
				continue
			}
			if report.Scanned > 0 {
				logger.Log.Info("reconcile sweep",
					zap.Int("scanned", report.Scanned),
					zap.Int("completed", report.Completed),
					zap.Int("cancelled", report.Cancelled),
					zap.Int("failed", report.Failed))
			}
		}
	}
}
