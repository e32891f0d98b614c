// Package routes defines the API routing configuration.
// It builds the ledger services, sets up all HTTP routes and their handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"momo/internal/config"
	"momo/internal/handlers"
	"momo/internal/middleware"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/repositories/cache"
	"momo/internal/services/fee"
	"momo/internal/services/limits"
	"momo/internal/services/merchant"
	"momo/internal/services/notification"
	"momo/internal/services/pin"
	"momo/internal/services/reference"
	"momo/internal/services/transaction"
	"momo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services are the ledger components shared by the HTTP layer and the binaries.
type Services struct {
	Users    repositories.UserRepository
	Registry *merchant.Service
	Wallets  wallet.Service
	Ledger   *transaction.Engine
	Pins     *pin.Guard
	Notifier *notification.Service
}

// BuildServices wires the ledger on top of db and the redis cache.
func BuildServices(db *gorm.DB, cacheService *cache.CacheService, ledger config.Ledger) *Services {
	store := repositories.NewLedgerStore(db, ledger.AtomicMutations)
	users := repositories.NewUserRepository(db)
	merchants := repositories.NewMerchantRepository(db)

	guard := pin.NewGuard(store.Wallets(), cacheService, pin.Config{
		MaxAttempts:      ledger.PinMaxAttempts,
		LockoutDurations: ledger.PinLockoutDuration,
		ResetCodeTTL:     config.GetDurationEnv("PIN_RESET_CODE_TTL", 10*time.Minute),
		MaxRetries:       ledger.MaxRetries,
	})

	engine := transaction.NewEngine(transaction.Dependencies{
		Store:      store,
		Users:      users,
		Merchants:  merchants,
		Pins:       guard,
		Limits:     limits.NewChecker(ledger.Limits, store.Transactions(), ledger.Location()),
		Fees:       fee.NewCalculator(ledger.DefaultFees, ledger.CountryFees),
		References: reference.NewGenerator(),
		Cache:      cacheService,
	}, transaction.Config{
		Currency:          ledger.Currency,
		MaxRetries:        ledger.MaxRetries,
		MinReconcileAge:   config.GetDurationEnv("RECONCILE_AGE", transaction.DefaultMinReconcileAge),
		SequentialTimeout: config.GetDurationEnv("SEQUENTIAL_TIMEOUT", transaction.DefaultSequentialTimeout),
	})

	walletService := wallet.NewService(
		store.Wallets(),
		store.Transactions(),
		store.Savings(),
		cacheService,
		wallet.WalletConfig{DefaultCurrency: ledger.Currency},
		&wallet.NoopMetricsCollector{},
	)

	return &Services{
		Users:    users,
		Registry: merchant.NewService(merchants, store.Wallets()),
		Wallets:  walletService,
		Ledger:   engine,
		Pins:     guard,
		Notifier: notification.NewService(!config.IsProduction()),
	}
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheService *cache.CacheService, svc *Services, jwtSecret string) {
	walletHandler := handlers.NewWalletHandler(svc.Wallets)
	transactionHandler := handlers.NewTransactionHandler(svc.Ledger, svc.Users)
	pinHandler := handlers.NewPinHandler(svc.Ledger, svc.Wallets, svc.Pins, svc.Notifier, !config.IsProduction())
	savingsHandler := handlers.NewSavingsHandler(svc.Wallets, svc.Ledger)
	adminHandler := handlers.NewAdminHandler(svc.Pins, svc.Ledger, svc.Ledger.MinReconcileAge())
	merchantHandler := handlers.NewMerchantHandler(svc.Registry)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database": repositories.DBHealth{DB: db},
		"redis":    cacheService,
	})

	auth := middleware.NewAuthMiddleware(jwtSecret)
	idempotent := middleware.Idempotency(cacheService, middleware.DefaultIdempotencyTTL)

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api", auth.Handler)

	walletGroup := api.Group("/wallet")
	walletGroup.Post("/", walletHandler.OpenWallet)
	walletGroup.Get("/", walletHandler.GetWallet)
	walletGroup.Get("/transactions", walletHandler.GetTransactions)
	walletGroup.Post("/withdraw", idempotent, transactionHandler.Withdraw)
	walletGroup.Post("/transfer", idempotent, transactionHandler.Transfer)
	walletGroup.Post("/pay", idempotent, transactionHandler.Pay)
	walletGroup.Post("/pin", pinHandler.SetPin)
	walletGroup.Post("/pin/reset", pinHandler.RequestReset)
	walletGroup.Post("/pin/reset/confirm", pinHandler.ConfirmReset)

	api.Get("/transactions/:reference", walletHandler.GetTransaction)

	savingsGroup := api.Group("/savings")
	savingsGroup.Post("/", savingsHandler.CreateGoal)
	savingsGroup.Get("/", savingsHandler.ListGoals)
	savingsGroup.Post("/:id/deposit", idempotent, savingsHandler.Deposit)
	savingsGroup.Post("/:id/withdraw", idempotent, savingsHandler.Withdraw)

	networkGroup := api.Group("/network", middleware.RequireRole(models.RoleNetwork))
	networkGroup.Post("/deposits", idempotent, transactionHandler.Deposit)

	adminGroup := api.Group("/admin", middleware.AdminAuthMiddleware)
	adminGroup.Post("/wallets/:id/unlock", adminHandler.UnlockWallet)
	adminGroup.Post("/reconcile", adminHandler.Reconcile)
	adminGroup.Post("/merchants", merchantHandler.Register)
	adminGroup.Post("/merchants/:code/activate", merchantHandler.Activate)
	adminGroup.Post("/merchants/:code/deactivate", merchantHandler.Deactivate)
}
