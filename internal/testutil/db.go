// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"momo/internal/models"
	"momo/internal/repositories"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// A single connection serializes writers the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

// SeedUser creates a user with a wallet holding balance.
func SeedUser(t *testing.T, db *gorm.DB, phone, country string, tier models.KYCTier, balance int64) (*models.User, *models.Wallet) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Phone: phone, Name: phone, Country: country, KYCTier: tier}
	require.NoError(t, repositories.NewUserRepository(db).Create(ctx, user))

	wallet := &models.Wallet{UserID: user.ID, Currency: "XAF"}
	wallets := repositories.NewWalletRepository(db)
	require.NoError(t, wallets.Create(ctx, wallet))
	if balance > 0 {
		require.NoError(t, wallets.ApplyBalance(ctx, wallet, balance, 0))
	}
	return user, wallet
}

// Wallet reloads a wallet by id.
func Wallet(t *testing.T, db *gorm.DB, id uint) *models.Wallet {
	t.Helper()
	w, err := repositories.NewWalletRepository(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return w
}

// CountTransactions returns the number of ledger records.
func CountTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	return n
}
