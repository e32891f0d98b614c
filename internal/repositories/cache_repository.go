package repositories

import (
	"context"
	"time"

	"momo/internal/models"
)

// CacheRepository is the externally owned TTL store the services keep ephemeral
// state in. *cache.CacheService implements it.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Consume(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, keys ...string) error

	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error)
	InvalidateWallet(ctx context.Context, userID uint) error
}

// Default cache expiration time
const DefaultExpiration = 24 * time.Hour
