package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/repositories/cache"
	"momo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 128
	DefaultIdempotencyTTL   = 24 * time.Hour
)

const (
	idemStateProcessing = "processing"
	idemStateCompleted  = "completed"
)

type idempotencyEntry struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency replays the stored response when a client retries a request with
// the same Idempotency-Key. Requests without the header pass straight through.
// It must run after AuthMiddleware so keys are scoped per user.
func Idempotency(store repositories.CacheRepository, ttl time.Duration) fiber.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return utils.BadRequest(c, "Idempotency-Key is too long")
		}

		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "invalid claims")
		}

		ctx := c.UserContext()
		cacheKey := idempotencyKey(claims, key)
		fingerprint := requestFingerprint(c)

		claimed, err := store.SetIfAbsent(ctx, cacheKey, idempotencyEntry{
			State:       idemStateProcessing,
			Fingerprint: fingerprint,
		}, ttl)
		if err != nil {
			logger.Log.Error("idempotency store unavailable", zap.Error(err))
			return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": "idempotency store unavailable"})
		}

		if !claimed {
			var entry idempotencyEntry
			found, err := store.Get(ctx, cacheKey, &entry)
			if err != nil {
				logger.Log.Error("failed to read idempotency entry", zap.Error(err))
				return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": "idempotency store unavailable"})
			}
			switch {
			case !found, entry.State == idemStateProcessing:
				return utils.Respond(c, fiber.StatusConflict, fiber.Map{"error": "a request with this Idempotency-Key is in progress"})
			case entry.Fingerprint != fingerprint:
				return utils.Respond(c, fiber.StatusUnprocessableEntity, fiber.Map{"error": "Idempotency-Key was used for a different request"})
			}
			c.Set(ReplayedHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Status(entry.Status).SendString(entry.Body)
		}

		if err := c.Next(); err != nil {
			// No response was produced; let the client retry with the same key.
			if derr := store.Delete(ctx, cacheKey); derr != nil {
				logger.Log.Warn("failed to release idempotency key", zap.Error(derr))
			}
			return err
		}

		// Every produced response is kept, failures included: a FAILED transfer may
		// already have debited the wallet and must not run twice.
		entry := idempotencyEntry{
			State:       idemStateCompleted,
			Fingerprint: fingerprint,
			Status:      c.Response().StatusCode(),
			Body:        string(c.Response().Body()),
		}
		if err := store.SetWithTTL(ctx, cacheKey, entry, ttl); err != nil {
			logger.Log.Warn("failed to store idempotent response", zap.String("key", cacheKey), zap.Error(err))
		}
		return nil
	}
}

func idempotencyKey(claims *models.UserClaims, key string) string {
	return cache.GenerateKey("idempotency", strconv.FormatUint(uint64(claims.UserID), 10), key)
}

func requestFingerprint(c *fiber.Ctx) string {
	h := sha256.New()
	h.Write([]byte(c.Method()))
	h.Write([]byte(c.Path()))
	h.Write(c.Body())
	return hex.EncodeToString(h.Sum(nil))
}
