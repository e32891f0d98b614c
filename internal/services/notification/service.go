// Package notification delivers out-of-band messages to wallet owners.
package notification

import (
	"context"
	"time"

	"momo/internal/logger"

	"go.uber.org/zap"
)

// Service is a minimal notification service implementation. Messages are
// written to the log; an SMS gateway would replace it in deployment.
type Service struct {
	log *zap.Logger
	// revealCodes logs reset codes in clear text, for development only.
	revealCodes bool
}

// NewService creates a new notification service.
func NewService(revealCodes bool) *Service {
	return &Service{
		log:         logger.Log.Named("notification"),
		revealCodes: revealCodes,
	}
}

// SendPinResetCode delivers a one-time PIN reset code to phone.
func (s *Service) SendPinResetCode(ctx context.Context, phone, code string, expiresAt time.Time) error {
	fields := []zap.Field{
		zap.String("phone", maskPhone(phone)),
		zap.Time("expires_at", expiresAt),
	}
	if s.revealCodes {
		fields = append(fields, zap.String("code", code))
	}
	s.log.Info("pin reset code sent", fields...)
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
