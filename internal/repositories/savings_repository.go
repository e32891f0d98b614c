package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momo/internal/models"

	"gorm.io/gorm"
)

type SavingsRepository interface {
	Create(ctx context.Context, goal *models.SavingsGoal) error
	GetByID(ctx context.Context, id uint) (*models.SavingsGoal, error)
	ListByUser(ctx context.Context, userID uint) ([]models.SavingsGoal, error)

	// ApplyBalance adds delta to the goal balance it was read with and marks the
	// goal completed when the target is reached.
	ApplyBalance(ctx context.Context, goal *models.SavingsGoal, delta int64) error
}

type savingsRepository struct {
	db *gorm.DB
}

func NewSavingsRepository(db *gorm.DB) SavingsRepository {
	return &savingsRepository{db: db}
}

func (r *savingsRepository) Create(ctx context.Context, goal *models.SavingsGoal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("failed to create savings goal: %w", err)
	}
	return nil
}

func (r *savingsRepository) GetByID(ctx context.Context, id uint) (*models.SavingsGoal, error) {
	var goal models.SavingsGoal
	if err := r.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get savings goal: %w", err)
	}
	return &goal, nil
}

func (r *savingsRepository) ListByUser(ctx context.Context, userID uint) ([]models.SavingsGoal, error) {
	var goals []models.SavingsGoal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	return goals, nil
}

func (r *savingsRepository) ApplyBalance(ctx context.Context, goal *models.SavingsGoal, delta int64) error {
	next := goal.Balance + delta
	if next < 0 {
		return ErrInsufficientFunds
	}

	now := time.Now()
	status := goal.Status
	completedAt := goal.CompletedAt
	if status == models.SavingsStatusActive && next >= goal.TargetAmount {
		status = models.SavingsStatusCompleted
		completedAt = &now
	}

	result := r.db.WithContext(ctx).
		Model(&models.SavingsGoal{}).
		Where("id = ? AND version = ?", goal.ID, goal.Version).
		Updates(map[string]interface{}{
			"balance":      next,
			"status":       status,
			"completed_at": completedAt,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update savings goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	goal.Balance = next
	goal.Status = status
	goal.CompletedAt = completedAt
	goal.Version++
	goal.UpdatedAt = now
	return nil
}
