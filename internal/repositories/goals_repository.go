package repositories

import (
	"context"

	"wellness/internal/models"
)

// GoalsRepository defines the interface for user goals data access.
type GoalsRepository interface {
	// Create inserts goals. It returns ErrDuplicate when the user already has goals.
	Create(ctx context.Context, goals *models.UserGoals) error
	FindByUserID(ctx context.Context, userID uint) (*models.UserGoals, error)
}
