package repositories

import (
	"context"

	"wellness/internal/models"

	"gorm.io/gorm"
)

// GORMGoalsRepository is a GORM implementation of GoalsRepository.
type GORMGoalsRepository struct {
	db *gorm.DB
}

// NewGORMGoalsRepository creates a new instance of GORMGoalsRepository.
func NewGORMGoalsRepository(db *gorm.DB) *GORMGoalsRepository {
	return &GORMGoalsRepository{db: db}
}

// Create inserts goals; the unique index on user_id rejects a second row.
func (r *GORMGoalsRepository) Create(ctx context.Context, goals *models.UserGoals) error {
	return translate("create goals", r.db.WithContext(ctx).Create(goals).Error)
}

// FindByUserID retrieves the goals of one user.
func (r *GORMGoalsRepository) FindByUserID(ctx context.Context, userID uint) (*models.UserGoals, error) {
	var goals models.UserGoals
	if err := r.db.WithContext(ctx).First(&goals, "user_id = ?", userID).Error; err != nil {
		return nil, translate("find goals", err)
	}
	return &goals, nil
}
