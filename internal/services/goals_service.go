package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellness/internal/models"
	"wellness/internal/repositories"
)

// GoalsInput is the baseline assessment submitted once per user.
type GoalsInput struct {
	Awareness        string
	Achieve          []string
	ReminderType     []string
	WeeklyScreenTime int
	PriorityArea     []string
}

// GoalsService stores and reads user goals for the authenticated user only.
type GoalsService struct {
	repo repositories.GoalsRepository
}

// NewGoalsService creates a new GoalsService.
func NewGoalsService(repo repositories.GoalsRepository) *GoalsService {
	return &GoalsService{repo: repo}
}

// Save stores the goals. A user who already set goals gets ErrConflict.
func (s *GoalsService) Save(ctx context.Context, id Identity, in GoalsInput) (*models.UserGoals, error) {
	if strings.TrimSpace(in.Awareness) == "" || len(in.Achieve) == 0 || len(in.ReminderType) == 0 || len(in.PriorityArea) == 0 {
		return nil, validationError("awareness, achieve, reminder_type and priority_area are required")
	}
	if in.WeeklyScreenTime < 0 {
		return nil, validationError("weekly_screen_time must not be negative")
	}

	goals := &models.UserGoals{
		UserID:           id.UserID,
		Awareness:        strings.TrimSpace(in.Awareness),
		Achieve:          in.Achieve,
		ReminderType:     in.ReminderType,
		WeeklyScreenTime: in.WeeklyScreenTime,
		PriorityArea:     in.PriorityArea,
	}
	if err := s.repo.Create(ctx, goals); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: goals already completed for this user", ErrConflict)
		}
		return nil, storageError("create goals", err)
	}
	return goals, nil
}

// Get returns the user's goals, or nil when none were set.
func (s *GoalsService) Get(ctx context.Context, id Identity) (*models.UserGoals, error) {
	goals, err := s.repo.FindByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, storageError("find goals", err)
	}
	return goals, nil
}
