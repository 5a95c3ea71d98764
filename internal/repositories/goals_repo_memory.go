package repositories

import (
	"context"
	"sync"
	"time"

	"wellness/internal/models"
)

// MemoryGoalsRepository is an in-memory implementation of GoalsRepository.
type MemoryGoalsRepository struct {
	mu     sync.RWMutex
	goals  map[uint]models.UserGoals
	nextID uint
}

// NewMemoryGoalsRepository creates a new instance of MemoryGoalsRepository.
func NewMemoryGoalsRepository() *MemoryGoalsRepository {
	return &MemoryGoalsRepository{goals: make(map[uint]models.UserGoals)}
}

func (r *MemoryGoalsRepository) Create(_ context.Context, goals *models.UserGoals) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goals[goals.UserID]; ok {
		return ErrDuplicate
	}
	r.nextID++
	goals.ID = r.nextID
	if goals.CreatedAt.IsZero() {
		goals.CreatedAt = time.Now()
	}
	r.goals[goals.UserID] = *goals
	return nil
}

func (r *MemoryGoalsRepository) FindByUserID(_ context.Context, userID uint) (*models.UserGoals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals, ok := r.goals[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &goals, nil
}
