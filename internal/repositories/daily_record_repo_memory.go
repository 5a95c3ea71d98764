package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wellness/internal/models"
)

// MemoryDailyRecordRepository is an in-memory implementation of DailyRecordRepository.
// A single mutex covers the whole upsert decision.
type MemoryDailyRecordRepository struct {
	mu      sync.RWMutex
	records map[string]models.DailyRecord
	nextID  uint
}

// NewMemoryDailyRecordRepository creates a new instance of MemoryDailyRecordRepository.
func NewMemoryDailyRecordRepository() *MemoryDailyRecordRepository {
	return &MemoryDailyRecordRepository{
		records: make(map[string]models.DailyRecord),
	}
}

func keyString(k models.RecordKey) string {
	return fmt.Sprintf("%d|%s|%s", k.UserID, k.EntryDate.Format(time.DateOnly), k.Kind)
}

// Upsert creates, rejects or overwrites the record stored under record's key.
func (r *MemoryDailyRecordRepository) Upsert(_ context.Context, record *models.DailyRecord, overwrite bool) (*UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyString(record.Key())
	existing, ok := r.records[k]
	if !ok {
		r.nextID++
		record.ID = r.nextID
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}
		r.records[k] = *record
		return &UpsertResult{Outcome: OutcomeCreated, Record: record}, nil
	}
	if !overwrite {
		return &UpsertResult{Outcome: OutcomeConflict, Record: &existing}, nil
	}

	at := record.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	previous := existing
	existing.ApplyPayload(record)
	existing.UpdatedAt = &at
	r.records[k] = existing
	return &UpsertResult{Outcome: OutcomeUpdated, Record: &existing, Previous: &previous}, nil
}

// FindByKey returns the record stored under key.
func (r *MemoryDailyRecordRepository) FindByKey(_ context.Context, key models.RecordKey) (*models.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[keyString(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List returns the user's records of one kind, newest entry date first.
func (r *MemoryDailyRecordRepository) List(_ context.Context, userID uint, q RecordQuery) ([]models.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.DailyRecord, 0)
	for _, rec := range r.records {
		if rec.UserID != userID || rec.Kind != q.Kind {
			continue
		}
		if q.From != nil && rec.EntryDate.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.EntryDate.After(*q.To) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].EntryDate.Equal(records[j].EntryDate) {
			return records[i].EntryDate.After(records[j].EntryDate)
		}
		return records[i].ID > records[j].ID
	})
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}
