package repositories

import (
	"context"
	"time"

	"wellness/internal/models"
)

// UpsertOutcome reports which transition a submission took.
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota + 1
	OutcomeUpdated
	OutcomeConflict
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeConflict:
		return "conflict"
	}
	return "unknown"
}

// UpsertResult is the typed result of DailyRecordRepository.Upsert.
type UpsertResult struct {
	Outcome UpsertOutcome
	// Record is the stored row after the operation. For OutcomeConflict it is
	// the row that already occupies the key.
	Record *models.DailyRecord
	// Previous is the row as it was before an overwrite. Only set for OutcomeUpdated.
	Previous *models.DailyRecord
}

// RecordQuery narrows a listing of one user's records.
type RecordQuery struct {
	Kind models.RecordKind
	// From and To bound entry_date inclusively when set.
	From  *time.Time
	To    *time.Time
	Limit int
}

// DailyRecordRepository stores at most one record per (user, date, kind).
type DailyRecordRepository interface {
	// Upsert inserts record when its key is free. When the key is taken it
	// reports OutcomeConflict, or with overwrite replaces the payload columns
	// in place and sets updated_at to record.CreatedAt. The decision is atomic.
	Upsert(ctx context.Context, record *models.DailyRecord, overwrite bool) (*UpsertResult, error)
	FindByKey(ctx context.Context, key models.RecordKey) (*models.DailyRecord, error)
	// List returns matching records newest entry_date first.
	List(ctx context.Context, userID uint, q RecordQuery) ([]models.DailyRecord, error)
}
