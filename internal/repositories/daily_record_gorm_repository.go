package repositories

import (
	"context"
	"time"

	"wellness/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var recordKeyColumns = []clause.Column{{Name: "user_id"}, {Name: "entry_date"}, {Name: "kind"}}

// GORMDailyRecordRepository is a GORM implementation of DailyRecordRepository.
type GORMDailyRecordRepository struct {
	db *gorm.DB
}

// NewGORMDailyRecordRepository creates a new instance of GORMDailyRecordRepository.
func NewGORMDailyRecordRepository(db *gorm.DB) *GORMDailyRecordRepository {
	return &GORMDailyRecordRepository{
		db: db,
	}
}

// Upsert runs insert-or-resolve in one transaction. The unique index on the
// key makes the INSERT ... ON CONFLICT DO NOTHING the single point where
// concurrent submissions for the same key are decided.
func (r *GORMDailyRecordRepository) Upsert(ctx context.Context, record *models.DailyRecord, overwrite bool) (*UpsertResult, error) {
	var result *UpsertResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: recordKeyColumns, DoNothing: true}).Create(record)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result = &UpsertResult{Outcome: OutcomeCreated, Record: record}
			return nil
		}

		existing, err := findKey(tx, record.Key(), overwrite)
		if err != nil {
			return err
		}
		if !overwrite {
			result = &UpsertResult{Outcome: OutcomeConflict, Record: existing}
			return nil
		}

		at := record.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		cols := record.MutableColumns()
		cols["updated_at"] = at
		if err := tx.Model(&models.DailyRecord{}).Where("id = ?", existing.ID).Updates(cols).Error; err != nil {
			return err
		}

		previous := *existing
		updated := *existing
		updated.ApplyPayload(record)
		updated.UpdatedAt = &at
		result = &UpsertResult{Outcome: OutcomeUpdated, Record: &updated, Previous: &previous}
		return nil
	})
	if err != nil {
		// A unique violation here means the key arbitration itself failed,
		// which is not the conflict callers can act on.
		return nil, storageError("upsert daily record", err)
	}
	return result, nil
}

// findKey reads the row holding key. When it is about to be overwritten on
// PostgreSQL the row is locked until the transaction ends; SQLite already
// serializes writers.
func findKey(tx *gorm.DB, key models.RecordKey, lock bool) (*models.DailyRecord, error) {
	q := tx.Where("user_id = ? AND entry_date = ? AND kind = ?", key.UserID, key.EntryDate, key.Kind)
	if lock && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var existing models.DailyRecord
	if err := q.First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// FindByKey returns the record stored under key.
func (r *GORMDailyRecordRepository) FindByKey(ctx context.Context, key models.RecordKey) (*models.DailyRecord, error) {
	existing, err := findKey(r.db.WithContext(ctx), key, false)
	if err != nil {
		return nil, translate("find daily record", err)
	}
	return existing, nil
}

// List returns the user's records of one kind, newest entry date first.
func (r *GORMDailyRecordRepository) List(ctx context.Context, userID uint, q RecordQuery) ([]models.DailyRecord, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, q.Kind)
	if q.From != nil {
		query = query.Where("entry_date >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("entry_date <= ?", *q.To)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var records []models.DailyRecord
	if err := query.Order("entry_date DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, translate("list daily records", err)
	}
	return records, nil
}
