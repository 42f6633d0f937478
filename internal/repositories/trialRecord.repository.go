package repositories

import (
	"context"
	"errors"
	"fmt"

	"trialapi/internal/database"
	"trialapi/internal/logger"
	. "trialapi/internal/models"
	"trialapi/internal/services"

	"gorm.io/gorm"
)

type TrialRecordRepository interface {
	FindByID(ctx context.Context, id string) (*TrialRecord, error)
	ListWhere(ctx context.Context, filter TrialRecordFilter) ([]TrialRecord, error)
	Insert(ctx context.Context, record *TrialRecord) error
	Replace(ctx context.Context, record *TrialRecord) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type trialRecordRepository struct {
	db  database.DB
	log logger.Logger
}

func NewTrialRecord(db database.DB) TrialRecordRepository {
	return &trialRecordRepository{
		db:  db,
		log: logger.New("trialRecordRepository"),
	}
}

func (r *trialRecordRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx.WithContext(ctx)
	}
	return r.db.SQLWithContext(ctx)
}

func (r *trialRecordRepository) FindByID(ctx context.Context, id string) (*TrialRecord, error) {
	var record TrialRecord
	if err := r.getDB(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, r.log.Function("FindByID").Err("failed to get trial record by id", err, "id", id)
	}

	return &record, nil
}

func (r *trialRecordRepository) ListWhere(
	ctx context.Context,
	filter TrialRecordFilter,
) ([]TrialRecord, error) {
	log := r.log.Function("ListWhere")

	query := r.getDB(ctx).Model(&TrialRecord{})

	if filter.ID != "" {
		query = query.Where("id = ?", filter.ID)
	}

	if filter.Title != "" {
		query = query.Where(r.containsClause("title"), filter.Title)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	records := []TrialRecord{}
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, log.Err("failed to list trial records", err, "filter", filter)
	}

	return records, nil
}

// containsClause builds a case-sensitive substring match. LIKE is avoided
// because SQLite compares ASCII case-insensitively and treats % and _ as
// wildcards.
func (r *trialRecordRepository) containsClause(column string) string {
	if r.db.Dialect() == "postgres" {
		return fmt.Sprintf("strpos(%s, ?) > 0", column)
	}
	return fmt.Sprintf("instr(%s, ?) > 0", column)
}

// Insert creates record and fails with ErrConflict when the id is taken.
func (r *trialRecordRepository) Insert(ctx context.Context, record *TrialRecord) error {
	log := r.log.Function("Insert")

	err := r.getDB(ctx).Create(record).Error
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrConflict, record.ID)
	}

	// Drivers without error translation still surface the violation as a
	// generic error; an existing row means the insert lost to it.
	exists, existsErr := r.Exists(ctx, record.ID)
	if existsErr == nil && exists {
		return fmt.Errorf("%w: %s", ErrConflict, record.ID)
	}

	return log.Err("failed to create trial record", err, "id", record.ID)
}

// Replace overwrites every column of an existing record except its creation time.
func (r *trialRecordRepository) Replace(ctx context.Context, record *TrialRecord) error {
	log := r.log.Function("Replace")

	result := r.getDB(ctx).
		Model(&TrialRecord{}).
		Where("id = ?", record.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(record)
	if result.Error != nil {
		return log.Err("failed to replace trial record", result.Error, "id", record.ID)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, record.ID)
	}

	return nil
}

func (r *trialRecordRepository) Delete(ctx context.Context, id string) error {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Delete(&TrialRecord{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete trial record", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (r *trialRecordRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.getDB(ctx).Model(&TrialRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, r.log.Function("Exists").Err("failed to check trial record", err, "id", id)
	}
	return count > 0, nil
}

func (r *trialRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&TrialRecord{}).Count(&count).Error; err != nil {
		return 0, r.log.Function("Count").Err("failed to count trial records", err)
	}
	return count, nil
}
