package db

import (
	"context"
	"errors"
	"time"

	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRecordRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRecordRepository(db *gorm.DB, log *logger.Logger) ports.JobRecordRepository {
	return &jobRecordRepository{
		db:  db,
		log: log,
	}
}

// Create stores a record, replacing any earlier record for the same job.
func (r *jobRecordRepository) Create(ctx context.Context, record *domain.JobRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		r.log.Errorw("job_record_repo_create_failed", "job_id", record.JobID, "status", record.Status, "error", err)
		return err
	}
	r.log.Infow("job_record_repo_create_ok", "id", record.ID, "job_id", record.JobID, "status", record.Status)
	return nil
}

func (r *jobRecordRepository) GetByJobID(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		r.log.Errorw("job_record_repo_get_failed", "job_id", jobID, "error", err)
		return nil, err
	}
	return &record, nil
}

func (r *jobRecordRepository) GetRecent(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	var records []domain.JobRecord
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		r.log.Errorw("job_record_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Debugw("job_record_repo_list_ok", "count", len(records))
	return records, nil
}

// CleanupOld permanently removes records older than the specified duration.
func (r *jobRecordRepository) CleanupOld(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	if err := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&domain.JobRecord{}).Error; err != nil {
		r.log.Errorw("job_record_repo_cleanup_failed", "error", err)
		return err
	}
	r.log.Infow("job_record_repo_cleanup_ok", "cutoff", cutoff)
	return nil
}
