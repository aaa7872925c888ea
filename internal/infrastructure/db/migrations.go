package db

import (
	"github.com/jobmonitor/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.JobRecord{}); err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// History listings are always newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_records_created_at
		ON job_records (created_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_records_task_status
		ON job_records (task_name, status)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	return nil
}
