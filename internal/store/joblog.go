package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tendant/simple-transform/internal/store/model"
)

// JobLogStore implements the JobLog interface on gorm.
type JobLogStore struct {
	db *gorm.DB
}

var _ JobLog = (*JobLogStore)(nil)

func NewJobLogStore(db *gorm.DB) *JobLogStore {
	return &JobLogStore{db: db}
}

func (s *JobLogStore) Append(ctx context.Context, entry *model.JobLog) error {
	if result := s.db.WithContext(ctx).Create(entry); result.Error != nil {
		return fmt.Errorf("appending job log: %w", result.Error)
	}
	return nil
}

func (s *JobLogStore) List(ctx context.Context, jobID string) ([]model.JobLog, error) {
	var entries []model.JobLog
	result := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("listing job logs: %w", result.Error)
	}
	return entries, nil
}
