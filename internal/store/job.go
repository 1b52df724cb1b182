package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tendant/simple-transform/internal/store/model"
)

// JobStore implements the Job interface on gorm.
type JobStore struct {
	db *gorm.DB
}

var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	if result := s.db.WithContext(ctx).Create(job); result.Error != nil {
		return fmt.Errorf("creating job: %w", result.Error)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, ownerID, id string) (*model.Job, error) {
	var job model.Job
	result := s.db.WithContext(ctx).First(&job, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, ownerID string, limit int) ([]model.Job, error) {
	var jobs []model.Job
	result := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("listing jobs: %w", result.Error)
	}
	return jobs, nil
}

// UpdateStatus moves a job to a non-done status. Output keys are cleared
// so that they are present if and only if the job is done.
func (s *JobStore) UpdateStatus(ctx context.Context, ownerID, id string, status model.JobStatus) error {
	result := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(map[string]any{"status": status, "output_key": "", "thumb_key": ""})
	if result.Error != nil {
		return fmt.Errorf("updating job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetDone records the terminal success state together with both output
// keys in a single update.
func (s *JobStore) SetDone(ctx context.Context, ownerID, id, outputKey, thumbKey string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(map[string]any{
			"status":     model.JobStatusDone,
			"output_key": outputKey,
			"thumb_key":  thumbKey,
		})
	if result.Error != nil {
		return fmt.Errorf("marking job done: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
