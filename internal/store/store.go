package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/tendant/simple-transform/internal/store/model"
)

// Job interface for job metadata operations. Records are keyed by
// (owner, id); status updates affect only the status, key and timestamp
// columns, never the immutable fields.
type Job interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, ownerID, id string) (*model.Job, error)
	List(ctx context.Context, ownerID string, limit int) ([]model.Job, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status model.JobStatus) error
	SetDone(ctx context.Context, ownerID, id, outputKey, thumbKey string) error
}

// JobLog interface for the append-only processing log.
type JobLog interface {
	Append(ctx context.Context, entry *model.JobLog) error
	List(ctx context.Context, jobID string) ([]model.JobLog, error)
}

// File interface for input file metadata. The engine only reads; Create
// exists for the producing side and tests.
type File interface {
	Create(ctx context.Context, file *model.File) error
	Get(ctx context.Context, ownerID, id string) (*model.File, error)
}

// Store aggregates the per-entity stores.
type Store interface {
	Job() Job
	JobLog() JobLog
	File() File
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	jobs    Job
	jobLogs JobLog
	files   File
}

var _ Store = (*DataStore)(nil)

func NewStore(db *gorm.DB) *DataStore {
	return &DataStore{
		db:      db,
		jobs:    NewJobStore(db),
		jobLogs: NewJobLogStore(db),
		files:   NewFileStore(db),
	}
}

func (s *DataStore) Job() Job       { return s.jobs }
func (s *DataStore) JobLog() JobLog { return s.jobLogs }
func (s *DataStore) File() File     { return s.files }

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
