package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-transform/internal/store/model"
)

// MemoryStore is an in-memory Store used by tests and single-process
// deployments without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	jobLogs []model.JobLog
	files   map[string]*model.File
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[string]*model.Job),
		files: make(map[string]*model.File),
	}
}

func (s *MemoryStore) Job() Job       { return (*memoryJobs)(s) }
func (s *MemoryStore) JobLog() JobLog { return (*memoryJobLogs)(s) }
func (s *MemoryStore) File() File     { return (*memoryFiles)(s) }
func (s *MemoryStore) Close() error   { return nil }

func compositeKey(ownerID, id string) string { return ownerID + "/" + id }

type memoryJobs MemoryStore

var _ Job = (*memoryJobs)(nil)

func (s *memoryJobs) Create(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	clone := *job
	s.jobs[compositeKey(job.OwnerID, job.ID)] = &clone
	return nil
}

func (s *memoryJobs) Get(_ context.Context, ownerID, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[compositeKey(ownerID, id)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *memoryJobs) List(_ context.Context, ownerID string, limit int) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []model.Job
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *memoryJobs) UpdateStatus(_ context.Context, ownerID, id string, status model.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[compositeKey(ownerID, id)]
	if !ok {
		return ErrRecordNotFound
	}
	job.Status = status
	job.OutputKey = ""
	job.ThumbKey = ""
	job.UpdatedAt = time.Now()
	return nil
}

func (s *memoryJobs) SetDone(_ context.Context, ownerID, id, outputKey, thumbKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[compositeKey(ownerID, id)]
	if !ok {
		return ErrRecordNotFound
	}
	job.Status = model.JobStatusDone
	job.OutputKey = outputKey
	job.ThumbKey = thumbKey
	job.UpdatedAt = time.Now()
	return nil
}

type memoryJobLogs MemoryStore

var _ JobLog = (*memoryJobLogs)(nil)

func (s *memoryJobLogs) Append(_ context.Context, entry *model.JobLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.jobLogs = append(s.jobLogs, *entry)
	return nil
}

func (s *memoryJobLogs) List(_ context.Context, jobID string) ([]model.JobLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []model.JobLog
	for _, entry := range s.jobLogs {
		if entry.JobID == jobID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

type memoryFiles MemoryStore

var _ File = (*memoryFiles)(nil)

func (s *memoryFiles) Create(_ context.Context, file *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	clone := *file
	s.files[compositeKey(file.OwnerID, file.ID)] = &clone
	return nil
}

func (s *memoryFiles) Get(_ context.Context, ownerID, id string) (*model.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[compositeKey(ownerID, id)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *file
	return &clone, nil
}
