// internal/store/model/model.go
package model

import "time"

// JobStatus is the lifecycle state of a transformation job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// JobParams are validated and clamped at creation time and immutable
// thereafter.
type JobParams struct {
	Iterations int    `json:"iterations"`
	Kernel     string `json:"kernel"`
}

// Job is keyed by (owner, id). OutputKey and ThumbKey are set if and only
// if the status is done.
type Job struct {
	OwnerID   string    `gorm:"column:owner_id;primaryKey" json:"ownerId"`
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	FileID    string    `gorm:"column:file_id" json:"fileId"`
	Status    JobStatus `gorm:"column:status" json:"status"`
	Params    JobParams `gorm:"column:params;serializer:json" json:"params"`
	OutputKey string    `gorm:"column:output_key" json:"outputKey,omitempty"`
	ThumbKey  string    `gorm:"column:thumb_key" json:"thumbKey,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Job) TableName() string { return "jobs" }

// JobLogDetail is the structured payload of one processing attempt.
type JobLogDetail struct {
	DurationMs int64  `json:"durationMs"`
	Iterations int    `json:"iterations"`
	Kernel     string `json:"kernel"`
}

// JobLog is append-only; ID is timestamp-derived so ascending order is
// processing order.
type JobLog struct {
	JobID     string       `gorm:"column:job_id;primaryKey" json:"jobId"`
	ID        string       `gorm:"column:id;primaryKey" json:"id"`
	OwnerID   string       `gorm:"column:owner_id" json:"ownerId"`
	Stage     string       `gorm:"column:stage" json:"stage"`
	Detail    JobLogDetail `gorm:"column:detail;serializer:json" json:"detail"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"createdAt"`
}

func (JobLog) TableName() string { return "job_logs" }

// File is the metadata record an input blob is resolved through. The
// engine only reads it.
type File struct {
	OwnerID   string    `gorm:"column:owner_id;primaryKey" json:"ownerId"`
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	BlobKey   string    `gorm:"column:blob_key" json:"blobKey"`
	Mime      string    `gorm:"column:mime" json:"mime"`
	Size      int64     `gorm:"column:size" json:"size"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (File) TableName() string { return "files" }
