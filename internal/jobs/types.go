// Package jobs defines the asynchronous job model for cheque processing and
// the queue/store abstractions it runs on.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

// JobTypeProcessCheque represents an e-cheque processing job.
const JobTypeProcessCheque JobType = "process_cheque"

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ProcessChequeJob represents a job to process an e-cheque PDF from GCS.
type ProcessChequeJob struct {
	JobID string `json:"job_id"`

	// GCSURI is the location of the cheque PDF to process.
	GCSURI string `json:"gcs_uri"`

	// DocumentID and Filename are filled in as the pipeline progresses.
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ProcessChequeJob) GetID() string        { return j.JobID }
func (j *ProcessChequeJob) GetType() JobType     { return JobTypeProcessCheque }
func (j *ProcessChequeJob) GetStatus() JobStatus { return j.Status }

// Publisher publishes jobs to a queue. The abstraction allows different queue
// implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	PublishProcessCheque(ctx context.Context, job *ProcessChequeJob) error
	Close() error
}

// Consumer consumes jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore stores and retrieves job status so executions can be inspected.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessChequeJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessChequeJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessChequeJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
