package model

import (
	"errors"
	"time"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

type JobKind string

const (
	// KindScript jobs write a script for a title, then voice it.
	KindScript JobKind = "script"
	// KindAudio jobs voice a script supplied by the client.
	KindAudio JobKind = "audio"
)

type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
)

var ErrNotFound = errors.New("not found")

// Job is one script and/or audio generation for a single title/language pair.
//
// - Script, AudioURL and Error stay nil until the worker that owns the job sets them.
// - BatchID is nil for standalone jobs.
type Job struct {
	ID        string    `json:"id"`
	BatchID   *string   `json:"batch_id,omitempty"`
	Kind      JobKind   `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Language  string    `json:"language"`
	Status    JobStatus `json:"status"`
	Script    *string   `json:"script"`
	AudioURL  *string   `json:"audio_url"`
	Error     *string   `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobPatch is used for partial updates. Nil fields are left untouched.
type JobPatch struct {
	Status   *JobStatus
	Script   *string
	AudioURL *string
	Error    *string
}

// Batch groups the jobs created together from one titles x languages request.
// JobIDs and TotalJobs are fixed at creation; the counters are derived on read.
type Batch struct {
	ID            string      `json:"id"`
	JobIDs        []string    `json:"job_ids"`
	TotalJobs     int         `json:"total_jobs"`
	CompletedJobs int         `json:"completed_jobs"`
	FailedJobs    int         `json:"failed_jobs"`
	Status        BatchStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type BatchPatch struct {
	CompletedJobs *int
	FailedJobs    *int
	Status        *BatchStatus
}

// Progress is the per-status breakdown of a batch at the time it was computed.
type Progress struct {
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
	Pending    int `json:"pending"`
	Total      int `json:"total"`
}

// Done reports whether every job of the batch reached a terminal status.
func (p Progress) Done() bool {
	return p.Completed+p.Failed == p.Total
}

func Ptr[T any](v T) *T { return &v }
