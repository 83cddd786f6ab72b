// Package store keeps job and batch records.
package store

import (
	"context"

	"github.com/example/scriptforge/api-go/internal/model"
)

// Repository is the job and batch store shared by the HTTP handlers and the
// workers. Get methods return model.ErrNotFound for unknown ids and always
// return copies, so callers never share memory with the store.
type Repository interface {
	CreateJob(ctx context.Context, job model.Job) error
	GetJob(ctx context.Context, id string) (model.Job, error)
	// GetJobs returns the jobs for ids in the same order.
	GetJobs(ctx context.Context, ids []string) ([]model.Job, error)
	ListJobs(ctx context.Context, status *model.JobStatus, limit int) ([]model.Job, error)
	UpdateJob(ctx context.Context, id string, patch model.JobPatch) (model.Job, error)

	CreateBatch(ctx context.Context, batch model.Batch) error
	GetBatch(ctx context.Context, id string) (model.Batch, error)
	UpdateBatch(ctx context.Context, id string, patch model.BatchPatch) (model.Batch, error)

	Close() error
}

const defaultListLimit = 25
