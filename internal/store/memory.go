package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/scriptforge/api-go/internal/model"
)

// Memory is a process-lifetime Repository. The maps are guarded by one
// RWMutex; records are copied in and out.
type Memory struct {
	mu      sync.RWMutex
	jobs    map[string]model.Job
	batches map[string]model.Batch
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		jobs:    make(map[string]model.Job),
		batches: make(map[string]model.Batch),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateJob(_ context.Context, job model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	m.jobs[job.ID] = copyJob(job)
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	return copyJob(job), nil
}

func (m *Memory) GetJobs(_ context.Context, ids []string) ([]model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		job, ok := m.jobs[id]
		if !ok {
			return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
		}
		out = append(out, copyJob(job))
	}
	return out, nil
}

func (m *Memory) ListJobs(_ context.Context, status *model.JobStatus, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	out := make([]model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status != nil && job.Status != *status {
			continue
		}
		out = append(out, copyJob(job))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateJob(_ context.Context, id string, patch model.JobPatch) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Script != nil {
		job.Script = model.Ptr(*patch.Script)
	}
	if patch.AudioURL != nil {
		job.AudioURL = model.Ptr(*patch.AudioURL)
	}
	if patch.Error != nil {
		job.Error = model.Ptr(*patch.Error)
	}
	job.UpdatedAt = m.now()
	m.jobs[id] = job
	return copyJob(job), nil
}

func (m *Memory) CreateBatch(_ context.Context, batch model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batch.ID]; ok {
		return fmt.Errorf("batch %s already exists", batch.ID)
	}
	m.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (m *Memory) GetBatch(_ context.Context, id string) (model.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batch, ok := m.batches[id]
	if !ok {
		return model.Batch{}, model.ErrNotFound
	}
	return copyBatch(batch), nil
}

func (m *Memory) UpdateBatch(_ context.Context, id string, patch model.BatchPatch) (model.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[id]
	if !ok {
		return model.Batch{}, model.ErrNotFound
	}
	if patch.CompletedJobs != nil {
		batch.CompletedJobs = *patch.CompletedJobs
	}
	if patch.FailedJobs != nil {
		batch.FailedJobs = *patch.FailedJobs
	}
	if patch.Status != nil {
		batch.Status = *patch.Status
	}
	batch.UpdatedAt = m.now()
	m.batches[id] = batch
	return copyBatch(batch), nil
}

func copyJob(j model.Job) model.Job {
	if j.BatchID != nil {
		j.BatchID = model.Ptr(*j.BatchID)
	}
	if j.Script != nil {
		j.Script = model.Ptr(*j.Script)
	}
	if j.AudioURL != nil {
		j.AudioURL = model.Ptr(*j.AudioURL)
	}
	if j.Error != nil {
		j.Error = model.Ptr(*j.Error)
	}
	return j
}

func copyBatch(b model.Batch) model.Batch {
	b.JobIDs = append([]string(nil), b.JobIDs...)
	return b
}
