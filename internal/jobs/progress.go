package jobs

import (
	"context"
	"fmt"

	"github.com/example/scriptforge/api-go/internal/model"
)

// BatchReport is a batch together with its jobs and freshly computed progress.
type BatchReport struct {
	Batch    model.Batch    `json:"batch"`
	Jobs     []model.Job    `json:"jobs"`
	Progress model.Progress `json:"progress"`
}

// ComputeProgress counts jobs per status. Anything that is not completed,
// failed or processing counts as pending, so the four counters always add up
// to Total.
func ComputeProgress(jobs []model.Job) model.Progress {
	p := model.Progress{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case model.JobCompleted:
			p.Completed++
		case model.JobFailed:
			p.Failed++
		case model.JobProcessing:
			p.Processing++
		default:
			p.Pending++
		}
	}
	return p
}

// StatusFor is completed once every job is terminal, whatever the mix of
// successes and failures.
func StatusFor(p model.Progress) model.BatchStatus {
	if p.Done() {
		return model.BatchCompleted
	}
	return model.BatchProcessing
}

// BatchStatus rescans every job of the batch and returns the report built from
// that scan. The derived counters are written back to the batch record on a
// best-effort basis; a completed batch record is never written again, since
// terminal jobs do not change.
func (s *Service) BatchStatus(ctx context.Context, id string) (BatchReport, error) {
	batch, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return BatchReport{}, err
	}
	jobs, err := s.store.GetJobs(ctx, batch.JobIDs)
	if err != nil {
		return BatchReport{}, fmt.Errorf("load jobs of batch %s: %w", id, err)
	}

	progress := ComputeProgress(jobs)
	stored := batch.Status
	batch.CompletedJobs = progress.Completed
	batch.FailedJobs = progress.Failed
	batch.Status = StatusFor(progress)

	if stored != model.BatchCompleted {
		updated, err := s.store.UpdateBatch(ctx, id, model.BatchPatch{
			CompletedJobs: &batch.CompletedJobs,
			FailedJobs:    &batch.FailedJobs,
			Status:        &batch.Status,
		})
		if err != nil {
			s.log.WithError(err).WithField("batch_id", id).Warn("could not store batch progress")
		} else {
			batch.UpdatedAt = updated.UpdatedAt
		}
	}

	return BatchReport{Batch: batch, Jobs: jobs, Progress: progress}, nil
}
