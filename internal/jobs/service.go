// Package jobs creates script and audio jobs, hands them to the worker pool
// and reports job and batch progress.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/scriptforge/api-go/internal/ai"
	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/dispatch"
	"github.com/example/scriptforge/api-go/internal/model"
	"github.com/example/scriptforge/api-go/internal/store"
)

var ErrInvalidRequest = errors.New("invalid request")

const defaultMaxBatchJobs = 100

// Submitter is the part of dispatch.Pool the service needs.
type Submitter interface {
	Submit(ctx context.Context, name string, fn dispatch.Func) (*dispatch.Task, error)
}

// Artifacts stores generated audio and returns its key.
type Artifacts interface {
	Put(key string, r io.Reader) (string, error)
}

type Options struct {
	Store     store.Repository
	Pool      Submitter
	Generator ai.Client
	Artifacts Artifacts
	// BaseURL prefixes audio links; empty keeps them relative ("/static/audio/<id>.mp3").
	BaseURL string
	// JobTimeout bounds the external calls of one job. Zero means no deadline.
	JobTimeout time.Duration
	// MaxBatchJobs caps titles x languages per batch. Zero uses the default.
	MaxBatchJobs int
	Log          logrus.FieldLogger
}

type Service struct {
	store      store.Repository
	pool       Submitter
	gen        ai.Client
	artifacts  Artifacts
	baseURL    string
	jobTimeout time.Duration
	maxBatch   int
	log        logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func NewService(opts Options) *Service {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	maxBatch := opts.MaxBatchJobs
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchJobs
	}
	return &Service{
		store:      opts.Store,
		pool:       opts.Pool,
		gen:        opts.Generator,
		artifacts:  opts.Artifacts,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		jobTimeout: opts.JobTimeout,
		maxBatch:   maxBatch,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// SubmitScript creates a pending script job for title and queues it. The
// returned task completes once the job reached a terminal status.
func (s *Service) SubmitScript(ctx context.Context, title, language string) (model.Job, *dispatch.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Job{}, nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	job := s.newJob(model.KindScript, nil, title, language)
	if err := s.store.CreateJob(ctx, job); err != nil {
		return model.Job{}, nil, fmt.Errorf("create job: %w", err)
	}
	task, err := s.submit(ctx, job)
	if err != nil {
		return s.current(job), nil, err
	}
	return job, task, nil
}

// SubmitAudio creates a pending job that voices script. The script is stored on
// the job right away.
func (s *Service) SubmitAudio(ctx context.Context, script, language string) (model.Job, *dispatch.Task, error) {
	if strings.TrimSpace(script) == "" {
		return model.Job{}, nil, fmt.Errorf("%w: script is required", ErrInvalidRequest)
	}
	job := s.newJob(model.KindAudio, nil, "", language)
	job.Script = model.Ptr(script)
	if err := s.store.CreateJob(ctx, job); err != nil {
		return model.Job{}, nil, fmt.Errorf("create job: %w", err)
	}
	task, err := s.submit(ctx, job)
	if err != nil {
		return s.current(job), nil, err
	}
	return job, task, nil
}

// SubmitBatch creates one script job per title x language pair, in title-major
// order, attaches them to a new batch and queues every job.
func (s *Service) SubmitBatch(ctx context.Context, titles, languages []string) (model.Batch, []*dispatch.Task, error) {
	titles = nonEmpty(titles)
	if len(titles) == 0 {
		return model.Batch{}, nil, fmt.Errorf("%w: titles must not be empty", ErrInvalidRequest)
	}
	if len(languages) == 0 {
		return model.Batch{}, nil, fmt.Errorf("%w: languages must not be empty", ErrInvalidRequest)
	}
	if n := len(titles) * len(languages); n > s.maxBatch {
		return model.Batch{}, nil, fmt.Errorf("%w: batch of %d jobs exceeds the limit of %d", ErrInvalidRequest, n, s.maxBatch)
	}

	batchID := s.newID()
	jobs := make([]model.Job, 0, len(titles)*len(languages))
	for _, title := range titles {
		for _, lang := range languages {
			jobs = append(jobs, s.newJob(model.KindScript, &batchID, title, lang))
		}
	}

	ids := make([]string, len(jobs))
	for i, job := range jobs {
		if err := s.store.CreateJob(ctx, job); err != nil {
			err = fmt.Errorf("create job: %w", err)
			s.failAll(jobs[:i], err)
			return model.Batch{}, nil, err
		}
		ids[i] = job.ID
	}

	now := s.now()
	batch := model.Batch{
		ID:        batchID,
		JobIDs:    ids,
		TotalJobs: len(ids),
		Status:    model.BatchProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		err = fmt.Errorf("create batch: %w", err)
		s.failAll(jobs, err)
		return model.Batch{}, nil, err
	}

	s.log.WithFields(logrus.Fields{"batch_id": batchID, "total_jobs": len(ids)}).Info("batch created")

	tasks := make([]*dispatch.Task, 0, len(jobs))
	for i, job := range jobs {
		task, err := s.submit(ctx, job)
		if err != nil {
			s.failAll(jobs[i+1:], err)
			return batch, tasks, err
		}
		tasks = append(tasks, task)
	}
	return batch, tasks, nil
}

func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	return s.store.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, status *model.JobStatus, limit int) ([]model.Job, error) {
	return s.store.ListJobs(ctx, status, limit)
}

func (s *Service) newJob(kind model.JobKind, batchID *string, title, language string) model.Job {
	if strings.TrimSpace(language) == "" {
		language = string(culture.DefaultRequestLanguage)
	}
	now := s.now()
	return model.Job{
		ID:        s.newID(),
		BatchID:   batchID,
		Kind:      kind,
		Title:     title,
		Language:  language,
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// submit queues the pipeline for job. A job that cannot be queued is failed
// immediately so it never stays pending.
func (s *Service) submit(ctx context.Context, job model.Job) (*dispatch.Task, error) {
	task, err := s.pool.Submit(ctx, "job "+job.ID, func(ctx context.Context) {
		s.process(ctx, job)
	})
	if err != nil {
		err = fmt.Errorf("queue job: %w", err)
		s.fail(job, err)
		return nil, err
	}
	return task, nil
}

func (s *Service) current(job model.Job) model.Job {
	if latest, err := s.store.GetJob(context.Background(), job.ID); err == nil {
		return latest
	}
	return job
}

// failAll marks jobs that were created but will never run.
func (s *Service) failAll(jobs []model.Job, err error) {
	for _, job := range jobs {
		s.fail(job, err)
	}
}

// nonEmpty returns the trimmed values, blanks dropped.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
