package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/model"
)

// AudioKey is the artifact key of a job's audio file.
func AudioKey(jobID string) string {
	return path.Join("audio", jobID+".mp3")
}

// process runs the whole pipeline of one job on a worker. It is the only
// writer of the job after creation. Every error, panics included, ends as the
// job's failed status.
func (s *Service) process(ctx context.Context, job model.Job) {
	log := s.jobLogger(job)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.fail(job, fmt.Errorf("internal error: %v", r))
		}
	}()

	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	if _, err := s.store.UpdateJob(ctx, job.ID, model.JobPatch{Status: model.Ptr(model.JobProcessing)}); err != nil {
		s.fail(job, fmt.Errorf("mark processing: %w", err))
		return
	}
	log.Info("job processing")

	lang := culture.Parse(job.Language)
	profile := lang.Profile()

	var script string
	switch job.Kind {
	case model.KindAudio:
		if job.Script != nil {
			script = *job.Script
		}
	default:
		text, err := s.gen.WriteScript(ctx, job.Title, lang)
		if err != nil {
			s.fail(job, fmt.Errorf("generate script: %w", err))
			return
		}
		if _, err := s.store.UpdateJob(ctx, job.ID, model.JobPatch{Script: &text}); err != nil {
			s.fail(job, fmt.Errorf("save script: %w", err))
			return
		}
		script = text
	}

	audio, err := s.gen.Synthesize(ctx, script, profile.Voice)
	if err != nil {
		s.fail(job, fmt.Errorf("synthesize speech: %w", err))
		return
	}
	key, err := s.artifacts.Put(AudioKey(job.ID), bytes.NewReader(audio))
	if err != nil {
		s.fail(job, fmt.Errorf("write audio: %w", err))
		return
	}

	url := s.baseURL + "/static/" + key
	if _, err := s.store.UpdateJob(ctx, job.ID, model.JobPatch{
		Status:   model.Ptr(model.JobCompleted),
		AudioURL: &url,
	}); err != nil {
		s.fail(job, fmt.Errorf("mark completed: %w", err))
		return
	}

	log.WithFields(logrus.Fields{
		"duration":    time.Since(start),
		"voice":       profile.Voice,
		"audio_bytes": len(audio),
	}).Info("job completed")
}

// fail records err as the job's terminal status. It uses a fresh context so a
// job whose deadline passed can still be marked.
func (s *Service) fail(job model.Job, err error) {
	msg := err.Error()
	if _, uerr := s.store.UpdateJob(context.Background(), job.ID, model.JobPatch{
		Status: model.Ptr(model.JobFailed),
		Error:  &msg,
	}); uerr != nil {
		s.jobLogger(job).WithError(uerr).Error("could not record job failure")
	}
	s.jobLogger(job).WithError(err).Warn("job failed")
}

func (s *Service) jobLogger(job model.Job) logrus.FieldLogger {
	fields := logrus.Fields{
		"job_id":   job.ID,
		"kind":     job.Kind,
		"language": job.Language,
	}
	if job.BatchID != nil {
		fields["batch_id"] = *job.BatchID
	}
	return s.log.WithFields(fields)
}
