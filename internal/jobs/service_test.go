package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/scriptforge/api-go/internal/blob"
	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/dispatch"
	"github.com/example/scriptforge/api-go/internal/model"
	"github.com/example/scriptforge/api-go/internal/store"
)

type fakeGenerator struct {
	mu        sync.Mutex
	scriptErr error
	audioErr  error
	panicMsg  string
	block     chan struct{}
	langs     []culture.Language
	voices    []string
	texts     []string
}

func (f *fakeGenerator) WriteScript(ctx context.Context, title string, lang culture.Language) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.mu.Lock()
	f.langs = append(f.langs, lang)
	f.mu.Unlock()
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return "script about " + title, nil
}

func (f *fakeGenerator) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	f.mu.Lock()
	f.voices = append(f.voices, voice)
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	return []byte("mp3:" + text), nil
}

type failingArtifacts struct{}

func (failingArtifacts) Put(string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}

type harness struct {
	svc   *Service
	repo  *store.Memory
	pool  *dispatch.Pool
	gen   *fakeGenerator
	blobs blob.LocalFS
}

func newHarness(t *testing.T, gen *fakeGenerator) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := store.NewMemory()
	pool := dispatch.New(2, 16, log)
	t.Cleanup(pool.Close)
	blobs := blob.LocalFS{Root: t.TempDir()}

	svc := NewService(Options{
		Store:     repo,
		Pool:      pool,
		Generator: gen,
		Artifacts: blobs,
		Log:       log,
	})
	return &harness{svc: svc, repo: repo, pool: pool, gen: gen, blobs: blobs}
}

func waitAll(t *testing.T, tasks ...*dispatch.Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, task := range tasks {
		if err := task.Wait(ctx); err != nil {
			t.Fatalf("task %s did not finish: %v", task.Name, err)
		}
	}
}

func TestSubmitScriptCompletes(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	ctx := context.Background()

	job, task, err := h.svc.SubmitScript(ctx, "How to brew coffee", "pt-BR")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	if job.Status != model.JobPending || job.Kind != model.KindScript || job.BatchID != nil {
		t.Fatalf("new job = %+v", job)
	}
	waitAll(t, task)

	got, err := h.svc.Job(ctx, job.ID)
	if err != nil {
		t.Fatalf("Job error = %v", err)
	}
	if got.Status != model.JobCompleted {
		t.Fatalf("status = %s, want completed (error %v)", got.Status, got.Error)
	}
	if got.Script == nil || *got.Script != "script about How to brew coffee" {
		t.Fatalf("script = %v", got.Script)
	}
	wantURL := "/static/audio/" + job.ID + ".mp3"
	if got.AudioURL == nil || *got.AudioURL != wantURL {
		t.Fatalf("audio url = %v, want %s", got.AudioURL, wantURL)
	}
	if got.Error != nil {
		t.Fatalf("completed job has error %q", *got.Error)
	}

	data, err := os.ReadFile(filepath.Join(h.blobs.Root, "audio", job.ID+".mp3"))
	if err != nil || string(data) != "mp3:script about How to brew coffee" {
		t.Fatalf("audio file = %q, %v", data, err)
	}
	if h.gen.voices[0] != "alloy" {
		t.Fatalf("voice = %q, want pt-BR voice alloy", h.gen.voices[0])
	}
}

func TestSubmitScriptUnsupportedLanguageFallsBack(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	job, task, err := h.svc.SubmitScript(context.Background(), "Tea", "xx-XX")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	waitAll(t, task)

	got, _ := h.svc.Job(context.Background(), job.ID)
	if got.Status != model.JobCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.Language != "xx-XX" {
		t.Fatalf("language should be kept as requested, got %q", got.Language)
	}
	if h.gen.langs[0] != culture.Generic || h.gen.voices[0] != "echo" {
		t.Fatalf("fallback not used: lang=%v voice=%v", h.gen.langs, h.gen.voices)
	}
}

func TestSubmitScriptDefaultsLanguage(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	job, task, err := h.svc.SubmitScript(context.Background(), "Feijoada", "")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	waitAll(t, task)
	if job.Language != "pt-BR" {
		t.Fatalf("language = %q, want pt-BR", job.Language)
	}
}

func TestSubmitScriptRequiresTitle(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	if _, _, err := h.svc.SubmitScript(context.Background(), "  ", "en-US"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestGenerationFailureMarksJobFailed(t *testing.T) {
	tests := []struct {
		name       string
		gen        *fakeGenerator
		wantScript bool
		wantErr    string
	}{
		{"script", &fakeGenerator{scriptErr: errors.New("quota exceeded")}, false, "generate script: quota exceeded"},
		{"speech", &fakeGenerator{audioErr: errors.New("bad voice")}, true, "synthesize speech: bad voice"},
		{"panic", &fakeGenerator{panicMsg: "kaboom"}, false, "internal error: kaboom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.gen)
			job, task, err := h.svc.SubmitScript(context.Background(), "Pizza", "it-IT")
			if err != nil {
				t.Fatalf("SubmitScript error = %v", err)
			}
			waitAll(t, task)

			got, _ := h.svc.Job(context.Background(), job.ID)
			if got.Status != model.JobFailed {
				t.Fatalf("status = %s, want failed", got.Status)
			}
			if got.Error == nil || *got.Error != tt.wantErr {
				t.Fatalf("error = %v, want %q", got.Error, tt.wantErr)
			}
			if (got.Script != nil) != tt.wantScript {
				t.Fatalf("script presence = %v, want %v", got.Script != nil, tt.wantScript)
			}
			if got.AudioURL != nil {
				t.Fatalf("failed job has audio url %q", *got.AudioURL)
			}
		})
	}
}

func TestAudioWriteFailure(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.svc.artifacts = failingArtifacts{}
	job, task, err := h.svc.SubmitScript(context.Background(), "Paella", "es-ES")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	waitAll(t, task)
	got, _ := h.svc.Job(context.Background(), job.ID)
	if got.Status != model.JobFailed || got.Error == nil || !strings.HasPrefix(*got.Error, "write audio") {
		t.Fatalf("job = %+v", got)
	}
}

func TestJobTimeout(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	defer close(gen.block)
	h := newHarness(t, gen)
	h.svc.jobTimeout = 20 * time.Millisecond

	job, task, err := h.svc.SubmitScript(context.Background(), "Slow", "en-US")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	waitAll(t, task)
	got, _ := h.svc.Job(context.Background(), job.ID)
	if got.Status != model.JobFailed || got.Error == nil || !strings.Contains(*got.Error, "deadline exceeded") {
		t.Fatalf("job = %+v", got)
	}
}

func TestSubmitAudio(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	job, task, err := h.svc.SubmitAudio(context.Background(), "Bonjour à tous", "fr-FR")
	if err != nil {
		t.Fatalf("SubmitAudio error = %v", err)
	}
	if job.Kind != model.KindAudio || job.Title != "" || job.Script == nil {
		t.Fatalf("new audio job = %+v", job)
	}
	waitAll(t, task)

	got, _ := h.svc.Job(context.Background(), job.ID)
	if got.Status != model.JobCompleted || got.AudioURL == nil || *got.Script != "Bonjour à tous" {
		t.Fatalf("audio job = %+v", got)
	}
	if len(h.gen.langs) != 0 {
		t.Fatalf("audio job should not write a script")
	}
	if h.gen.voices[0] != "onyx" || h.gen.texts[0] != "Bonjour à tous" {
		t.Fatalf("synthesize called with voice=%v text=%v", h.gen.voices, h.gen.texts)
	}
}

func TestSubmitAudioRequiresScript(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	if _, _, err := h.svc.SubmitAudio(context.Background(), "", "fr-FR"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSubmitBatch(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	ctx := context.Background()

	batch, tasks, err := h.svc.SubmitBatch(ctx, []string{"How to brew coffee"}, []string{"pt-BR", "en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	if batch.TotalJobs != 2 || len(batch.JobIDs) != 2 || len(tasks) != 2 {
		t.Fatalf("batch = %+v, tasks = %d", batch, len(tasks))
	}
	waitAll(t, tasks...)

	report, err := h.svc.BatchStatus(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}
	wantLangs := []string{"pt-BR", "en-US"}
	for i, job := range report.Jobs {
		if job.BatchID == nil || *job.BatchID != batch.ID {
			t.Fatalf("job %s batch id = %v", job.ID, job.BatchID)
		}
		if job.Language != wantLangs[i] || job.ID != batch.JobIDs[i] {
			t.Fatalf("job %d = %s/%s, want %s in creation order", i, job.ID, job.Language, wantLangs[i])
		}
	}
	if report.Progress != (model.Progress{Completed: 2, Total: 2}) {
		t.Fatalf("progress = %+v", report.Progress)
	}
	if report.Batch.Status != model.BatchCompleted || report.Batch.CompletedJobs != 2 || report.Batch.FailedJobs != 0 {
		t.Fatalf("batch = %+v", report.Batch)
	}
}

func TestSubmitBatchCrossProduct(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	batch, tasks, err := h.svc.SubmitBatch(context.Background(), []string{"a", "b", "c"}, []string{"pt-BR", "de-DE"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	waitAll(t, tasks...)
	report, _ := h.svc.BatchStatus(context.Background(), batch.ID)

	var pairs []string
	for _, job := range report.Jobs {
		pairs = append(pairs, job.Title+"/"+job.Language)
	}
	want := "a/pt-BR a/de-DE b/pt-BR b/de-DE c/pt-BR c/de-DE"
	if strings.Join(pairs, " ") != want {
		t.Fatalf("jobs = %v, want %s", pairs, want)
	}
}

func TestSubmitBatchValidation(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	ctx := context.Background()
	if _, _, err := h.svc.SubmitBatch(ctx, nil, []string{"pt-BR"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty titles err = %v", err)
	}
	if _, _, err := h.svc.SubmitBatch(ctx, []string{"x"}, nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty languages err = %v", err)
	}
}

func TestBatchMixedOutcomeIsCompleted(t *testing.T) {
	h := newHarness(t, &fakeGenerator{audioErr: errors.New("tts down")})
	ctx := context.Background()

	batch, tasks, err := h.svc.SubmitBatch(ctx, []string{"x", "y"}, []string{"en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	waitAll(t, tasks...)

	// Flip one job to completed through the store to get a mix.
	if _, err := h.repo.UpdateJob(ctx, batch.JobIDs[0], model.JobPatch{Status: model.Ptr(model.JobCompleted)}); err != nil {
		t.Fatalf("UpdateJob error = %v", err)
	}
	report, err := h.svc.BatchStatus(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}
	if report.Progress.Completed != 1 || report.Progress.Failed != 1 || report.Batch.Status != model.BatchCompleted {
		t.Fatalf("report = %+v", report)
	}
}

func TestBatchStatusWhileRunning(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	h := newHarness(t, gen)
	ctx := context.Background()

	batch, tasks, err := h.svc.SubmitBatch(ctx, []string{"a", "b", "c", "d"}, []string{"en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}

	report, err := h.svc.BatchStatus(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}
	p := report.Progress
	if p.Completed+p.Failed+p.Processing+p.Pending != p.Total || p.Total != 4 {
		t.Fatalf("progress does not add up: %+v", p)
	}
	if report.Batch.Status != model.BatchProcessing {
		t.Fatalf("batch status = %s while jobs are blocked", report.Batch.Status)
	}

	close(gen.block)
	waitAll(t, tasks...)
	report, _ = h.svc.BatchStatus(ctx, batch.ID)
	if report.Batch.Status != model.BatchCompleted || report.Progress.Completed != 4 {
		t.Fatalf("final report = %+v", report.Progress)
	}
}

func TestUnknownIDs(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	if _, err := h.svc.Job(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Job err = %v", err)
	}
	if _, err := h.svc.BatchStatus(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("BatchStatus err = %v", err)
	}
}

func TestSubmitAfterPoolClosedFailsJob(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.pool.Close()

	job, task, err := h.svc.SubmitScript(context.Background(), "Late", "en-US")
	if !errors.Is(err, dispatch.ErrClosed) || task != nil {
		t.Fatalf("SubmitScript after close = (%v, %v)", task, err)
	}
	if job.Status != model.JobFailed || job.Error == nil {
		t.Fatalf("job should be failed, got %+v", job)
	}
}

func TestBaseURLPrefixesAudio(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.svc.baseURL = "http://localhost:8000"
	job, task, err := h.svc.SubmitScript(context.Background(), "Bagel", "en-US")
	if err != nil {
		t.Fatalf("SubmitScript error = %v", err)
	}
	waitAll(t, task)
	got, _ := h.svc.Job(context.Background(), job.ID)
	want := "http://localhost:8000/static/audio/" + job.ID + ".mp3"
	if got.AudioURL == nil || *got.AudioURL != want {
		t.Fatalf("audio url = %v, want %s", got.AudioURL, want)
	}
}

// flakyRepo fails selected writes of the wrapped repository.
type flakyRepo struct {
	store.Repository
	failCreateAt int
	creates      int
	batchErr     error
}

func (r *flakyRepo) CreateJob(ctx context.Context, job model.Job) error {
	r.creates++
	if r.failCreateAt > 0 && r.creates == r.failCreateAt {
		return errors.New("db unavailable")
	}
	return r.Repository.CreateJob(ctx, job)
}

func (r *flakyRepo) UpdateBatch(ctx context.Context, id string, patch model.BatchPatch) (model.Batch, error) {
	if r.batchErr != nil {
		return model.Batch{}, r.batchErr
	}
	return r.Repository.UpdateBatch(ctx, id, patch)
}

func TestSubmitBatchTrimsTitles(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	batch, tasks, err := h.svc.SubmitBatch(context.Background(), []string{"  Coffee  ", " ", "Tea"}, []string{"en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	waitAll(t, tasks...)

	report, _ := h.svc.BatchStatus(context.Background(), batch.ID)
	if len(report.Jobs) != 2 || report.Jobs[0].Title != "Coffee" || report.Jobs[1].Title != "Tea" {
		t.Fatalf("jobs = %+v", report.Jobs)
	}
}

func TestSubmitBatchRejectsOversizedProduct(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.svc.maxBatch = 3
	ctx := context.Background()

	_, _, err := h.svc.SubmitBatch(ctx, []string{"a", "b"}, []string{"pt-BR", "en-US"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	list, err := h.repo.ListJobs(ctx, nil, 100)
	if err != nil || len(list) != 0 {
		t.Fatalf("jobs created for rejected batch: %d, %v", len(list), err)
	}

	if _, tasks, err := h.svc.SubmitBatch(ctx, []string{"a", "b", "c"}, []string{"pt-BR"}); err != nil {
		t.Fatalf("batch at the limit err = %v", err)
	} else {
		waitAll(t, tasks...)
	}
}

func TestSubmitBatchCreateFailureFailsCreatedJobs(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.svc.store = &flakyRepo{Repository: h.repo, failCreateAt: 3}
	ctx := context.Background()

	if _, _, err := h.svc.SubmitBatch(ctx, []string{"a", "b", "c"}, []string{"en-US"}); err == nil {
		t.Fatalf("SubmitBatch should fail when a job cannot be created")
	}
	list, err := h.repo.ListJobs(ctx, nil, 100)
	if err != nil {
		t.Fatalf("ListJobs error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("created jobs = %d, want 2", len(list))
	}
	for _, job := range list {
		if job.Status != model.JobFailed || job.Error == nil || !strings.Contains(*job.Error, "create job") {
			t.Fatalf("orphaned job %s = %s (%v)", job.ID, job.Status, job.Error)
		}
	}
}

func TestBatchStatusReportsScanWhenWriteBackFails(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	h.svc.store = &flakyRepo{Repository: h.repo, batchErr: errors.New("db locked")}
	ctx := context.Background()

	batch, tasks, err := h.svc.SubmitBatch(ctx, []string{"a", "b"}, []string{"en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	waitAll(t, tasks...)

	report, err := h.svc.BatchStatus(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}
	if report.Batch.Status != model.BatchCompleted || report.Batch.CompletedJobs != report.Progress.Completed || report.Progress.Completed != 2 {
		t.Fatalf("report batch %+v disagrees with progress %+v", report.Batch, report.Progress)
	}
}

func TestCompletedBatchRecordIsFinal(t *testing.T) {
	h := newHarness(t, &fakeGenerator{})
	ctx := context.Background()

	batch, tasks, err := h.svc.SubmitBatch(ctx, []string{"a"}, []string{"en-US"})
	if err != nil {
		t.Fatalf("SubmitBatch error = %v", err)
	}
	waitAll(t, tasks...)
	if _, err := h.svc.BatchStatus(ctx, batch.ID); err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}

	// A stale scan must not move the stored batch back to processing.
	if _, err := h.repo.UpdateJob(ctx, batch.JobIDs[0], model.JobPatch{Status: model.Ptr(model.JobProcessing)}); err != nil {
		t.Fatalf("UpdateJob error = %v", err)
	}
	report, err := h.svc.BatchStatus(ctx, batch.ID)
	if err != nil {
		t.Fatalf("BatchStatus error = %v", err)
	}
	if report.Batch.Status != model.BatchProcessing {
		t.Fatalf("report status = %s, want the scanned status", report.Batch.Status)
	}
	stored, err := h.repo.GetBatch(ctx, batch.ID)
	if err != nil || stored.Status != model.BatchCompleted || stored.CompletedJobs != 1 {
		t.Fatalf("stored batch = %+v, %v", stored, err)
	}
}
