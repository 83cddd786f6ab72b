package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/example/scriptforge/api-go/internal/blob"
	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/dispatch"
	"github.com/example/scriptforge/api-go/internal/jobs"
	"github.com/example/scriptforge/api-go/internal/model"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Jobs    *jobs.Service
	Static  blob.LocalFS
	Origins []string
	Log     logrus.FieldLogger
}

func (s Server) Router() http.Handler {
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.Log, NoColor: true}))
	r.Use(cors(s.Origins))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/generate_script", s.handleGenerateScript)
	r.Post("/generate_audio", s.handleGenerateAudio)
	r.Post("/generate_batch", s.handleGenerateBatch)
	r.Get("/job_status/{id}", s.handleJobStatus)
	r.Get("/batch_status/{id}", s.handleBatchStatus)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/languages", s.handleLanguages)
	r.Get("/static/*", s.handleStatic)

	return r
}

func cors(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type scriptRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
}

type audioRequest struct {
	Script   string `json:"script"`
	Language string `json:"language"`
}

type batchRequest struct {
	Titles    []string `json:"titles"`
	Languages []string `json:"languages"`
	// BatchSize is accepted for compatibility; concurrency is bounded by the pool.
	BatchSize int `json:"batch_size"`
}

func (s Server) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	job, _, err := s.Jobs.SubmitScript(r.Context(), req.Title, req.Language)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job_id": job.ID})
}

func (s Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req audioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	job, _, err := s.Jobs.SubmitAudio(r.Context(), req.Script, req.Language)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job_id": job.ID})
}

func (s Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	req := batchRequest{BatchSize: 5}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.BatchSize < 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid batch_size: %d", req.BatchSize))
		return
	}
	batch, _, err := s.Jobs.SubmitBatch(r.Context(), req.Titles, req.Languages)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"batch_id":   batch.ID,
		"job_ids":    batch.JobIDs,
		"total_jobs": batch.TotalJobs,
	})
}

func (s Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.Jobs.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.Jobs.BatchStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var status *model.JobStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed := model.JobStatus(raw)
		if !parsed.Valid() {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid status: %s", raw))
			return
		}
		status = &parsed
	}

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", raw))
			return
		}
		if value > 100 {
			value = 100
		}
		limit = value
	}

	list, err := s.Jobs.ListJobs(r.Context(), status, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   culture.DefaultRequestLanguage,
		"fallback":  culture.EnglishUS,
		"languages": culture.All(),
	})
}

// handleIndex serves the web front end from the static root.
func (s Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "index.html")
}

func (s Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	clean := filepath.Clean(raw)
	if raw == "" || clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, string(filepath.Separator)+"..") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid path"))
		return
	}
	s.serveFile(w, r, clean)
}

func (s Server) serveFile(w http.ResponseWriter, r *http.Request, clean string) {
	if !s.Static.Exists(clean) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("file not found"))
		return
	}
	f, err := s.Static.Open(clean)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeErr(w, http.StatusNotFound, fmt.Errorf("file not found"))
		return
	}

	if strings.EqualFold(filepath.Ext(clean), ".mp3") {
		w.Header().Set("Content-Type", "audio/mpeg")
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeErr(w, http.StatusNotFound, err)
	case errors.Is(err, jobs.ErrInvalidRequest):
		writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, dispatch.ErrClosed):
		writeErr(w, http.StatusServiceUnavailable, err)
	default:
		writeErr(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
