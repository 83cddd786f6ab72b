package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/example/scriptforge/api-go/internal/ai"
	"github.com/example/scriptforge/api-go/internal/blob"
	"github.com/example/scriptforge/api-go/internal/config"
	"github.com/example/scriptforge/api-go/internal/dispatch"
	"github.com/example/scriptforge/api-go/internal/httpapi"
	"github.com/example/scriptforge/api-go/internal/jobs"
	"github.com/example/scriptforge/api-go/internal/store"
)

func main() {
	loadDotEnv()
	cfg := config.Load()
	log := newLogger(cfg)

	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "audio"), 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}

	repo, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}
	defer repo.Close()

	gen, err := newGenerator(cfg, log)
	if err != nil {
		log.Fatalf("generation client: %v", err)
	}

	pool := dispatch.New(cfg.Workers, cfg.QueueSize, log)
	static := blob.LocalFS{Root: cfg.DataDir}

	svc := jobs.NewService(jobs.Options{
		Store:        repo,
		Pool:         pool,
		Generator:    gen,
		Artifacts:    static,
		BaseURL:      cfg.BaseURL,
		JobTimeout:   cfg.JobTimeout,
		MaxBatchJobs: cfg.MaxBatchJobs,
		Log:          log,
	})

	server := httpapi.Server{
		Jobs:    svc,
		Static:  static,
		Origins: cfg.CORSOrigins,
		Log:     log,
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr,
			"store":    cfg.Store,
			"workers":  cfg.Workers,
			"data_dir": cfg.DataDir,
		}).Info("API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	pool.Close()
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func openStore(cfg config.Config) (store.Repository, error) {
	if cfg.Store == config.StoreSQLite {
		return store.OpenSQLite(cfg.SQLitePath)
	}
	return store.NewMemory(), nil
}

func newGenerator(cfg config.Config, log logrus.FieldLogger) (ai.Client, error) {
	if cfg.DemoMode() {
		log.WithField("delay", cfg.DemoDelay).Info("demo generation enabled (no provider calls)")
		return ai.Demo{ScriptDelay: cfg.DemoDelay, AudioDelay: cfg.DemoDelay / 2}, nil
	}
	return ai.NewOpenAI(ai.OpenAIConfig{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		TextModel:   cfg.TextModel,
		SpeechModel: cfg.SpeechModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
