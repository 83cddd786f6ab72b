package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Addr        string
	BaseURL     string
	DataDir     string
	CORSOrigins []string

	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	// MaxBatchJobs caps titles x languages in one batch request.
	MaxBatchJobs int

	Store      string
	SQLitePath string

	Demo      bool
	DemoDelay time.Duration

	OpenAIKey     string
	OpenAIBaseURL string
	TextModel     string
	SpeechModel   string
	Temperature   float64
	MaxTokens     int64

	LogLevel  string
	LogFormat string
}

func Load() Config {
	store := strings.ToLower(getenv("SCRIPTFORGE_STORE", StoreMemory))
	if store != StoreSQLite {
		store = StoreMemory
	}
	return Config{
		Addr:        getenv("SCRIPTFORGE_API_ADDR", ":8000"),
		BaseURL:     strings.TrimSpace(os.Getenv("SCRIPTFORGE_BASE_URL")),
		DataDir:     getenv("SCRIPTFORGE_DATA_DIR", "static"),
		CORSOrigins: getenvCSV("SCRIPTFORGE_CORS_ORIGINS", []string{"*"}),

		Workers:    getenvInt("SCRIPTFORGE_WORKERS", 5),
		QueueSize:  getenvInt("SCRIPTFORGE_QUEUE_SIZE", 256),
		JobTimeout: getenvDuration("SCRIPTFORGE_JOB_TIMEOUT", 2*time.Minute),

		MaxBatchJobs: getenvInt("SCRIPTFORGE_MAX_BATCH_JOBS", 100),

		Store:      store,
		SQLitePath: getenv("SCRIPTFORGE_SQLITE_PATH", "file:scriptforge?mode=memory&cache=shared"),

		Demo:      getenvBool("SCRIPTFORGE_DEMO", false),
		DemoDelay: getenvDuration("SCRIPTFORGE_DEMO_DELAY", 2*time.Second),

		OpenAIKey:     envFirst("SCRIPTFORGE_OPENAI_API_KEY", "OPENAI_API_KEY"),
		OpenAIBaseURL: envFirst("SCRIPTFORGE_OPENAI_BASE_URL", "OPENAI_BASE_URL"),
		TextModel:     getenv("SCRIPTFORGE_TEXT_MODEL", "gpt-4.1-mini"),
		SpeechModel:   getenv("SCRIPTFORGE_TTS_MODEL", "tts-1"),
		Temperature:   getenvFloat("SCRIPTFORGE_TEMPERATURE", 0.8),
		MaxTokens:     int64(getenvInt("SCRIPTFORGE_MAX_TOKENS", 500)),

		LogLevel:  getenv("SCRIPTFORGE_LOG_LEVEL", "info"),
		LogFormat: getenv("SCRIPTFORGE_LOG_FORMAT", "text"),
	}
}

// DemoMode reports whether generation stays in process, either because it was
// asked for or because no provider key is configured.
func (c Config) DemoMode() bool {
	return c.Demo || c.OpenAIKey == ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// getenvDuration accepts Go durations; "0" disables.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getenvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes" || raw == "on"
}

func getenvCSV(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	values := splitCSV(raw)
	if len(values) == 0 {
		return fallback
	}
	return values
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
