package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"github.com/example/scriptforge/api-go/internal/culture"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewOpenAI(OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		TextModel:   "gpt-4.1-mini",
		SpeechModel: "tts-1",
		Temperature: 0.8,
		MaxTokens:   500,
	}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI error = %v", err)
	}
	return client
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestWriteScript(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4.1-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  E aí, galera!  "}}]}`))
	})

	got, err := client.WriteScript(context.Background(), "Café", culture.PortugueseBR)
	if err != nil {
		t.Fatalf("WriteScript error = %v", err)
	}
	if got != "E aí, galera!" {
		t.Fatalf("WriteScript = %q, want trimmed content", got)
	}
	if body["model"] != "gpt-4.1-mini" || body["temperature"] != 0.8 {
		t.Fatalf("unexpected request body: %v", body)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", body["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	if content, _ := user["content"].(string); !strings.Contains(content, "Café") {
		t.Fatalf("user message does not carry the prompt: %v", user)
	}
}

func TestWriteScriptEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	})
	if _, err := client.WriteScript(context.Background(), "x", culture.EnglishUS); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestWriteScriptProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})
	_, err := client.WriteScript(context.Background(), "x", culture.EnglishUS)
	if err == nil || !strings.Contains(err.Error(), "openai completion") {
		t.Fatalf("expected wrapped completion error, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	})

	audio, err := client.Synthesize(context.Background(), "hello there", "echo")
	if err != nil {
		t.Fatalf("Synthesize error = %v", err)
	}
	if string(audio) != "ID3-fake-mp3" {
		t.Fatalf("Synthesize = %q", audio)
	}
	if body["voice"] != "echo" || body["model"] != "tts-1" || body["input"] != "hello there" {
		t.Fatalf("unexpected request body: %v", body)
	}
}
