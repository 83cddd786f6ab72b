package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/prompt"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	SpeechModel string
	Temperature float64
	MaxTokens   int64
}

// OpenAI talks to the chat completions and text-to-speech endpoints.
type OpenAI struct {
	client openai.Client
	cfg    OpenAIConfig
}

func NewOpenAI(cfg OpenAIConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = string(openai.ChatModelGPT4_1Mini)
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.SpeechModelTTS1)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAI{client: openai.NewClient(reqOpts...), cfg: cfg}, nil
}

func (o *OpenAI) WriteScript(ctx context.Context, title string, lang culture.Language) (string, error) {
	return o.GenerateText(ctx, prompt.Build(title, lang))
}

// GenerateText runs a single creative-writing completion for userPrompt.
func (o *OpenAI) GenerateText(ctx context.Context, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.SystemMessage),
			openai.UserMessage(userPrompt),
		},
		Model:       openai.ChatModel(o.cfg.TextModel),
		Temperature: openai.Float(o.cfg.Temperature),
	}
	if o.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.cfg.MaxTokens)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai completion: no choices returned")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai completion: empty content (finish reason %q)", completion.Choices[0].FinishReason)
	}
	return text, nil
}

// Synthesize returns mp3 audio for text spoken with voice.
func (o *OpenAI) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.cfg.SpeechModel),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai speech: read body: %w", err)
	}
	return audio, nil
}
