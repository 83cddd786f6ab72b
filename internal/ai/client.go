// Package ai wraps the hosted text and speech generation used by the job
// pipeline.
package ai

import (
	"context"

	"github.com/example/scriptforge/api-go/internal/culture"
)

// Client writes a script for a title and voices a text. Implementations block
// until the provider answers or ctx is done.
type Client interface {
	WriteScript(ctx context.Context, title string, lang culture.Language) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
