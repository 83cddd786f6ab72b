package ai

import (
	"context"
	"time"

	"github.com/example/scriptforge/api-go/internal/culture"
	"github.com/example/scriptforge/api-go/internal/prompt"
)

// Demo fills in canned scripts and produces empty audio after a fixed delay.
// It never calls out of the process.
type Demo struct {
	ScriptDelay time.Duration
	AudioDelay  time.Duration
}

func (d Demo) WriteScript(ctx context.Context, title string, lang culture.Language) (string, error) {
	if err := sleep(ctx, d.ScriptDelay); err != nil {
		return "", err
	}
	return prompt.Demo(title, lang), nil
}

func (d Demo) Synthesize(ctx context.Context, _ string, _ string) ([]byte, error) {
	if err := sleep(ctx, d.AudioDelay); err != nil {
		return nil, err
	}
	return []byte{}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
