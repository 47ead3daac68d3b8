package image

import (
	"context"
)

// Generator produces one base64-encoded image for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Uploader turns raw image bytes into a permanently hosted URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
