package image

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

var validPNG = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("png-bytes-", 20)))

type recordingUploader struct {
	mu    sync.Mutex
	names []string
	fail  int
	calls int
}

func (u *recordingUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.fail > 0 && u.calls == u.fail {
		return "", errors.New("upload rejected")
	}
	u.names = append(u.names, name)
	return "https://cdn.example.com/" + name, nil
}

func TestPipelineObtainSuccess(t *testing.T) {
	var calls int32
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return validPNG, nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen})

	images := p.Obtain(context.Background(), "a mug", 2)
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	for _, img := range images {
		if !strings.HasPrefix(img, "data:image/png;base64,") {
			t.Fatalf("unexpected image %q", img[:30])
		}
	}
	if calls != 2 {
		t.Fatalf("generator calls = %d, want 2", calls)
	}
}

func TestPipelineCapsProviderCalls(t *testing.T) {
	var calls int32
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return validPNG, nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen})

	images := p.Obtain(context.Background(), "a mug", 5)
	if len(images) != DefaultProviderCap || calls != DefaultProviderCap {
		t.Fatalf("images = %d calls = %d, want %d", len(images), calls, DefaultProviderCap)
	}
}

func TestPipelineFallsBackAllOrNothing(t *testing.T) {
	tests := []struct {
		name   string
		gen    Generator
		reason string
	}{
		{
			name: "one provider error",
			gen: func() Generator {
				var n int32
				return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
					if atomic.AddInt32(&n, 1) == 2 {
						return "", errors.New("boom")
					}
					return validPNG, nil
				})
			}(),
			reason: FallbackProvider,
		},
		{
			name: "short payload",
			gen: GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
				return "tiny", nil
			}),
			reason: FallbackInvalid,
		},
		{
			name: "empty payload",
			gen: GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
				return "", nil
			}),
			reason: FallbackInvalid,
		},
		{name: "no generator", gen: nil, reason: FallbackDisabled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotReason string
			p := NewPipeline(PipelineOptions{
				Generator:  tc.gen,
				OnFallback: func(reason string, count int) { gotReason = reason },
			})
			images := p.Obtain(context.Background(), "prompt", 3)
			if len(images) != 3 {
				t.Fatalf("images = %d, want 3", len(images))
			}
			seen := map[string]bool{}
			for _, img := range images {
				if !strings.HasPrefix(img, "https://picsum.photos/seed/") {
					t.Fatalf("expected placeholder, got %q", img)
				}
				if seen[img] {
					t.Fatalf("duplicate placeholder %q", img)
				}
				seen[img] = true
			}
			if gotReason != tc.reason {
				t.Fatalf("reason = %q, want %q", gotReason, tc.reason)
			}
		})
	}
}

func TestPipelinePlaceholderCountMatchesRequest(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("down")
	})
	p := NewPipeline(PipelineOptions{Generator: gen})
	if got := p.Obtain(context.Background(), "prompt", 5); len(got) != 5 {
		t.Fatalf("placeholders = %d, want 5", len(got))
	}
	if got := p.Obtain(context.Background(), "prompt", 0); len(got) != 0 {
		t.Fatalf("zero count returned %d images", len(got))
	}
}

func TestPipelineUploadsPayloads(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return validPNG, nil
	})
	up := &recordingUploader{}
	p := NewPipeline(PipelineOptions{Generator: gen, Uploader: up})

	images := p.Obtain(context.Background(), "prompt", 2)
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	for _, img := range images {
		if !strings.HasPrefix(img, "https://cdn.example.com/product-") {
			t.Fatalf("unexpected uploaded url %q", img)
		}
	}
}

func TestPipelineUploadFailureDiscardsBatch(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return validPNG, nil
	})
	var reason string
	p := NewPipeline(PipelineOptions{
		Generator:  gen,
		Uploader:   &recordingUploader{fail: 1},
		OnFallback: func(r string, count int) { reason = r },
	})
	images := p.Obtain(context.Background(), "prompt", 2)
	for _, img := range images {
		if !strings.HasPrefix(img, "https://picsum.photos/seed/") {
			t.Fatalf("expected placeholder, got %q", img)
		}
	}
	if reason != FallbackUpload {
		t.Fatalf("reason = %q, want %q", reason, FallbackUpload)
	}
}

func TestDecodePayload(t *testing.T) {
	raw := []byte("hello image")
	enc := base64.StdEncoding.EncodeToString(raw)
	for _, in := range []string{enc, "data:image/png;base64," + enc} {
		got, err := DecodePayload(in)
		if err != nil || string(got) != string(raw) {
			t.Fatalf("DecodePayload(%q) = %q, %v", in, got, err)
		}
	}
	if !IsDataURI(" data:image/png;base64,xx") || IsDataURI("https://x") {
		t.Fatal("IsDataURI mismatch")
	}
}
