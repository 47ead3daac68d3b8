package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"shopgen/internal/domain"
	"shopgen/internal/providers/image"
	"shopgen/internal/providers/text"
)

type stubText struct {
	raw      string
	err      error
	noCreds  bool
	calls    int
	messages []text.Message
	deadline bool
}

func (s *stubText) Complete(ctx context.Context, messages []text.Message) (string, error) {
	s.calls++
	s.messages = messages
	_, s.deadline = ctx.Deadline()
	return s.raw, s.err
}

func (s *stubText) HasCredentials() bool { return !s.noCreds }

type creds bool

func (c creds) HasCredentials() bool { return bool(c) }

type recordingImages struct {
	mu     sync.Mutex
	prompt string
	count  int
	calls  int
	result func(count int) []string
}

func (r *recordingImages) Obtain(ctx context.Context, prompt string, count int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.prompt = prompt
	r.count = count
	return r.result(count)
}

type recorder struct {
	outcomes []string
}

func (r *recorder) ObserveGeneration(outcome string, elapsed time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

const wirelessMouseJSON = "```json\n" + `{
  "title": "Wireless Mouse",
  "descriptionHtml": "<p>An ergonomic wireless mouse with silent clicks and a long battery life.</p>",
  "variants": [
    {"option1": "Black", "price": "19.99", "compareAtPrice": "24.99"},
    {"option1": "White", "price": 21.5}
  ],
  "seo": {"description": "Silent ergonomic wireless mouse."},
  "imagePrompt": "minimalist photo of a wireless mouse"
}` + "\n```"

func TestAssemblerWirelessMouseWithImageOutage(t *testing.T) {
	txt := &stubText{raw: wirelessMouseJSON}
	failing := image.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("image provider down")
	})
	rec := &recorder{}
	a := NewAssembler(Config{
		Text:             txt,
		Images:           image.NewPipeline(image.PipelineOptions{Generator: failing}),
		ImageEnabled:     true,
		ImageCredentials: creds(true),
		Recorder:         rec,
	})

	product, err := a.Generate(context.Background(), domain.GenerationRequest{
		Title:           "Wireless Mouse",
		Tone:            domain.ToneSEO,
		PricingStrategy: domain.PricingLow,
		ImageStyle:      domain.ImageStyleMinimal,
		ImageCount:      2,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if product.Tags == nil || len(product.Tags) != 0 {
		t.Fatalf("tags = %#v, want empty", product.Tags)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("variants = %+v", product.Variants)
	}
	if product.Variants[0].Price != "19.99" || product.Variants[1].Price != "21.5" {
		t.Fatalf("prices not preserved: %+v", product.Variants)
	}
	if len(product.Images) != 2 {
		t.Fatalf("images = %v", product.Images)
	}
	for _, img := range product.Images {
		if !strings.HasPrefix(img, "https://picsum.photos/seed/") {
			t.Fatalf("expected placeholder, got %q", img)
		}
	}
	if product.Images[0] == product.Images[1] {
		t.Fatal("placeholders must be distinct")
	}
	if product.SEO.Title != "Wireless Mouse" {
		t.Fatalf("seo title = %q", product.SEO.Title)
	}
	if txt.calls != 1 || !txt.deadline {
		t.Fatalf("text calls = %d deadline = %v", txt.calls, txt.deadline)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeSuccess {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestAssemblerUsesParsedImagePrompt(t *testing.T) {
	images := &recordingImages{result: func(n int) []string { return []string{"https://cdn/1"} }}
	a := NewAssembler(Config{
		Text:             &stubText{raw: wirelessMouseJSON},
		Images:           images,
		ImageEnabled:     true,
		ImageCredentials: creds(true),
	})
	product, err := a.Generate(context.Background(), domain.GenerationRequest{Title: "Wireless Mouse", ImageCount: 9})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if images.prompt != "minimalist photo of a wireless mouse" {
		t.Fatalf("prompt = %q", images.prompt)
	}
	if images.count != domain.MaxImageCount {
		t.Fatalf("count = %d, want clamped %d", images.count, domain.MaxImageCount)
	}
	if len(product.Images) != 1 {
		t.Fatalf("images = %v", product.Images)
	}
}

func TestAssemblerBuildsImagePromptWhenMissing(t *testing.T) {
	images := &recordingImages{result: func(n int) []string { return image.Placeholders(n) }}
	a := NewAssembler(Config{
		Text:             &stubText{raw: `{"tags":["x"]}`},
		Images:           images,
		ImageEnabled:     true,
		ImageCredentials: creds(true),
	})
	if _, err := a.Generate(context.Background(), domain.GenerationRequest{Title: "Tea Pot", ImageStyle: domain.ImageStyle3D}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if images.prompt != image.BuildPrompt(domain.ImageStyle3D, "Tea Pot") {
		t.Fatalf("prompt = %q", images.prompt)
	}
	if images.count != domain.DefaultImageCount {
		t.Fatalf("count = %d", images.count)
	}
}

func TestAssemblerImagesDisabled(t *testing.T) {
	images := &recordingImages{result: func(n int) []string { return nil }}
	a := NewAssembler(Config{
		Text:         &stubText{raw: `{}`},
		Images:       images,
		ImageEnabled: false,
	})
	product, err := a.Generate(context.Background(), domain.GenerationRequest{Title: "Mug", ImageCount: 2})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if images.calls != 0 {
		t.Fatal("image source must not be called when disabled")
	}
	if len(product.Images) != 2 {
		t.Fatalf("images = %v", product.Images)
	}
}

func TestAssemblerFatalFailures(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.GenerationRequest
		text      *stubText
		imgCreds  CredentialChecker
		want      error
		textCalls int
		outcome   string
	}{
		{
			name:    "blank title",
			req:     domain.GenerationRequest{Title: "   "},
			text:    &stubText{raw: `{}`},
			want:    domain.ErrValidation,
			outcome: OutcomeInvalid,
		},
		{
			name:    "missing text key",
			req:     domain.GenerationRequest{Title: "Mug"},
			text:    &stubText{noCreds: true},
			want:    domain.ErrMissingCredential,
			outcome: OutcomeCredential,
		},
		{
			name:     "missing image key",
			req:      domain.GenerationRequest{Title: "Mug"},
			text:     &stubText{raw: `{}`},
			imgCreds: creds(false),
			want:     domain.ErrMissingCredential,
			outcome:  OutcomeCredential,
		},
		{
			name:      "text provider error",
			req:       domain.GenerationRequest{Title: "Mug"},
			text:      &stubText{err: errors.New("503 upstream")},
			want:      domain.ErrGeneration,
			textCalls: 1,
			outcome:   OutcomeText,
		},
		{
			name:      "malformed output",
			req:       domain.GenerationRequest{Title: "Mug"},
			text:      &stubText{raw: "I cannot help with that"},
			want:      domain.ErrMalformedResponse,
			textCalls: 1,
			outcome:   OutcomeParse,
		},
		{
			name:      "empty output",
			req:       domain.GenerationRequest{Title: "Mug"},
			text:      &stubText{raw: "```json```"},
			want:      domain.ErrEmptyResponse,
			textCalls: 1,
			outcome:   OutcomeParse,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			images := &recordingImages{result: image.Placeholders}
			imgCreds := tc.imgCreds
			if imgCreds == nil {
				imgCreds = creds(true)
			}
			rec := &recorder{}
			a := NewAssembler(Config{
				Text:             tc.text,
				Images:           images,
				ImageEnabled:     true,
				ImageCredentials: imgCreds,
				Recorder:         rec,
			})
			product, err := a.Generate(context.Background(), tc.req)
			if product != nil {
				t.Fatalf("expected no product, got %+v", product)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if tc.text.calls != tc.textCalls {
				t.Fatalf("text calls = %d, want %d", tc.text.calls, tc.textCalls)
			}
			if images.calls != 0 {
				t.Fatal("images must not be requested after a fatal failure")
			}
			if len(rec.outcomes) != 1 || rec.outcomes[0] != tc.outcome {
				t.Fatalf("outcomes = %v, want %s", rec.outcomes, tc.outcome)
			}
		})
	}
}

func TestGenerationErrorKeepsRawOutOfMessage(t *testing.T) {
	a := NewAssembler(Config{Text: &stubText{raw: "secret raw output"}})
	_, err := a.Generate(context.Background(), domain.GenerationRequest{Title: "Mug"})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
	if genErr.Stage != StageParse || genErr.Raw != "secret raw output" {
		t.Fatalf("genErr = %+v", genErr)
	}
	if strings.Contains(err.Error(), "secret raw output") {
		t.Fatalf("raw leaked into message: %q", err.Error())
	}
}

func TestTruncateRawOutputOnRuneBoundary(t *testing.T) {
	raw := strings.Repeat("é", maxLoggedRaw)
	got := truncate(raw, maxLoggedRaw+1)
	if !utf8.ValidString(got) {
		t.Fatal("truncated raw output is not valid UTF-8")
	}
	if !strings.HasSuffix(got, "...") || len(got) > maxLoggedRaw+1+len("...") {
		t.Fatalf("unexpected truncation length %d", len(got))
	}
}
