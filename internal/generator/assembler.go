package generator

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/providers/image"
	"shopgen/internal/providers/text"
)

const (
	defaultTextTimeout  = 45 * time.Second
	defaultImageTimeout = 90 * time.Second

	maxLoggedRaw = 2000
)

// Generation stages reported in GenerationError.Stage.
const (
	StageText  = "text"
	StageParse = "parse"
)

// Outcomes passed to Recorder.ObserveGeneration.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeCredential = "missing_credential"
	OutcomeText       = "text_error"
	OutcomeParse      = "parse_error"
)

type TextClient interface {
	Complete(ctx context.Context, messages []text.Message) (string, error)
	HasCredentials() bool
}

type ImageSource interface {
	Obtain(ctx context.Context, prompt string, count int) []string
}

type CredentialChecker interface {
	HasCredentials() bool
}

type Recorder interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
}

// Config wires the assembler's collaborators.
type Config struct {
	Text   TextClient
	Images ImageSource
	// ImageEnabled false skips the image provider entirely and uses placeholders.
	ImageEnabled bool
	// ImageCredentials is consulted only when ImageEnabled is true.
	ImageCredentials CredentialChecker
	TextTimeout      time.Duration
	ImageTimeout     time.Duration
	Logger           *infra.Logger
	Recorder         Recorder
}

// Assembler turns a GenerationRequest into a complete CanonicalProduct.
type Assembler struct {
	text         TextClient
	images       ImageSource
	imageEnabled bool
	imageCreds   CredentialChecker
	textTimeout  time.Duration
	imageTimeout time.Duration
	logger       infra.Logger
	recorder     Recorder
}

func NewAssembler(cfg Config) *Assembler {
	a := &Assembler{
		text:         cfg.Text,
		images:       cfg.Images,
		imageEnabled: cfg.ImageEnabled,
		imageCreds:   cfg.ImageCredentials,
		textTimeout:  cfg.TextTimeout,
		imageTimeout: cfg.ImageTimeout,
		logger:       infra.LoggerOrNop(cfg.Logger),
		recorder:     cfg.Recorder,
	}
	if a.textTimeout <= 0 {
		a.textTimeout = defaultTextTimeout
	}
	if a.imageTimeout <= 0 {
		a.imageTimeout = defaultImageTimeout
	}
	return a
}

// Generate runs one text call, parses it, obtains images and normalizes the
// result. Failures before images are fatal; image failures never are.
func (a *Assembler) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.CanonicalProduct, error) {
	start := time.Now()
	req.Normalize()
	if err := req.Validate(); err != nil {
		a.observe(OutcomeInvalid, start)
		return nil, err
	}
	if err := a.checkCredentials(); err != nil {
		a.observe(OutcomeCredential, start)
		return nil, err
	}

	log := a.logger.With().Str("title", req.Title).Logger()

	textCtx, cancel := context.WithTimeout(ctx, a.textTimeout)
	raw, err := a.text.Complete(textCtx, text.BuildProductMessages(req))
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("generator: text provider failed")
		a.observe(OutcomeText, start)
		return nil, &domain.GenerationError{Stage: StageText, Err: err}
	}

	parsed, err := Parse(raw)
	if err != nil {
		log.Error().Err(err).Str("raw", truncate(raw, maxLoggedRaw)).Msg("generator: unparseable model output")
		a.observe(OutcomeParse, start)
		return nil, &domain.GenerationError{Stage: StageParse, Raw: raw, Err: err}
	}

	prompt := strings.TrimSpace(domain.Str(parsed.ImagePrompt))
	if prompt == "" {
		prompt = image.BuildPrompt(req.ImageStyle, req.Title)
	}
	images := a.obtainImages(ctx, prompt, req.ImageCount)

	product := Normalize(req.Title, parsed, req.PricingStrategy, images)
	log.Info().
		Int("variants", len(product.Variants)).
		Int("tags", len(product.Tags)).
		Int("images", len(product.Images)).
		Dur("elapsed", time.Since(start)).
		Msg("generator: product assembled")
	a.observe(OutcomeSuccess, start)
	return &product, nil
}

func (a *Assembler) checkCredentials() error {
	if a.text == nil || !a.text.HasCredentials() {
		return &domain.MissingCredentialError{Name: "TEXT_API_KEY"}
	}
	if a.imageEnabled && (a.imageCreds == nil || !a.imageCreds.HasCredentials()) {
		return &domain.MissingCredentialError{Name: "IMAGE_API_KEY"}
	}
	return nil
}

func (a *Assembler) obtainImages(ctx context.Context, prompt string, count int) []string {
	if !a.imageEnabled || a.images == nil {
		return image.Placeholders(count)
	}
	imgCtx, cancel := context.WithTimeout(ctx, a.imageTimeout)
	defer cancel()
	return a.images.Obtain(imgCtx, prompt, count)
}

func (a *Assembler) observe(outcome string, start time.Time) {
	if a.recorder != nil {
		a.recorder.ObserveGeneration(outcome, time.Since(start))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
