package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
)

const (
	// DefaultProviderCap bounds how many images are requested from the provider per product.
	DefaultProviderCap = 3

	// Payloads at or below this length are treated as provider garbage.
	minPayloadLength = 100
)

// Fallback reasons reported through PipelineOptions.OnFallback.
const (
	FallbackDisabled = "disabled"
	FallbackProvider = "provider_error"
	FallbackInvalid  = "invalid_payload"
	FallbackUpload   = "upload_error"
)

type PipelineOptions struct {
	// Generator may be nil, in which case every batch is placeholders.
	Generator Generator
	// Uploader is optional. Without it, images are returned as data URIs.
	Uploader    Uploader
	ProviderCap int
	Logger      *infra.Logger
	OnFallback  func(reason string, count int)
}

// Pipeline produces the image list of a product. It never fails: any error in
// the batch discards the whole batch and yields placeholders instead.
type Pipeline struct {
	generator   Generator
	uploader    Uploader
	providerCap int
	logger      infra.Logger
	onFallback  func(reason string, count int)
	placeholder func(count int) []string
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	limit := opts.ProviderCap
	if limit <= 0 {
		limit = DefaultProviderCap
	}
	return &Pipeline{
		generator:   opts.Generator,
		uploader:    opts.Uploader,
		providerCap: limit,
		logger:      infra.LoggerOrNop(opts.Logger),
		onFallback:  opts.OnFallback,
		placeholder: Placeholders,
	}
}

// Obtain returns min(count, cap) generated images, or count placeholders when
// anything in the batch fails.
func (p *Pipeline) Obtain(ctx context.Context, prompt string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if p == nil || p.generator == nil {
		return p.fallback(FallbackDisabled, count, nil)
	}

	n := count
	if n > p.providerCap {
		n = p.providerCap
	}
	payloads := make([]string, n)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			payload, err := p.generator.Generate(egCtx, prompt)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrImageProvider, err)
			}
			if !validPayload(payload) {
				return errInvalidPayload
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		reason := FallbackProvider
		if errors.Is(err, errInvalidPayload) {
			reason = FallbackInvalid
		}
		return p.fallback(reason, count, err)
	}

	if p.uploader == nil {
		images := make([]string, n)
		for i, payload := range payloads {
			images[i] = dataURI(payload)
		}
		return images
	}

	images, err := p.upload(ctx, payloads)
	if err != nil {
		return p.fallback(FallbackUpload, count, err)
	}
	return images
}

func (p *Pipeline) upload(ctx context.Context, payloads []string) ([]string, error) {
	urls := make([]string, len(payloads))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, payload := range payloads {
		i, payload := i, payload
		eg.Go(func() error {
			data, err := DecodePayload(payload)
			if err != nil {
				return fmt.Errorf("%w: decode payload %d: %v", domain.ErrUpload, i, err)
			}
			url, err := p.uploader.Upload(egCtx, fmt.Sprintf("product-%d.png", i+1), data)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrUpload, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (p *Pipeline) fallback(reason string, count int, err error) []string {
	if p == nil {
		return Placeholders(count)
	}
	ev := p.logger.Warn().Str("reason", reason).Int("count", count)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("image: using placeholders")
	if p.onFallback != nil {
		p.onFallback(reason, count)
	}
	return p.placeholder(count)
}

var errInvalidPayload = errors.New("image: invalid payload")

func validPayload(payload string) bool {
	return len(strings.TrimSpace(payload)) > minPayloadLength
}

func dataURI(payload string) string {
	if strings.HasPrefix(payload, "data:") {
		return payload
	}
	return "data:image/png;base64," + payload
}

// IsDataURI reports whether s is an inline base64 image rather than a hosted URL.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// DecodePayload accepts a bare base64 payload or a data URI.
func DecodePayload(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(stripDataURI(strings.TrimSpace(payload)))
}

func stripDataURI(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if idx := strings.Index(payload, ","); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}
