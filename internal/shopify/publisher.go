package shopify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/providers/image"
	"shopgen/internal/sanitize"
)

// minInlinePayload matches the image pipeline: shorter inline payloads are garbage.
const minInlinePayload = 100

// Catalog is the subset of Client the publisher drives.
type Catalog interface {
	CreateProduct(ctx context.Context, p domain.CanonicalProduct) (*CreatedProduct, error)
	CreateVariants(ctx context.Context, productID string, variants []domain.Variant) error
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
	CreateMedia(ctx context.Context, productID string, urls []string) error
}

// Publisher pushes a CanonicalProduct into a shop's catalog.
type Publisher struct {
	catalog Catalog
	logger  infra.Logger
}

func NewPublisher(catalog Catalog, logger *infra.Logger) *Publisher {
	return &Publisher{catalog: catalog, logger: infra.LoggerOrNop(logger)}
}

// Publish validates and sanitizes product, creates it with its variants and
// attaches its images. It returns the created product GID. An inline image
// whose staged upload fails is replaced by a placeholder instead of failing
// the publish.
func (p *Publisher) Publish(ctx context.Context, product domain.CanonicalProduct) (string, error) {
	if err := domain.ValidateForPublish(&product); err != nil {
		return "", err
	}
	clean, err := sanitize.HTML(product.DescriptionHTML)
	if err != nil {
		return "", fmt.Errorf("shopify: sanitize description: %w", err)
	}
	product.DescriptionHTML = clean

	created, err := p.catalog.CreateProduct(ctx, product)
	if err != nil {
		return "", err
	}
	log := p.logger.With().Str("product_id", created.ID).Logger()

	if err := p.catalog.CreateVariants(ctx, created.ID, product.Variants); err != nil {
		return "", fmt.Errorf("create variants for %s: %w", created.ID, err)
	}

	urls := p.hostImages(ctx, product.Images)
	if err := p.catalog.CreateMedia(ctx, created.ID, urls); err != nil {
		return "", fmt.Errorf("attach media to %s: %w", created.ID, err)
	}
	log.Info().Int("variants", len(product.Variants)).Int("media", len(urls)).Msg("shopify: product published")
	return created.ID, nil
}

// hostImages returns an originalSource URL for every usable image, in order.
// Remote URLs pass through; inline payloads are staged; anything else is dropped.
func (p *Publisher) hostImages(ctx context.Context, images []string) []string {
	resolved := make([]string, len(images))
	placeholders := image.Placeholders(len(images))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, img := range images {
		i, img := i, strings.TrimSpace(img)
		switch {
		case strings.HasPrefix(img, "https://") || strings.HasPrefix(img, "http://"):
			resolved[i] = img
		case len(img) > minInlinePayload:
			eg.Go(func() error {
				resolved[i] = p.stage(egCtx, i, img, placeholders[i])
				return nil
			})
		default:
			p.logger.Warn().Int("index", i).Msg("shopify: skipping unrecognized image")
		}
	}
	_ = eg.Wait()

	out := make([]string, 0, len(resolved))
	for _, u := range resolved {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (p *Publisher) stage(ctx context.Context, i int, payload, placeholder string) string {
	data, err := image.DecodePayload(payload)
	if err == nil {
		var url string
		url, err = p.catalog.UploadImage(ctx, fmt.Sprintf("image-%d.png", i+1), data)
		if err == nil {
			return url
		}
	}
	p.logger.Warn().Err(err).Int("index", i).Msg("shopify: staged upload failed, using placeholder")
	return placeholder
}

var _ Catalog = (*Client)(nil)
