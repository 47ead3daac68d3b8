package domain

import (
	"strings"
)

// Tone selects the copywriting voice requested from the text model.
type Tone string

const (
	ToneSEO          Tone = "seo"
	ToneLuxury       Tone = "luxury"
	ToneSimple       Tone = "simple"
	ToneFun          Tone = "fun"
	ToneProfessional Tone = "professional"
)

// PricingStrategy selects the price tier used for prompts and fallbacks.
type PricingStrategy string

const (
	PricingLow     PricingStrategy = "low"
	PricingMedium  PricingStrategy = "medium"
	PricingPremium PricingStrategy = "premium"
)

// ImageStyle selects the visual direction of generated product shots.
type ImageStyle string

const (
	ImageStyleStudio    ImageStyle = "studio"
	ImageStyle3D        ImageStyle = "3d"
	ImageStyleLifestyle ImageStyle = "lifestyle"
	ImageStyleMinimal   ImageStyle = "minimal"
)

const (
	DefaultTone            = ToneSEO
	DefaultPricingStrategy = PricingMedium
	DefaultImageStyle      = ImageStyleStudio
	DefaultImageCount      = 3
	MinImageCount          = 1
	MaxImageCount          = 5
)

// GenerationRequest is the per-action input to the generation pipeline.
type GenerationRequest struct {
	Title           string          `json:"title"`
	Tone            Tone            `json:"tone"`
	PricingStrategy PricingStrategy `json:"pricingStrategy"`
	ImageStyle      ImageStyle      `json:"imageStyle"`
	ImageCount      int             `json:"imageCount"`
}

// Normalize trims the title and replaces unknown or missing options with defaults.
func (r *GenerationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Tone = NormalizeTone(string(r.Tone))
	r.PricingStrategy = NormalizePricingStrategy(string(r.PricingStrategy))
	r.ImageStyle = NormalizeImageStyle(string(r.ImageStyle))
	r.ImageCount = ClampImageCount(r.ImageCount)
}

// Validate rejects requests that must not reach any provider.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}

func NormalizeTone(v string) Tone {
	switch Tone(strings.ToLower(strings.TrimSpace(v))) {
	case ToneLuxury:
		return ToneLuxury
	case ToneSimple:
		return ToneSimple
	case ToneFun:
		return ToneFun
	case ToneProfessional:
		return ToneProfessional
	default:
		return DefaultTone
	}
}

func NormalizePricingStrategy(v string) PricingStrategy {
	switch PricingStrategy(strings.ToLower(strings.TrimSpace(v))) {
	case PricingLow:
		return PricingLow
	case PricingPremium:
		return PricingPremium
	default:
		return DefaultPricingStrategy
	}
}

func NormalizeImageStyle(v string) ImageStyle {
	switch ImageStyle(strings.ToLower(strings.TrimSpace(v))) {
	case ImageStyle3D:
		return ImageStyle3D
	case ImageStyleLifestyle:
		return ImageStyleLifestyle
	case ImageStyleMinimal:
		return ImageStyleMinimal
	default:
		return DefaultImageStyle
	}
}

// ClampImageCount maps zero/negative to the default and caps at MaxImageCount.
func ClampImageCount(n int) int {
	if n < MinImageCount {
		return DefaultImageCount
	}
	if n > MaxImageCount {
		return MaxImageCount
	}
	return n
}

// Variant is one purchasable option of a product. Prices are decimal strings.
type Variant struct {
	Option1        string `json:"option1"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compareAtPrice"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CanonicalProduct is the always-complete listing handed to the publisher.
type CanonicalProduct struct {
	Title           string    `json:"title"`
	DescriptionHTML string    `json:"descriptionHtml"`
	Variants        []Variant `json:"variants"`
	Tags            []string  `json:"tags"`
	SEO             SEO       `json:"seo"`
	Images          []string  `json:"images"`
}

// ValidateForPublish performs the minimal checks the catalog requires.
func ValidateForPublish(p *CanonicalProduct) error {
	if p == nil || strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "missing product title"}
	}
	if strings.TrimSpace(p.DescriptionHTML) == "" {
		return &ValidationError{Field: "descriptionHtml", Reason: "missing description"}
	}
	if len(p.Variants) == 0 {
		return &ValidationError{Field: "variants", Reason: "at least one variant required"}
	}
	return nil
}
