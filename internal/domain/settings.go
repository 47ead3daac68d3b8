package domain

import (
	"strings"
	"time"
)

// Settings holds a shop's generation defaults.
type Settings struct {
	Shop            string          `json:"shop"`
	Tone            Tone            `json:"tone"`
	ImageStyle      ImageStyle      `json:"imageStyle"`
	ImageCount      int             `json:"imageCount"`
	PricingStrategy PricingStrategy `json:"pricingStrategy"`
	UpdatedAt       time.Time       `json:"updatedAt,omitempty"`
}

// DefaultSettings is returned for shops that never saved their preferences.
func DefaultSettings(shop string) Settings {
	return Settings{
		Shop:            shop,
		Tone:            DefaultTone,
		ImageStyle:      DefaultImageStyle,
		ImageCount:      DefaultImageCount,
		PricingStrategy: DefaultPricingStrategy,
	}
}

// Normalize coerces stored or submitted values into the supported enums.
func (s *Settings) Normalize() {
	s.Shop = strings.TrimSpace(s.Shop)
	s.Tone = NormalizeTone(string(s.Tone))
	s.ImageStyle = NormalizeImageStyle(string(s.ImageStyle))
	s.ImageCount = ClampImageCount(s.ImageCount)
	s.PricingStrategy = NormalizePricingStrategy(string(s.PricingStrategy))
}

// Apply fills the request options the caller left empty from the shop defaults.
func (s Settings) Apply(req *GenerationRequest) {
	if req == nil {
		return
	}
	if strings.TrimSpace(string(req.Tone)) == "" {
		req.Tone = s.Tone
	}
	if strings.TrimSpace(string(req.PricingStrategy)) == "" {
		req.PricingStrategy = s.PricingStrategy
	}
	if strings.TrimSpace(string(req.ImageStyle)) == "" {
		req.ImageStyle = s.ImageStyle
	}
	if req.ImageCount == 0 {
		req.ImageCount = s.ImageCount
	}
}
