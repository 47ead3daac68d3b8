package image

import (
	"fmt"
	"strings"

	"shopgen/internal/domain"
)

var stylePhrases = map[domain.ImageStyle]string{
	domain.ImageStyleStudio:    "professional studio product photography, white background, soft lighting",
	domain.ImageStyle3D:        "3D rendered product visualization, clean background",
	domain.ImageStyleLifestyle: "lifestyle product photography, natural setting, in use",
	domain.ImageStyleMinimal:   "minimalist product photography, plain background, centered composition",
}

// BuildPrompt is the image prompt used when the text model did not supply one.
func BuildPrompt(style domain.ImageStyle, title string) string {
	phrase, ok := stylePhrases[domain.NormalizeImageStyle(string(style))]
	if !ok {
		phrase = stylePhrases[domain.DefaultImageStyle]
	}
	return fmt.Sprintf("%s of %s, high quality, ecommerce photo", phrase, strings.TrimSpace(title))
}
