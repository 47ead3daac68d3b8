package text

import (
	"fmt"
	"strings"

	"shopgen/internal/domain"
)

const systemPrompt = "You generate Shopify product data. Respond ONLY with valid JSON: no markdown, no explanations, no backticks."

var toneInstructions = map[domain.Tone]string{
	domain.ToneSEO:          "Write search-optimized copy that naturally repeats the main product keywords.",
	domain.ToneLuxury:       "Write refined, premium copy that emphasises craftsmanship and exclusivity.",
	domain.ToneSimple:       "Write short, plain copy with simple sentences.",
	domain.ToneFun:          "Write playful, energetic copy with a light sense of humour.",
	domain.ToneProfessional: "Write confident, factual copy suited to business buyers.",
}

var pricingGuidance = map[domain.PricingStrategy]string{
	domain.PricingLow:     "Price as a budget-friendly product, roughly 9 to 25 USD.",
	domain.PricingMedium:  "Price at the market average, roughly 25 to 60 USD.",
	domain.PricingPremium: "Price as a premium product, roughly 60 to 200 USD.",
}

const productSchema = `{
  "title": string,
  "descriptionHtml": string,
  "variants": [{ "option1": string, "price": string, "compareAtPrice": string }],
  "tags": string[],
  "features": string[],
  "seo": { "title": string, "description": string },
  "imagePrompt": string
}`

// BuildProductMessages renders the system and user turns for one product.
func BuildProductMessages(req domain.GenerationRequest) []Message {
	tone := toneInstructions[domain.NormalizeTone(string(req.Tone))]
	pricing := pricingGuidance[domain.NormalizePricingStrategy(string(req.PricingStrategy))]

	sb := &strings.Builder{}
	sb.WriteString("Generate a complete product listing.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Respond ONLY with valid JSON matching the schema below\n")
	sb.WriteString("- descriptionHtml uses <p>, <ul>, <li> and <strong> only, at least two paragraphs\n")
	sb.WriteString("- 3 to 4 variants; prices are decimal strings such as \"29.99\"\n")
	sb.WriteString("- 5 to 7 lowercase tags\n")
	sb.WriteString("- 3 to 5 short feature bullets\n")
	sb.WriteString("- seo.title under 70 characters, seo.description under 160 characters\n")
	fmt.Fprintf(sb, "- imagePrompt describes a %s product photo without any text overlay\n", req.ImageStyle)
	fmt.Fprintf(sb, "- %s\n", tone)
	fmt.Fprintf(sb, "- %s\n\n", pricing)
	sb.WriteString("JSON schema:\n")
	sb.WriteString(productSchema)
	fmt.Fprintf(sb, "\n\nProduct title: %q\n", strings.TrimSpace(req.Title))

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: sb.String()},
	}
}
