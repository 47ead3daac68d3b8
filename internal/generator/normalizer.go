package generator

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shopgen/internal/domain"
)

const (
	minDescriptionText = 20
	defaultOption      = "Default"
)

var tierPrices = map[domain.PricingStrategy]string{
	domain.PricingLow:     "14.99",
	domain.PricingPremium: "79.99",
}

const mediumTierPrice = "29.99"

// TierPrice is the fallback price for a pricing strategy.
func TierPrice(pricing domain.PricingStrategy) string {
	if p, ok := tierPrices[pricing]; ok {
		return p
	}
	return mediumTierPrice
}

// Normalize reconciles parsed model output with the canonical product shape.
// It is total: a nil parsed value yields a fully defaulted product.
func Normalize(title string, parsed *domain.ParsedContent, pricing domain.PricingStrategy, images []string) domain.CanonicalProduct {
	title = strings.TrimSpace(title)
	if parsed == nil {
		parsed = &domain.ParsedContent{}
	}
	if images == nil {
		images = []string{}
	}
	return domain.CanonicalProduct{
		Title:           title,
		DescriptionHTML: normalizeDescription(title, parsed.DescriptionHTML, parsed.Features),
		Variants:        normalizeVariants(parsed.Variants, TierPrice(pricing)),
		Tags:            normalizeTags(parsed.Tags),
		SEO:             normalizeSEO(title, parsed.SEO),
		Images:          images,
	}
}

func normalizeDescription(title string, desc *string, features []string) string {
	if desc != nil && len([]rune(TextContent(*desc))) > minDescriptionText {
		return strings.TrimSpace(*desc)
	}
	return FallbackDescription(title) + featureList(features)
}

// featureList renders the model's feature bullets as an escaped <ul>, or ""
// when there are none.
func featureList(features []string) string {
	sb := &strings.Builder{}
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			sb.WriteString("<li>" + html.EscapeString(f) + "</li>")
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<ul>" + sb.String() + "</ul>"
}

// FallbackDescription is the two-paragraph copy used when the model's
// description is missing or too thin.
func FallbackDescription(title string) string {
	t := html.EscapeString(title)
	return fmt.Sprintf("<p>Discover the %s, designed to combine quality, comfort and everyday practicality.</p>"+
		"<p>Every %s is made with carefully selected materials, so it is a reliable choice for yourself or a thoughtful gift.</p>", t, t)
}

// TextContent returns the visible text of an HTML fragment.
func TextContent(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func normalizeVariants(parsed []domain.ParsedVariant, tier string) []domain.Variant {
	if len(parsed) == 0 {
		return []domain.Variant{{Option1: defaultOption, Price: tier, CompareAtPrice: ""}}
	}
	out := make([]domain.Variant, 0, len(parsed))
	for _, v := range parsed {
		option := strings.TrimSpace(domain.Str(v.Option))
		if option == "" {
			option = defaultOption
		}
		price := strings.TrimSpace(domain.Str(v.Price))
		if !positiveDecimal(price) {
			price = tier
		}
		compareAt := strings.TrimSpace(domain.Str(v.CompareAtPrice))
		if !positiveDecimal(compareAt) {
			compareAt = ""
		}
		out = append(out, domain.Variant{
			Option1:        option,
			Price:          price,
			CompareAtPrice: compareAt,
		})
	}
	return out
}

// Catalog prices are plain decimals: no sign, exponent, hex or separators.
var plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

func positiveDecimal(s string) bool {
	if !plainDecimal.MatchString(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f > 0
}

var lowerTag = cases.Lower(language.Und)

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, lowerTag.String(tag))
	}
	return out
}

func normalizeSEO(title string, seo *domain.ParsedSEO) domain.SEO {
	out := domain.SEO{Title: title, Description: fmt.Sprintf("Buy premium %s at the best price.", title)}
	if seo == nil {
		return out
	}
	if t := strings.TrimSpace(domain.Str(seo.Title)); t != "" {
		out.Title = t
	}
	if d := strings.TrimSpace(domain.Str(seo.Description)); d != "" {
		out.Description = d
	}
	return out
}
