package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ParsedContent is the loosely shaped object decoded from model output. Every
// field is optional; a field with an unexpected JSON type is treated as absent.
type ParsedContent struct {
	Title           *string
	DescriptionHTML *string
	Variants        []ParsedVariant
	HasVariants     bool
	Tags            []string
	HasTags         bool
	SEO             *ParsedSEO
	ImagePrompt     *string
	Features        []string
}

type ParsedVariant struct {
	Option         *string
	Price          *string
	CompareAtPrice *string
}

type ParsedSEO struct {
	Title       *string
	Description *string
}

var errNotObject = errors.New("model payload is not a JSON object")

func (p *ParsedContent) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*p = ParsedContent{}
	p.Title = stringField(fields, false, "title")
	p.DescriptionHTML = stringField(fields, false, "descriptionHtml", "description_html", "descriptionHTML")
	p.ImagePrompt = stringField(fields, false, "imagePrompt", "image_prompt")

	if raw, ok := lookup(fields, "variants"); ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && items != nil {
			p.HasVariants = true
			for _, item := range items {
				vf, err := decodeObject(item)
				if err != nil {
					p.Variants = append(p.Variants, ParsedVariant{})
					continue
				}
				p.Variants = append(p.Variants, ParsedVariant{
					Option:         stringField(vf, false, "option1", "title", "name"),
					Price:          stringField(vf, true, "price"),
					CompareAtPrice: stringField(vf, true, "compareAtPrice", "compare_at_price"),
				})
			}
		}
	}

	if tags, ok := stringList(fields, "tags"); ok {
		p.HasTags = true
		p.Tags = tags
	}
	p.Features, _ = stringList(fields, "features")

	if raw, ok := lookup(fields, "seo"); ok {
		if sf, err := decodeObject(raw); err == nil {
			p.SEO = &ParsedSEO{
				Title:       stringField(sf, false, "title"),
				Description: stringField(sf, false, "description"),
			}
		}
	}
	return nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func lookup(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

// stringField returns the first present key as a string. With allowNumber, a
// JSON number is accepted and kept in its literal form ("29.9" for 29.9).
func stringField(fields map[string]json.RawMessage, allowNumber bool, keys ...string) *string {
	raw, ok := lookup(fields, keys...)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	if allowNumber {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err == nil {
			v := n.String()
			return &v
		}
	}
	return nil
}

// stringList decodes an array field, keeping only its string items. ok is
// false when the field is absent or not an array.
func stringList(fields map[string]json.RawMessage, key string) ([]string, bool) {
	raw, ok := lookup(fields, key)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if isNull(item) || json.Unmarshal(item, &s) != nil {
			continue
		}
		out = append(out, s)
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Str returns the pointed-to string or "".
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
