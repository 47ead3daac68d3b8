// Package sanitize cleans model-generated HTML before it is stored in a catalog.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockedTags = "script, style, iframe, object, embed, form, link, meta, base"

var urlAttrs = map[string]bool{"href": true, "src": true, "action": true, "formaction": true, "xlink:href": true}

// HTML removes executable markup from fragment: blocked elements, on*
// handlers and javascript:/vbscript:/data: URLs in link attributes.
func HTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find(blockedTags).Remove()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if urlAttrs[key] && unsafeURL(attr.Val) {
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func unsafeURL(v string) bool {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") || strings.HasPrefix(v, "data:")
}
