// Package catalog holds the records and request shapes exchanged with the hosted search service.
package catalog

import (
	"fmt"
	"strconv"
)

// PlaceholderImage is shown for records without an image.
const PlaceholderImage = "/placeholder-image.jpg"

// FallbackTitle is shown for records without a name or title.
const FallbackTitle = "Item"

// ProductPath is the navigation prefix for product detail pages.
const ProductPath = "/product/"

// Hit is a single record returned by the search service. Attribute shapes vary
// per index, so accessors tolerate missing or mistyped fields.
type Hit map[string]any

// ObjectID returns the record identifier.
func (h Hit) ObjectID() string { return h.String("objectID") }

// String returns a string attribute or "".
func (h Hit) String(attr string) string {
	switch v := h[attr].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Float returns a numeric attribute or 0.
func (h Hit) Float(attr string) float64 {
	switch v := h[attr].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Strings returns a list attribute. A scalar string becomes a one-element list.
func (h Hit) Strings(attr string) []string {
	switch v := h[attr].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Path returns the string found by descending through nested objects along keys.
// The first element is taken when a list is met on the way.
func (h Hit) Path(keys ...string) string {
	var cur any = map[string]any(h)
	for _, k := range keys {
		cur = descend(cur, k)
		if cur == nil {
			return ""
		}
	}
	if list, ok := cur.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		cur = list[0]
	}
	s, _ := cur.(string)
	return s
}

func descend(cur any, key string) any {
	if list, ok := cur.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		cur = list[0]
	}
	switch m := cur.(type) {
	case map[string]any:
		return m[key]
	case Hit:
		return m[key]
	default:
		return nil
	}
}

// Snippet returns the snippeted value of attr, falling back to the raw attribute.
func (h Hit) Snippet(attr string) string {
	if s := h.Path("_snippetResult", attr, "value"); s != "" {
		return s
	}
	return h.String(attr)
}

// Highlight returns the highlighted value of attr, falling back to the raw attribute.
func (h Hit) Highlight(attr string) string {
	if s := h.Path("_highlightResult", attr, "value"); s != "" {
		return s
	}
	return h.String(attr)
}

// Title returns name, then title, then FallbackTitle.
func (h Hit) Title() string {
	if s := h.String("name"); s != "" {
		return s
	}
	if s := h.String("title"); s != "" {
		return s
	}
	return FallbackTitle
}

// Image returns the image URL or PlaceholderImage.
func (h Hit) Image() string {
	if s := h.String("image"); s != "" {
		return s
	}
	return PlaceholderImage
}

// URL returns the record's own url or its product detail path.
func (h Hit) URL() string {
	if s := h.String("url"); s != "" {
		return s
	}
	return ProductPath + h.ObjectID()
}
