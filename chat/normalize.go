package chat

import "strconv"

// Ordered field aliases for one raw order object. Precedence is part of
// the wire contract: the first present, non-empty key wins.
var (
	titleFields    = []string{"title", "item"}
	subtitleFields = []string{"subtitle", "quantity"}
	imageFields    = []string{"image", "image_url"}
)

const (
	defaultTitle    = "Item"
	defaultSubtitle = "1 pcs"
)

// Normalize converts a backend reply of any accepted wire shape into a
// flat list of renderable contents, oldest first. A reply can yield
// both a text entry and an order-summary entry; neither is dropped.
// Shape dispatch happens here and nowhere else.
//
// Accepted shapes: a bare string; an object with `text` and/or
// `render {type: "order_summary", ...}`; an object whose `response`
// field is either of those; and the legacy variant carrying `orders`
// directly under a `slots` field.
func Normalize(reply any) []Content {
	if s, ok := reply.(string); ok {
		return []Content{PlainText{Text: s}}
	}
	obj, ok := reply.(map[string]any)
	if !ok {
		return []Content{RawFallback{Value: reply}}
	}

	var out []Content

	// Look through an enclosing {response: ...} envelope once.
	inner := obj
	switch resp := obj["response"].(type) {
	case string:
		out = append(out, PlainText{Text: resp})
	case map[string]any:
		inner = resp
	}

	if text, ok := inner["text"].(string); ok {
		out = append(out, PlainText{Text: text})
	}

	if summary, ok := extractOrderSummary(obj, inner); ok {
		out = append(out, summary)
	}

	if len(out) == 0 {
		return []Content{RawFallback{Value: reply}}
	}
	return out
}

func extractOrderSummary(outer, inner map[string]any) (OrderSummary, bool) {
	if render, ok := inner["render"].(map[string]any); ok {
		if t, _ := render["type"].(string); t == "order_summary" {
			return buildOrderSummary(render), true
		}
	}
	// Legacy backends put orders under a top-level slots field.
	for _, m := range []map[string]any{outer, inner} {
		if slots, ok := m["slots"].(map[string]any); ok {
			if _, ok := slots["orders"].([]any); ok {
				return buildOrderSummary(slots), true
			}
		}
	}
	return OrderSummary{}, false
}

func buildOrderSummary(src map[string]any) OrderSummary {
	var summary OrderSummary
	if dt, ok := fieldString(src["delivery_time"]); ok {
		summary.DeliveryTime = dt
	}
	orders, _ := src["orders"].([]any)
	for _, raw := range orders {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		summary.Orders = append(summary.Orders, resolveOrderLine(m))
	}
	return summary
}

func resolveOrderLine(m map[string]any) OrderLine {
	line := OrderLine{Title: defaultTitle, Subtitle: defaultSubtitle}
	if v, ok := resolveField(m, titleFields); ok {
		line.Title = v
	}
	if v, ok := resolveField(m, subtitleFields); ok {
		line.Subtitle = v
	}
	if v, ok := resolveField(m, imageFields); ok {
		line.ImageURL = v
	}
	return line
}

func resolveField(m map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := fieldString(m[k]); ok {
			return s, true
		}
	}
	return "", false
}

// fieldString accepts the value types JSON decoding can produce for
// card fields. Numbers are formatted without a trailing fraction so
// quantity 2 renders as "2".
func fieldString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}
