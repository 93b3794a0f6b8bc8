package chat

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return v
}

func TestNormalizeBareString(t *testing.T) {
	got := Normalize("hi there")
	want := []Content{PlainText{Text: "hi there"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestNormalizeResponseString(t *testing.T) {
	got := Normalize(decode(t, `{"response": "hello"}`))
	want := []Content{PlainText{Text: "hello"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestNormalizeTextAndOrderSummary(t *testing.T) {
	raw := `{"response": {
		"text": "ok",
		"render": {
			"type": "order_summary",
			"orders": [{"item": "Nasi Goreng", "quantity": 2}],
			"delivery_time": "18:00"
		}
	}}`
	got := Normalize(decode(t, raw))

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %#v", len(got), got)
	}
	if text, ok := got[0].(PlainText); !ok || text.Text != "ok" {
		t.Errorf("entry 0 = %#v, want PlainText ok", got[0])
	}
	summary, ok := got[1].(OrderSummary)
	if !ok {
		t.Fatalf("entry 1 = %#v, want OrderSummary", got[1])
	}
	wantLine := OrderLine{Title: "Nasi Goreng", Subtitle: "2"}
	if len(summary.Orders) != 1 || summary.Orders[0] != wantLine {
		t.Errorf("orders = %#v, want [%#v]", summary.Orders, wantLine)
	}
	if summary.DeliveryTime != "18:00" {
		t.Errorf("delivery time = %q, want %q", summary.DeliveryTime, "18:00")
	}
}

func TestNormalizeLegacySlots(t *testing.T) {
	raw := `{"response": "x", "slots": {"orders": [{"item": "Sate Ayam"}], "delivery_time": "19:30"}}`
	got := Normalize(decode(t, raw))

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %#v", len(got), got)
	}
	if text, ok := got[0].(PlainText); !ok || text.Text != "x" {
		t.Errorf("entry 0 = %#v, want PlainText x", got[0])
	}
	summary, ok := got[1].(OrderSummary)
	if !ok {
		t.Fatalf("entry 1 = %#v, want OrderSummary", got[1])
	}
	if len(summary.Orders) != 1 || summary.Orders[0].Title != "Sate Ayam" {
		t.Errorf("orders = %#v", summary.Orders)
	}
	if summary.Orders[0].Subtitle != defaultSubtitle {
		t.Errorf("subtitle = %q, want default %q", summary.Orders[0].Subtitle, defaultSubtitle)
	}
	if summary.DeliveryTime != "19:30" {
		t.Errorf("delivery time = %q, want %q", summary.DeliveryTime, "19:30")
	}
}

func TestNormalizeUnrecognizedShape(t *testing.T) {
	for _, tt := range []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"number", `42`},
		{"unrelated fields", `{"status": "done", "code": 7}`},
		{"null", `null`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decode(t, tt.raw))
			if len(got) != 1 {
				t.Fatalf("got %d entries, want 1", len(got))
			}
			if _, ok := got[0].(RawFallback); !ok {
				t.Errorf("got %#v, want RawFallback", got[0])
			}
		})
	}
}

func TestResolveOrderLineDefaults(t *testing.T) {
	line := resolveOrderLine(map[string]any{})
	if line.Title != "Item" {
		t.Errorf("title = %q, want %q", line.Title, "Item")
	}
	if line.Subtitle != "1 pcs" {
		t.Errorf("subtitle = %q, want %q", line.Subtitle, "1 pcs")
	}
	if line.ImageURL != "" {
		t.Errorf("image = %q, want empty", line.ImageURL)
	}
}

func TestResolveOrderLinePrecedence(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   map[string]any
		want OrderLine
	}{
		{
			"title wins over item",
			map[string]any{"title": "Rendang", "item": "ignored"},
			OrderLine{Title: "Rendang", Subtitle: "1 pcs"},
		},
		{
			"item fallback",
			map[string]any{"item": "Bakso"},
			OrderLine{Title: "Bakso", Subtitle: "1 pcs"},
		},
		{
			"subtitle wins over quantity",
			map[string]any{"subtitle": "3 pcs", "quantity": float64(9)},
			OrderLine{Title: "Item", Subtitle: "3 pcs"},
		},
		{
			"image wins over image_url",
			map[string]any{"image": "a.png", "image_url": "b.png"},
			OrderLine{Title: "Item", Subtitle: "1 pcs", ImageURL: "a.png"},
		},
		{
			"image_url fallback",
			map[string]any{"image_url": "b.png"},
			OrderLine{Title: "Item", Subtitle: "1 pcs", ImageURL: "b.png"},
		},
		{
			"empty strings are skipped",
			map[string]any{"title": "", "item": "Gado-Gado"},
			OrderLine{Title: "Gado-Gado", Subtitle: "1 pcs"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveOrderLine(tt.in); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNormalizeRenderWithoutText(t *testing.T) {
	raw := `{"response": {"render": {"type": "order_summary", "orders": []}}}`
	got := Normalize(decode(t, raw))
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %#v", len(got), got)
	}
	if _, ok := got[0].(OrderSummary); !ok {
		t.Errorf("got %#v, want OrderSummary", got[0])
	}
}

func TestNormalizeWrongRenderType(t *testing.T) {
	raw := `{"response": {"render": {"type": "carousel", "orders": [{"item": "x"}]}}}`
	got := Normalize(decode(t, raw))
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if _, ok := got[0].(RawFallback); !ok {
		t.Errorf("got %#v, want RawFallback for unknown render type", got[0])
	}
}
