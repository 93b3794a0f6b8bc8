package render

import (
	"strings"
	"testing"

	"warung/chat"
)

func TestRenderUserTextIsLiteral(t *testing.T) {
	msg := chat.Message{Role: chat.RoleUser, Content: chat.PlainText{Text: "**order** <b>two</b> *satay*"}}
	out := Render(msg, 80)

	// User input must never be interpreted as markup.
	for _, literal := range []string{"**order**", "<b>two</b>", "*satay*"} {
		if !strings.Contains(out, literal) {
			t.Errorf("output lost literal %q:\n%s", literal, out)
		}
	}
}

func TestRenderBotText(t *testing.T) {
	msg := chat.Message{Role: chat.RoleBot, Content: chat.PlainText{Text: "Your *satay* is on the way"}}
	out := Render(msg, 80)
	if !strings.Contains(out, "satay") {
		t.Errorf("output lost message text:\n%s", out)
	}
}

func TestRenderOrderSummary(t *testing.T) {
	msg := chat.Message{Role: chat.RoleBot, Content: chat.OrderSummary{
		Orders: []chat.OrderLine{
			{Title: "Nasi Goreng", Subtitle: "2"},
			{Title: "Es Teh", Subtitle: "1 pcs", ImageURL: "http://img/es-teh.png"},
		},
		DeliveryTime: "18:00",
	}}
	out := Render(msg, 80)

	for _, want := range []string{
		orderHeader,
		"Nasi Goreng",
		quantityLabel + "2",
		"Es Teh",
		"http://img/es-teh.png",
		deliveryLabel,
		"18:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOrderSummaryWithoutDeliveryTime(t *testing.T) {
	msg := chat.Message{Role: chat.RoleBot, Content: chat.OrderSummary{
		Orders: []chat.OrderLine{{Title: "Item", Subtitle: "1 pcs"}},
	}}
	out := Render(msg, 80)
	if strings.Contains(out, deliveryLabel) {
		t.Errorf("delivery line rendered without delivery time:\n%s", out)
	}
}

func TestRenderRawFallback(t *testing.T) {
	msg := chat.Message{Role: chat.RoleBot, Content: chat.RawFallback{
		Value: map[string]any{"status": "done", "code": float64(7)},
	}}
	out := Render(msg, 80)

	if !strings.Contains(out, `"status"`) || !strings.Contains(out, `"done"`) {
		t.Errorf("dump missing fields:\n%s", out)
	}
	// Dump is literal and indented, never interpreted.
	if !strings.Contains(out, "  ") {
		t.Errorf("dump not indented:\n%s", out)
	}
}

func TestRenderRoleLabels(t *testing.T) {
	user := Render(chat.Message{Role: chat.RoleUser, Content: chat.PlainText{Text: "hi"}}, 80)
	bot := Render(chat.Message{Role: chat.RoleBot, Content: chat.PlainText{Text: "hi"}}, 80)
	if !strings.Contains(user, "You") {
		t.Errorf("user block missing label:\n%s", user)
	}
	if !strings.Contains(bot, "Warung") {
		t.Errorf("bot block missing label:\n%s", bot)
	}
}
