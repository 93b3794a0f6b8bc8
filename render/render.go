// Package render turns normalized transcript messages into styled
// terminal blocks. Render is pure: it never touches the transcript or
// the network.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"warung/chat"
)

const (
	orderHeader   = "🧾 Your order:"
	quantityLabel = "Jumlah: "
	deliveryLabel = "🕒 Waktu antar: "
	noImageIcon   = "🍽️"
)

var (
	userLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	botLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle  = lipgloss.NewStyle().Bold(true)
)

// Render maps one message to its visual block. Bot plain text is
// formatted as markdown; user text is always shown literally so echoed
// input can never smuggle markup into the display.
func Render(msg chat.Message, width int) string {
	switch content := msg.Content.(type) {
	case chat.PlainText:
		if msg.Role == chat.RoleBot {
			return label(msg.Role) + "\n" + markdown(content.Text, width)
		}
		return label(msg.Role) + "\n" + content.Text
	case chat.OrderSummary:
		return label(msg.Role) + "\n" + renderOrderSummary(content)
	case chat.RawFallback:
		return label(msg.Role) + "\n" + renderRawFallback(content)
	}
	return label(msg.Role)
}

func label(role chat.Role) string {
	if role == chat.RoleUser {
		return userLabelStyle.Render("You")
	}
	return botLabelStyle.Render("Warung")
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]*glamour.TermRenderer{}
)

func markdown(text string, width int) string {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	r, ok := renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		renderers[width] = r
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func renderOrderSummary(summary chat.OrderSummary) string {
	var b strings.Builder
	b.WriteString(boldStyle.Render(orderHeader))

	for _, line := range summary.Orders {
		var card strings.Builder
		card.WriteString(titleStyle.Render(line.Title))
		card.WriteString("\n" + quantityLabel + line.Subtitle)
		if line.ImageURL != "" {
			card.WriteString("\n" + dimStyle.Render("🖼 "+line.ImageURL))
		} else {
			card.WriteString("  " + noImageIcon)
		}
		b.WriteString("\n" + cardStyle.Render(card.String()))
	}

	if summary.DeliveryTime != "" {
		b.WriteString("\n" + deliveryLabel + boldStyle.Render(summary.DeliveryTime))
	}
	return b.String()
}

// renderRawFallback dumps an unrecognized reply verbatim so odd backend
// shapes stay debuggable instead of vanishing.
func renderRawFallback(raw chat.RawFallback) string {
	data, err := json.MarshalIndent(raw.Value, "  ", "  ")
	if err != nil {
		return dimStyle.Render(fmt.Sprintf("  %#v", raw.Value))
	}
	return dimStyle.Render("  " + string(data))
}
