package chat

// Role identifies who a transcript message belongs to.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Content is the normalized, display-ready form of a backend reply,
// independent of its original wire shape. Exactly one of the concrete
// types below is produced per transcript entry.
type Content interface {
	isContent()
}

// PlainText is free-form text. Bot text may carry lightweight markup;
// user text is always displayed literally.
type PlainText struct {
	Text string
}

// OrderSummary is the structured display of purchased items with
// quantity, optional thumbnail, and optional delivery time.
type OrderSummary struct {
	Orders       []OrderLine
	DeliveryTime string
}

// OrderLine is one resolved order card. Title and Subtitle are always
// populated (the normalizer fills defaults); ImageURL may be empty.
type OrderLine struct {
	Title    string
	Subtitle string
	ImageURL string
}

// RawFallback holds a reply the normalizer could not recognize. It is
// rendered as a literal structural dump, never as markup.
type RawFallback struct {
	Value any
}

func (PlainText) isContent()    {}
func (OrderSummary) isContent() {}
func (RawFallback) isContent()  {}

// Message is one immutable transcript entry.
type Message struct {
	Role    Role
	Content Content
}
