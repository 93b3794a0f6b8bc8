package voice

import (
	"context"
	"errors"

	"warung/chat"
)

// ErrNotJSON reports that the voice endpoint answered with a content
// type other than application/json. Callers surface it as an "invalid
// response" message rather than a transport failure.
var ErrNotJSON = errors.New("server returned non-JSON response")

// Result is the outcome of one capture round trip. Reply is the
// decoded backend reply in its wire shape; callers pass it through
// chat.Normalize. Reply is nil when the server sent none.
type Result struct {
	Transcription string
	Reply         any
	AudioSeconds  float64
	WavKB         float64
	Metrics       *chat.NetworkMetrics
}

// Session accumulates the PCM of a single capture window. Close
// assembles the WAV payload, uploads it, and returns the result. A
// session is single-use; its buffer is never shared with the next
// capture.
type Session interface {
	Feed(pcm []byte)
	Close() (*Result, error)
}

// Recognizer hands out capture sessions.
type Recognizer interface {
	Name() string
	NewSession(ctx context.Context) (Session, error)
}
