package chat

import "sync"

// Transcript is the append-only ordered sequence of messages for one
// session. Entries are immutable once appended and are not persisted
// across runs.
type Transcript struct {
	mu   sync.Mutex
	msgs []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.msgs = append(t.msgs, msg)
	t.mu.Unlock()
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// Messages returns a snapshot copy in append order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Last returns the newest entry, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}
