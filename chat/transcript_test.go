package chat

import "testing"

func TestTranscriptAppendOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Role: RoleUser, Content: PlainText{Text: "one"}})
	tr.Append(Message{Role: RoleBot, Content: PlainText{Text: "two"}})

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleBot {
		t.Errorf("roles = %v, %v", msgs[0].Role, msgs[1].Role)
	}

	last, ok := tr.Last()
	if !ok {
		t.Fatal("Last() on non-empty transcript returned false")
	}
	if text, ok := last.Content.(PlainText); !ok || text.Text != "two" {
		t.Errorf("last = %#v, want PlainText two", last.Content)
	}
}

func TestTranscriptEmpty(t *testing.T) {
	tr := NewTranscript()
	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0", tr.Len())
	}
	if _, ok := tr.Last(); ok {
		t.Error("Last() on empty transcript returned true")
	}
}

func TestTranscriptSnapshotIsolation(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Role: RoleUser, Content: PlainText{Text: "a"}})
	snap := tr.Messages()
	tr.Append(Message{Role: RoleBot, Content: PlainText{Text: "b"}})
	if len(snap) != 1 {
		t.Errorf("snapshot grew after append: len = %d", len(snap))
	}
}
