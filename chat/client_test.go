package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("got %s %s, want POST /chat", r.Method, r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Message != "hello" || req.Mode != "text" {
			t.Errorf("request = %+v, want message=hello mode=text", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "hi!"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	reply, metrics, err := c.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if metrics == nil {
		t.Error("metrics should be non-nil")
	}

	got := Normalize(reply)
	want := PlainText{Text: "hi!"}
	if len(got) != 1 || got[0] != Content(want) {
		t.Errorf("normalized = %#v, want [%#v]", got, want)
	}
}

func TestClientSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, _, err := c.Send(context.Background(), "hello"); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestClientSendMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, _, err := c.Send(context.Background(), "hello"); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestClientSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	if _, _, err := c.Send(context.Background(), "hello"); err == nil {
		t.Error("expected error for refused connection")
	}
}
