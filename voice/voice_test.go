package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"warung/encoder"
)

func TestCaptureSessionAssemblesWav(t *testing.T) {
	var uploaded []byte
	cs, err := newCaptureSession(func(wav []byte) (*Result, error) {
		uploaded = wav
		return &Result{Transcription: "halo"}, nil
	})
	if err != nil {
		t.Fatalf("newCaptureSession: %v", err)
	}

	nSamples := encoder.BlockSize + encoder.BlockSize/2
	pcm := make([]byte, nSamples*2)
	for i := range nSamples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i%1000))
	}
	cs.Feed(pcm)

	result, err := cs.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Transcription != "halo" {
		t.Errorf("Transcription = %q, want %q", result.Transcription, "halo")
	}
	if result.AudioSeconds <= 0 {
		t.Error("AudioSeconds should be positive")
	}

	if len(uploaded) != encoder.HeaderSize+nSamples*2 {
		t.Fatalf("uploaded %d bytes, want %d", len(uploaded), encoder.HeaderSize+nSamples*2)
	}
	if !bytes.Equal(uploaded[0:4], []byte("RIFF")) {
		t.Errorf("payload missing RIFF header: %q", uploaded[0:4])
	}
}

func TestCaptureSessionUploadError(t *testing.T) {
	wantErr := errors.New("no route to host")
	cs, err := newCaptureSession(func([]byte) (*Result, error) {
		return nil, wantErr
	})
	if err != nil {
		t.Fatalf("newCaptureSession: %v", err)
	}
	cs.Feed(make([]byte, 32))
	if _, err := cs.Close(); !errors.Is(err, wantErr) {
		t.Errorf("Close err = %v, want %v", err, wantErr)
	}
}

func TestServerUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voice" {
			t.Errorf("path = %s, want /voice", r.URL.Path)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file audio: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("filename = %q, want audio.wav", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if !bytes.HasPrefix(data, []byte("RIFF")) {
			t.Errorf("upload is not a WAV payload")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcription": "pesan nasi goreng", "response": "Siap!"}`))
	}))
	defer srv.Close()

	s := NewServer(srv.URL)
	sess, err := s.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sess.Feed(make([]byte, encoder.BlockSize*2))

	result, err := sess.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Transcription != "pesan nasi goreng" {
		t.Errorf("Transcription = %q", result.Transcription)
	}
	if reply, ok := result.Reply.(string); !ok || reply != "Siap!" {
		t.Errorf("Reply = %#v, want Siap!", result.Reply)
	}
}

func TestServerUploadNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	s := NewServer(srv.URL)
	sess, _ := s.NewSession(context.Background())
	sess.Feed(make([]byte, 64))

	_, err := sess.Close()
	if !errors.Is(err, ErrNotJSON) {
		t.Errorf("err = %v, want ErrNotJSON", err)
	}
}

func TestServerUploadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewServer(srv.URL)
	sess, _ := s.NewSession(context.Background())
	if _, err := sess.Close(); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestServerUploadMissingReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcription": ""}`))
	}))
	defer srv.Close()

	s := NewServer(srv.URL)
	sess, _ := s.NewSession(context.Background())
	result, err := sess.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Transcription != "" {
		t.Errorf("Transcription = %q, want empty", result.Transcription)
	}
	if result.Reply != nil {
		t.Errorf("Reply = %#v, want nil", result.Reply)
	}
}

func TestFakeSessionsAreSingleUse(t *testing.T) {
	f := NewFake("ok", nil, nil)
	sess, _ := f.NewSession(context.Background())
	if _, err := sess.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if _, err := sess.Close(); err == nil {
		t.Error("second Close should fail: buffers must not be reused")
	}
	if f.Sessions() != 1 {
		t.Errorf("Sessions = %d, want 1", f.Sessions())
	}
}
