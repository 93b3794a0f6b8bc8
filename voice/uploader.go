package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"warung/chat"
)

const voicePath = "/voice"

// Server uploads captured audio to the backend's /voice endpoint.
type Server struct {
	client  *chat.TracedClient
	baseURL string
}

func NewServer(baseURL string) *Server {
	return &Server{
		client:  chat.NewTracedClient(baseURL + voicePath),
		baseURL: baseURL,
	}
}

func (s *Server) Name() string { return "server" }

func (s *Server) NewSession(_ context.Context) (Session, error) {
	go s.client.Warm()
	return newCaptureSession(s.upload)
}

type voiceResponse struct {
	Transcription string          `json:"transcription"`
	Response      json.RawMessage `json:"response"`
}

func (s *Server) upload(wav []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, s.baseURL+voicePath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice API error %d: %s", resp.StatusCode, string(resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("%w (got %q)", ErrNotJSON, ct)
	}

	var vResp voiceResponse
	if err := json.Unmarshal(resp.Body, &vResp); err != nil {
		return nil, fmt.Errorf("voice response parse error: %w", err)
	}

	result := &Result{
		Transcription: strings.TrimSpace(vResp.Transcription),
		Metrics:       resp.Metrics,
	}
	if len(vResp.Response) > 0 && !bytes.Equal(vResp.Response, []byte("null")) {
		if err := json.Unmarshal(vResp.Response, &result.Reply); err != nil {
			return nil, fmt.Errorf("voice reply parse error: %w", err)
		}
	}
	return result, nil
}
