package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const chatPath = "/chat"

// Client speaks to the conversational backend's /chat endpoint.
type Client struct {
	client  *TracedClient
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		client:  NewTracedClient(baseURL + chatPath),
		baseURL: baseURL,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Warm pre-opens the backend connection.
func (c *Client) Warm() { c.client.Warm() }

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// Send posts one typed message and returns the decoded reply body,
// still in its wire shape. Callers pass it through Normalize.
func (c *Client) Send(ctx context.Context, text string) (any, *NetworkMetrics, error) {
	payload, err := json.Marshal(chatRequest{Message: text, Mode: "text"})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("chat API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var reply any
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return nil, nil, fmt.Errorf("chat response parse error: %w", err)
	}
	return reply, resp.Metrics, nil
}
