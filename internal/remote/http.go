package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// replyFields are the response keys the reply text may live under, tried in
// order. Different backend versions have used different names.
var replyFields = []string{"answer", "response", "message", "text", "reply"}

// HTTPClient talks to a JSON chat endpoint: POST {base_url}/api/chat with
// {"message": ...}, reply text extracted from the first known field.
type HTTPClient struct {
	baseURL string
	token   string
	hc      *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a client for the given base URL. token, when not
// empty, is sent as a bearer credential.
func NewHTTPClient(baseURL, token string, hc *http.Client, logger *zap.Logger) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: baseURL, token: token, hc: hc, logger: logger}
}

// Send posts the message and returns the reply text.
func (c *HTTPClient) Send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat endpoint returned %s", resp.Status)
	}
	return extractReply(raw)
}

// extractReply pulls the reply text out of a response document. A non-empty
// "error" field wins over any reply field.
func extractReply(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("chat endpoint returned malformed JSON")
	}
	if e := gjson.GetBytes(raw, "error"); e.Exists() && e.String() != "" {
		return "", fmt.Errorf("chat endpoint error: %s", e.String())
	}
	for _, field := range replyFields {
		if v := gjson.GetBytes(raw, field); v.Exists() && v.Type == gjson.String {
			return v.String(), nil
		}
	}
	return "", fmt.Errorf("chat endpoint response has no reply field")
}
