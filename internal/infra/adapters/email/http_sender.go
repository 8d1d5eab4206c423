// Package email delivers staff notifications through a transactional email
// HTTP API (Resend-style: POST /emails with a bearer key).
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.EmailSender = (*HTTPSender)(nil)

type HTTPSender struct {
	baseURL string
	apiKey  string
	from    string
	httpCli *http.Client
}

func NewHTTPSender(baseURL, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		httpCli: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send submits the email and returns the provider message id.
func (s *HTTPSender) Send(ctx context.Context, e adapter.Email) (string, error) {
	payload, err := json.Marshal(sendRequest{
		From:    s.from,
		To:      e.To,
		Subject: e.Subject,
		Text:    e.Text,
	})
	if err != nil {
		return "", fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: send to %s: %w", e.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("email: send to %s: status %d: %s", e.To, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("email: decode response: %w", err)
	}
	return parsed.ID, nil
}
