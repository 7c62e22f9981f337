package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EmailMessage is a single transactional email
type EmailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendClient sends transactional email through the Resend HTTP API
type ResendClient struct {
	http    *HTTPClient
	apiKey  string
	baseURL string
	logger  Logger
}

// NewResendClient creates a new Resend API client
func NewResendClient(httpClient *HTTPClient, apiKey, baseURL string, logger Logger) *ResendClient {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendClient{
		http:    httpClient,
		apiKey:  apiKey,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Send delivers one email. The caller owns retry/suppression policy.
func (c *ResendClient) Send(ctx context.Context, msg EmailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
