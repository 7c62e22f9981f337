package clients

import (
	"net/http"
)

// Logger interface for HTTP client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// HTTPClient wraps http.Client with context-aware helpers
// It automatically extracts metadata from context and adds appropriate headers
type HTTPClient struct {
	client *http.Client
	logger Logger
}

// NewHTTPClient creates a new HTTP client wrapper
func NewHTTPClient(client *http.Client, logger Logger) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{
		client: client,
		logger: logger,
	}
}

// Do executes a prepared request, extracting metadata from its context
// This is the central method that handles context-to-header conversion
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	// Propagate the inbound request ID to outbound calls
	if requestID, ok := GetRequestID(req.Context()); ok {
		req.Header.Set("X-Request-ID", requestID)
		c.logger.Debug("added X-Request-ID header from context", "request_id", requestID)
	}
	return c.client.Do(req)
}
