package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	liveBaseURL    = "https://api.africastalking.com"
	sandboxBaseURL = "https://api.sandbox.africastalking.com"
)

// HTTPStatusError captures non-2xx provider responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("sms: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client sends SMS through the Africa's Talking messaging API.
type Client struct {
	username   string
	apiKey     string
	senderID   string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the provider endpoint (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds an Africa's Talking client. The sandbox account name
// routes to the sandbox host, matching provider convention.
func NewClient(username, apiKey, senderID string, opts ...Option) *Client {
	c := &Client{
		username:   username,
		apiKey:     apiKey,
		senderID:   senderID,
		baseURL:    liveBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if username == "sandbox" {
		c.baseURL = sandboxBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// messagingResponse is the minimal response shape from /version1/messaging.
type messagingResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send posts the message to the provider. Delivery is best effort; the caller
// decides what a failure means.
func (c *Client) Send(ctx context.Context, to []string, message string) error {
	if len(to) == 0 {
		return fmt.Errorf("sms: no recipients")
	}
	form := url.Values{
		"username": {c.username},
		"to":       {strings.Join(to, ",")},
		"message":  {message},
	}
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	endpoint := c.baseURL + "/version1/messaging"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("sms: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: strings.TrimSpace(string(body))}
	}

	var payload messagingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("sms: decode response: %w", err)
	}
	if len(payload.SMSMessageData.Recipients) == 0 {
		return fmt.Errorf("sms: provider accepted no recipients: %s", payload.SMSMessageData.Message)
	}
	for _, r := range payload.SMSMessageData.Recipients {
		if !strings.EqualFold(r.Status, "Success") {
			return fmt.Errorf("sms: delivery to %s failed: %s", r.Number, r.Status)
		}
	}
	return nil
}
