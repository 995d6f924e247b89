package constructsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal ConstructAgent HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// HazardRecord is one hazard report from the site log.
type HazardRecord struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
}

// AttendanceRecord is one worker check-in or check-out.
type AttendanceRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	WorkerID  string `json:"worker_id"`
	Action    string `json:"action"`
}

// DeliveryRecord is one logged material delivery.
type DeliveryRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	OrderID   string `json:"order_id"`
	Location  string `json:"location"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Hazards returns the hazard log, oldest first.
func (c *Client) Hazards(ctx context.Context) ([]HazardRecord, error) {
	var resp []HazardRecord
	err := c.get(ctx, "api/hazards", &resp)
	return resp, err
}

// Attendance returns the attendance log, oldest first.
func (c *Client) Attendance(ctx context.Context) ([]AttendanceRecord, error) {
	var resp []AttendanceRecord
	err := c.get(ctx, "api/attendance", &resp)
	return resp, err
}

// Deliveries returns the delivery log, oldest first.
func (c *Client) Deliveries(ctx context.Context) ([]DeliveryRecord, error) {
	var resp []DeliveryRecord
	err := c.get(ctx, "api/deliveries", &resp)
	return resp, err
}

// Health checks the service is up.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.get(ctx, "health", &resp)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
