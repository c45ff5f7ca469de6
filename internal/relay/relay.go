// Package relay delivers rendered emails to the HTTP mail relay.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Message is the JSON expected by the relay
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"replyTo,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// Client is a HTTP client for the relay
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	User       string
	Pass       string
}

// New returns a Client for the relay at rawURL
func New(rawURL, user, pass string) (*Client, error) {

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid relay URL %q", rawURL)
	}

	return &Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		User:       user,
		Pass:       pass,
	}, nil
}

// NewRequest creates a relay request
func (c *Client) NewRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {

	if c.User == "" || c.Pass == "" {
		return nil, fmt.Errorf("missing credentials")
	}

	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.User, c.Pass)

	return req, nil
}

// Send posts a message to the relay
func (c *Client) Send(ctx context.Context, m Message) error {

	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipient")
	}

	out, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	req, err := c.NewRequest(ctx, "", out)
	if err != nil {
		return fmt.Errorf("failed to make request: %v", err)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call relay: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("relay replied %d: %s", res.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
