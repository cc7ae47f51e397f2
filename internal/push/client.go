package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

const (
	defaultGatewayURL             = "https://exp.host/--/api/v2/push/send"
	responseBodyReadLimit   int64 = 1024
	defaultGatewayTimeout         = 10 * time.Second
)

// Client talks to the Expo-style push gateway. One POST per message.
type Client struct {
	httpClient *http.Client
	gatewayURL string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGatewayURL overrides the configured gateway endpoint.
func WithGatewayURL(gatewayURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(gatewayURL)
		if trimmed != "" {
			c.gatewayURL = trimmed
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the push gateway client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		gatewayURL: defaultGatewayURL,
		httpClient: &http.Client{Timeout: defaultGatewayTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultGatewayTimeout}
	}
	if client.gatewayURL == "" {
		client.gatewayURL = defaultGatewayURL
	}
	return client
}

// Message is the payload shape the gateway expects.
type Message struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

// Send posts one message to the gateway. A non-2xx response is an error.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "push client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "push token is required")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal push message")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build push request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute push request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"push request failed")
	}
	return nil
}
