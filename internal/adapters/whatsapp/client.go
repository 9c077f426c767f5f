package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the Graph API host
	DefaultBaseURL = "https://graph.facebook.com"
	// DefaultAPIVersion is the Graph API version used for sends
	DefaultAPIVersion = "v18.0"

	defaultTimeout = 10 * time.Second
	// Maximum response body size to read
	maxResponseBodySize = 64 * 1024
)

// Client handles WhatsApp Cloud API communication
type Client struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
	httpClient    *http.Client
}

// Config holds the addressing and credentials of a Client
type Config struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
}

// NewClient creates a new WhatsApp client. Missing credentials do not fail
// construction; sends become logged no-ops instead.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Configured reports whether the client has credentials to send with
func (c *Client) Configured() bool {
	return c.token != "" && c.phoneNumberID != ""
}

// MessagesURL returns the endpoint messages are posted to
func (c *Client) MessagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

// SendText sends a simple text message. Without credentials it logs and returns nil.
func (c *Client) SendText(ctx context.Context, to string, message string) error {
	log := zerolog.Ctx(ctx)

	if !c.Configured() {
		log.Error().Str("to", to).Msg("WhatsApp credentials not configured, reply not sent")
		return nil
	}

	resp, err := c.SendMessage(ctx, NewTextMessage(to, message))
	if err != nil {
		return err
	}

	log.Info().
		Str("to", to).
		Str("wamid", resp.MessageID()).
		Msg("WhatsApp message sent successfully")
	return nil
}

// SendMessage posts payload once to the messages endpoint. Transport failures
// and non-2xx statuses are returned wrapping core.ErrUpstreamSend. No retry.
func (c *Client) SendMessage(ctx context.Context, payload OutboundMessage) (*SendResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MessagesURL(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	zerolog.Ctx(ctx).Debug().
		Str("to", payload.To).
		Str("phone_id", c.phoneNumberID).
		Stringer("token", redactedToken(c.token)).
		Msg("WhatsApp API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", core.ErrUpstreamSend, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", core.ErrUpstreamSend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: whatsapp API error: status %d, code %d: %s",
				core.ErrUpstreamSend, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: whatsapp API error: status %d, body: %s",
			core.ErrUpstreamSend, resp.StatusCode, string(body))
	}

	var sendResp SendResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &sendResp); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Unexpected WhatsApp API response body")
		}
	}

	return &sendResp, nil
}

// redactedToken logs as its access-token prefix and length, never the secret part.
type redactedToken string

func (t redactedToken) String() string {
	switch {
	case t == "":
		return "unset"
	case len(t) < 8:
		return fmt.Sprintf("[%d]", len(t))
	default:
		return fmt.Sprintf("%s...[%d]", string(t[:4]), len(t))
	}
}
