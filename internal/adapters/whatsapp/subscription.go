package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrMissingToken is returned by account-level calls made without an access token
var ErrMissingToken = errors.New("whatsapp access token is not configured")

// SubscribedApp is one app receiving webhooks for a business account
type SubscribedApp struct {
	WhatsAppBusinessAPIData struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"whatsapp_business_api_data"`
}

type subscribeResponse struct {
	Success bool `json:"success"`
}

type subscribedAppsResponse struct {
	Data []SubscribedApp `json:"data"`
}

// SubscribedAppsURL returns the subscription endpoint of a business account
func (c *Client) SubscribedAppsURL(businessAccountID string) string {
	return fmt.Sprintf("%s/%s/%s/subscribed_apps", c.baseURL, c.apiVersion, businessAccountID)
}

// SubscribeApp subscribes the token's app to webhooks of the business account.
// Meta starts delivering events only after this and a successful handshake.
func (c *Client) SubscribeApp(ctx context.Context, businessAccountID string) error {
	var resp subscribeResponse
	if err := c.graphCall(ctx, http.MethodPost, c.SubscribedAppsURL(businessAccountID), &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("subscription for %s was not acknowledged", businessAccountID)
	}
	return nil
}

// SubscribedApps lists apps subscribed to the business account
func (c *Client) SubscribedApps(ctx context.Context, businessAccountID string) ([]SubscribedApp, error) {
	var resp subscribedAppsResponse
	if err := c.graphCall(ctx, http.MethodGet, c.SubscribedAppsURL(businessAccountID), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) graphCall(ctx context.Context, method, url string, out any) error {
	if c.token == "" {
		return ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("read graph response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("graph API error: status %d, code %d: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("graph API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse graph response: %w", err)
	}
	return nil
}
