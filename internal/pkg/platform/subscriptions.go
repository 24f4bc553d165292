package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultWebhookFields are the change fields ReplyHive subscribes to.
var DefaultWebhookFields = []string{"comments", "mentions", "live_comments"}

// SubscriptionResult is the platform's acknowledgement of a subscription call.
type SubscriptionResult struct {
	Success bool `json:"success"`
	Data    []struct {
		Object      string   `json:"object"`
		CallbackURL string   `json:"callback_url"`
		Active      bool     `json:"active"`
		Fields      []string `json:"fields"`
	} `json:"data"`
}

// SubscribeWebhooks registers the callback URL for the given app so the
// platform starts delivering change notifications. Used by operator tooling
// during tenant onboarding, not by the pipeline.
func (c *Client) SubscribeWebhooks(ctx context.Context, appAccessToken, appID, callbackURL, verifyToken string, fields []string) (*SubscriptionResult, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if len(fields) == 0 {
		fields = DefaultWebhookFields
	}
	body := map[string]interface{}{
		"object":       "instagram",
		"callback_url": callbackURL,
		"verify_token": verifyToken,
		"fields":       strings.Join(fields, ","),
	}
	var result SubscriptionResult
	endpoint := fmt.Sprintf("%s/subscriptions", url.PathEscape(appID))
	if err := c.post(ctx, appAccessToken, endpoint, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSubscription removes the app's webhook subscription for the
// instagram object.
func (c *Client) DeleteSubscription(ctx context.Context, appAccessToken, appID string) (*SubscriptionResult, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id is required")
	}
	body := map[string]interface{}{
		"object": "instagram",
	}
	var result SubscriptionResult
	endpoint := fmt.Sprintf("%s/subscriptions", url.PathEscape(appID))
	if err := c.delete(ctx, appAccessToken, endpoint, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSubscriptions returns the app's active webhook subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, appAccessToken, appID string) (*SubscriptionResult, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id is required")
	}
	var result SubscriptionResult
	endpoint := fmt.Sprintf("%s/subscriptions", url.PathEscape(appID))
	if err := c.get(ctx, appAccessToken, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
