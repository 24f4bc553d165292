package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ReplyHive/ReplyHive/internal/pkg/env"
)

const defaultGraphAPIBaseURL = "https://graph.facebook.com/v19.0"

// APIError is a non-2xx Graph API response. The upstream message is carried
// verbatim so operators can diagnose failures from the outcome logs.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Type       string `json:"type,omitempty"`
	Code       int    `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API error: %s (status=%d)", e.Message, e.StatusCode)
}

// Client wraps the external Graph-style HTTP API used by the reply and DM
// engines. It does not retry; retry is the job queue's responsibility.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from PLATFORM_API_BASE_URL.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("PLATFORM_API_BASE_URL", defaultGraphAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Profile is the connected account's public identity.
type Profile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// ReplyToComment posts a public reply under the given comment.
func (c *Client) ReplyToComment(ctx context.Context, accessToken, commentID, message string) error {
	if strings.TrimSpace(commentID) == "" {
		return fmt.Errorf("comment id is required")
	}
	body := map[string]interface{}{
		"message": message,
	}
	return c.post(ctx, accessToken, fmt.Sprintf("%s/replies", url.PathEscape(commentID)), body, nil)
}

// SendDirectMessage sends a private message to a platform-scoped recipient
// id on behalf of the given business account.
func (c *Client) SendDirectMessage(ctx context.Context, accessToken, accountID, recipientID, message string) error {
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(recipientID) == "" {
		return fmt.Errorf("account id and recipient id are required")
	}
	body := map[string]interface{}{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": message},
	}
	return c.post(ctx, accessToken, fmt.Sprintf("%s/messages", url.PathEscape(accountID)), body, nil)
}

// GetProfile fetches the account's public profile fields.
func (c *Client) GetProfile(ctx context.Context, accessToken, accountID string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s?fields=id,username,name,profile_picture_url", url.PathEscape(accountID))
	var profile Profile
	if err := c.get(ctx, accessToken, endpoint, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) post(ctx context.Context, accessToken, endpoint string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, accessToken, out)
}

func (c *Client) delete(ctx context.Context, accessToken, endpoint string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/"+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, accessToken, out)
}

func (c *Client) get(ctx context.Context, accessToken, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, accessToken, out)
}

func (c *Client) do(req *http.Request, accessToken string, out interface{}) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("access token is required")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode platform response: %w", err)
		}
	}
	return nil
}

// decodeAPIError extracts the Graph error envelope {error:{message,type,code}}
// and falls back to the raw body when the envelope is absent.
func decodeAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
