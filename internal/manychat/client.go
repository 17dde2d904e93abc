package manychat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Button is passed through to the platform untouched.
type Button map[string]any

type Client struct {
	http *resty.Client
}

type sendContentRequest struct {
	SubscriberID string      `json:"subscriber_id"`
	Data         sendPayload `json:"data"`
	MessageTag   string      `json:"message_tag"`
}

type sendPayload struct {
	Version string      `json:"version"`
	Content textContent `json:"content"`
}

type textContent struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.manychat.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

// Deliver pushes text to one subscriber using the tenant's token. The decoded
// platform response is returned whatever its status; only transport failures are errors.
func (c *Client) Deliver(ctx context.Context, subscriberID, text, token string, buttons ...Button) (map[string]any, error) {
	body := sendContentRequest{
		SubscriberID: subscriberID,
		Data: sendPayload{
			Version: "v2",
			Content: textContent{Type: "text", Text: text, Buttons: buttons},
		},
		MessageTag: "ACCOUNT_UPDATE",
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/fb/subscriber/sendContent")
	if err != nil {
		return nil, fmt.Errorf("manychat send: %w", err)
	}

	out := map[string]any{}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return map[string]any{
			"status_code": resp.StatusCode(),
			"body":        resp.String(),
		}, nil
	}
	return out, nil
}

// ValidateToken reports whether the platform accepts token.
func (c *Client) ValidateToken(ctx context.Context, token string) bool {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/fb/page/getInfo")
	if err != nil {
		return false
	}
	return resp.StatusCode() == 200
}
