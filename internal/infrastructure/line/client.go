// Package line talks to the LINE Messaging API: push and reply messages and
// signed webhook parsing.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/parcel-notify/internal/domain"
)

type Client struct {
	token    string
	secret   string
	endpoint string
	http     *http.Client
}

// NewClient builds a client for the channel. endpoint may be empty to use the
// SDK default; timeout bounds every outbound call.
func NewClient(token, secret, endpoint string, timeout time.Duration) *Client {
	return &Client{
		token:    token,
		secret:   secret,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// api returns a per-call SDK client bound to ctx. The SDK stores the context
// on the client value, so sharing one across goroutines is unsafe.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	opts := []messaging_api.MessagingApiAPIOption{messaging_api.WithHTTPClient(c.http)}
	if c.endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(c.endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(c.token, opts...)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	return api.WithContext(ctx), nil
}

// Push sends a text message to one user.
func (c *Client) Push(ctx context.Context, to, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	res, _, err := api.PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	}, "")
	return gatewayError(res, err)
}

// Reply answers a webhook event using its reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	res, _, err := api.ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	})
	return gatewayError(res, err)
}

// gatewayError keeps the response body of a rejected call so callers can
// record what the platform said.
func gatewayError(res *http.Response, err error) error {
	if err == nil {
		return nil
	}
	if res == nil || res.Body == nil {
		return err
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(res.Body)
	if readErr != nil || len(body) == 0 {
		return &domain.GatewayError{StatusCode: res.StatusCode, Err: err}
	}
	return &domain.GatewayError{StatusCode: res.StatusCode, Payload: payload(body), Err: err}
}

func payload(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	b, _ := json.Marshal(string(body))
	return b
}
