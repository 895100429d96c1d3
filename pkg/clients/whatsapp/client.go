package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/restopos/internal/config"
)

// Client sends plain text messages through the WhatsApp Cloud API.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient talks to the Graph API messages endpoint of one business number.
type APIClient struct {
	http     *resty.Client
	endpoint string
}

// NewClient builds an APIClient. Transport failures and 5xx responses are
// retried twice.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/" + cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{http: rc, endpoint: cfg.PhoneNumberID + "/messages"}
}

// SendTextMessageRequest is a plain text message to one recipient.
type SendTextMessageRequest struct {
	To   string
	Body string
}

// SendTextMessageResponse lists the ids of the accepted messages.
type SendTextMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type textMessage struct {
	Product string   `json:"messaging_product"`
	To      string   `json:"to"`
	Type    string   `json:"type"`
	Text    textBody `json:"text"`
}

// GraphError is a rejected Graph API call. Code falls back to the HTTP
// status when the body carries no error code.
type GraphError struct {
	Status  int
	Code    int
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("whatsapp: graph api rejected message (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

type graphErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	if req.To == "" {
		return nil, errors.New("whatsapp: recipient must not be empty")
	}

	var (
		out     SendTextMessageResponse
		errBody graphErrorBody
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textMessage{
			Product: "whatsapp",
			To:      req.To,
			Type:    "text",
			Text:    textBody{Body: req.Body},
		}).
		SetResult(&out).
		SetError(&errBody).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send to %s: %w", req.To, err)
	}
	if !resp.IsError() {
		return &out, nil
	}

	gerr := &GraphError{Status: resp.StatusCode(), Code: errBody.Error.Code, Message: errBody.Error.Message}
	if gerr.Code == 0 {
		gerr.Code = gerr.Status
	}
	return nil, gerr
}

// ManagerNotifier delivers text notifications to the restaurant manager.
type ManagerNotifier struct {
	client  Client
	manager string
}

// NewManagerNotifier sends every notification to manager through client.
func NewManagerNotifier(client Client, manager string) *ManagerNotifier {
	return &ManagerNotifier{client: client, manager: manager}
}

// Notify sends body to the manager.
func (n *ManagerNotifier) Notify(ctx context.Context, body string) error {
	_, err := n.client.SendTextMessage(ctx, SendTextMessageRequest{To: n.manager, Body: body})
	return err
}
