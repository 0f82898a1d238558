package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	resendBaseURL        = "https://api.resend.com"
	defaultResendTimeout = 15 * time.Second
)

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ResendAdapter delivers email through the Resend transactional API.
type ResendAdapter struct {
	client *resty.Client
	apiKey string
	from   string
	desc   Descriptor
}

func NewResendAdapter(apiKey, from string, priority, rateLimit int) (*ResendAdapter, error) {
	client := resty.New()
	client.SetBaseURL(resendBaseURL)
	client.SetTimeout(defaultResendTimeout)
	client.SetRetryCount(0)

	return NewResendAdapterWithClient(apiKey, from, priority, rateLimit, client)
}

func NewResendAdapterWithClient(apiKey, from string, priority, rateLimit int, client *resty.Client) (*ResendAdapter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultResendTimeout)
	}
	client.SetRetryCount(0)

	return &ResendAdapter{
		client: client,
		apiKey: apiKey,
		from:   from,
		desc: Descriptor{
			Name:      "resend",
			Priority:  priority,
			RateLimit: rateLimit,
		},
	}, nil
}

func (a *ResendAdapter) Descriptor() Descriptor { return a.desc }

func (a *ResendAdapter) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("resend adapter is not initialized")
	}

	reqBody := resendRequest{
		From:    a.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	var okBody resendResponse
	var errBody resendErrorResponse

	response, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&okBody).
		SetError(&errBody).
		Post("/emails")
	if err != nil {
		return nil, &Error{
			Provider:  a.desc.Name,
			Message:   "api request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			MessageID:   okBody.ID,
			Provider:    a.desc.Name,
			DeliveredAt: time.Now().UTC(),
			StatusCode:  statusCode,
		}, nil
	}

	message := strings.TrimSpace(errBody.Message)
	if message == "" {
		message = httpErrorMessage(statusCode, response.String())
	}

	return nil, &Error{
		Provider:   a.desc.Name,
		StatusCode: statusCode,
		Message:    message,
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

// Probe checks API reachability with a read-only call. A 401 means the key
// is invalid, anything under 500 means the API itself is up.
func (a *ResendAdapter) Probe(ctx context.Context) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("resend adapter is not initialized")
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.apiKey).
		Get("/domains")
	if err != nil {
		return fmt.Errorf("resend api unreachable: %w", err)
	}

	statusCode := response.StatusCode()
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return fmt.Errorf("resend api key rejected with status %d", statusCode)
	}
	if statusCode >= http.StatusInternalServerError {
		return fmt.Errorf("resend api returned status %d", statusCode)
	}
	return nil
}
