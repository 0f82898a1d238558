package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

type webhookPayload struct {
	JobID   string   `json:"jobId,omitempty"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	Tags    []string `json:"tags,omitempty"`
}

// WebhookAdapter relays rendered emails to an HTTP endpoint, typically an
// automation workflow that performs the actual delivery.
type WebhookAdapter struct {
	client   *resty.Client
	endpoint string
	from     string
	desc     Descriptor
}

func NewWebhookAdapter(endpoint, from string, priority, rateLimit int) (*WebhookAdapter, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookAdapterWithClient(endpoint, from, priority, rateLimit, client)
}

func NewWebhookAdapterWithClient(endpoint, from string, priority, rateLimit int, client *resty.Client) (*WebhookAdapter, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookAdapter{
		client:   client,
		endpoint: trimmedEndpoint,
		from:     strings.TrimSpace(from),
		desc: Descriptor{
			Name:      "webhook",
			Priority:  priority,
			RateLimit: rateLimit,
		},
	}, nil
}

func (a *WebhookAdapter) Descriptor() Descriptor { return a.desc }

func (a *WebhookAdapter) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("webhook adapter is not initialized")
	}

	payload := webhookPayload{
		JobID:   msg.JobID,
		From:    a.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Tags:    msg.Tags,
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(a.endpoint)
	if err != nil {
		return nil, &Error{
			Provider:  a.desc.Name,
			Message:   "webhook request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &Error{
			Provider:  a.desc.Name,
			Message:   "webhook returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			MessageID:   relayMessageID(response),
			Provider:    a.desc.Name,
			DeliveredAt: time.Now().UTC(),
			StatusCode:  statusCode,
		}, nil
	}

	return nil, &Error{
		Provider:   a.desc.Name,
		StatusCode: statusCode,
		Message:    httpErrorMessage(statusCode, response.String()),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

// Probe verifies the endpoint is reachable without posting a message.
func (a *WebhookAdapter) Probe(ctx context.Context) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("webhook adapter is not initialized")
	}

	response, err := a.client.R().SetContext(ctx).Head(a.endpoint)
	if err != nil {
		return fmt.Errorf("webhook endpoint unreachable: %w", err)
	}
	if response.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("webhook endpoint returned status %d", response.StatusCode())
	}
	return nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		(statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func httpErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("endpoint returned status %d", statusCode)
	body = strings.TrimSpace(body)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func relayMessageID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Message-ID", "X-Message-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
