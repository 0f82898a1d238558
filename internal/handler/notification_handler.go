package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/queue"
	"github.com/viajora/leadnotify/internal/service"
)

// NotificationFacade is the service surface the HTTP layer depends on.
type NotificationFacade interface {
	SendNotification(ctx context.Context, templateID string, recipients []string, data map[string]any, opts *service.Options) service.Result
	NotificationStatus(trackingID string) (*domain.TrackingRecord, error)
	RegisterTemplate(t domain.Template) error
	Templates() []domain.Template
	QueueStats() queue.Stats
	RetryJob(id string) bool
	Job(id string) (*domain.Job, error)
	Analytics() service.Analytics
}

type NotificationHandler struct {
	service NotificationFacade
}

func NewNotificationHandler(service NotificationFacade) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationFacade) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications", h.SendNotification)
	// Registered before /notifications/:id so "tracking" is not consumed as a
	// job id.
	v1.Get("/notifications/tracking/:trackingId", h.GetTracking)
	v1.Get("/notifications/:id", h.GetJob)
	v1.Post("/notifications/:id/retry", h.RetryJob)
	v1.Post("/templates", h.RegisterTemplate)
	v1.Get("/templates", h.ListTemplates)
	v1.Get("/stats", h.QueueStats)
	v1.Get("/analytics", h.Analytics)

	return nil
}

type sendNotificationRequest struct {
	TemplateID  string         `json:"templateId"`
	Recipients  []string       `json:"recipients"`
	Data        map[string]any `json:"data"`
	Priority    string         `json:"priority,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	DelayMS     int64          `json:"delayMs,omitempty"`
	MaxAttempts int            `json:"maxAttempts,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

type sendNotificationResponse struct {
	Success    bool   `json:"success"`
	JobID      string `json:"jobId,omitempty"`
	TrackingID string `json:"trackingId,omitempty"`
	Error      string `json:"error,omitempty"`
}

type jobResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Recipients  []string   `json:"recipients"`
	Subject     string     `json:"subject"`
	TemplateID  string     `json:"templateId"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	Provider    string     `json:"provider,omitempty"`
	MessageID   string     `json:"messageId,omitempty"`
	Error       string     `json:"error,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
}

type trackingResponse struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	TemplateID string    `json:"templateId"`
	JobID      string    `json:"jobId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type registerTemplateRequest struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Subject        string         `json:"subject"`
	HTMLTemplate   string         `json:"htmlTemplate"`
	TextTemplate   string         `json:"textTemplate,omitempty"`
	RequiredFields []string       `json:"requiredFields,omitempty"`
	DefaultData    map[string]any `json:"defaultData,omitempty"`
	Priority       string         `json:"priority,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
}

type templateSummary struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Subject        string   `json:"subject"`
	RequiredFields []string `json:"requiredFields,omitempty"`
	Priority       string   `json:"priority"`
	Tags           []string `json:"tags,omitempty"`
}

func (h *NotificationHandler) SendNotification(c *fiber.Ctx) error {
	var req sendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.TemplateID) == "" {
		return fmt.Errorf("%w: templateId is required", domain.ErrValidation)
	}
	if len(req.Recipients) == 0 {
		return fmt.Errorf("%w: recipients is required", domain.ErrValidation)
	}

	opts := &service.Options{
		Provider:    strings.TrimSpace(req.Provider),
		Delay:       time.Duration(req.DelayMS) * time.Millisecond,
		MaxAttempts: req.MaxAttempts,
		Tags:        req.Tags,
	}
	if raw := strings.TrimSpace(req.Priority); raw != "" {
		priority, err := domain.ParsePriorityFromString(raw)
		if err != nil {
			return err
		}
		opts.Priority = priority
	}

	result := h.service.SendNotification(c.Context(), req.TemplateID, req.Recipients, req.Data, opts)
	if !result.Success {
		return result.Err
	}

	resp := sendNotificationResponse{Success: true, JobID: result.JobID}
	if result.Tracking != nil {
		resp.TrackingID = result.Tracking.ID
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *NotificationHandler) GetJob(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	job, err := h.service.Job(id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toJobResponse(job))
}

func (h *NotificationHandler) RetryJob(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if _, err := h.service.Job(id); err != nil {
		return err
	}

	if !h.service.RetryJob(id) {
		return fiber.NewError(fiber.StatusConflict, "only failed jobs can be retried")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"jobId":  id,
		"status": domain.StatusPending.String(),
	})
}

func (h *NotificationHandler) GetTracking(c *fiber.Ctx) error {
	trackingID := strings.TrimSpace(c.Params("trackingId"))
	record, err := h.service.NotificationStatus(trackingID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(trackingResponse{
		ID:         record.ID,
		Recipient:  record.Recipient,
		TemplateID: record.TemplateID,
		JobID:      record.JobID,
		Status:     record.Status.String(),
		CreatedAt:  record.CreatedAt,
	})
}

func (h *NotificationHandler) RegisterTemplate(c *fiber.Ctx) error {
	var req registerTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tmpl := domain.Template{
		ID:             strings.TrimSpace(req.ID),
		Name:           strings.TrimSpace(req.Name),
		Subject:        req.Subject,
		HTMLTemplate:   req.HTMLTemplate,
		TextTemplate:   req.TextTemplate,
		RequiredFields: req.RequiredFields,
		DefaultData:    req.DefaultData,
		Tags:           req.Tags,
	}

	if raw := strings.TrimSpace(req.Type); raw != "" {
		jobType, err := domain.ParseJobTypeFromString(raw)
		if err != nil {
			return err
		}
		tmpl.Type = jobType
	}
	if raw := strings.TrimSpace(req.Priority); raw != "" {
		priority, err := domain.ParsePriorityFromString(raw)
		if err != nil {
			return err
		}
		tmpl.Priority = priority
	}

	if err := h.service.RegisterTemplate(tmpl); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": tmpl.ID,
	})
}

func (h *NotificationHandler) ListTemplates(c *fiber.Ctx) error {
	templates := h.service.Templates()

	summaries := make([]templateSummary, 0, len(templates))
	for _, tmpl := range templates {
		summaries = append(summaries, templateSummary{
			ID:             tmpl.ID,
			Name:           tmpl.Name,
			Type:           tmpl.Type.String(),
			Subject:        tmpl.Subject,
			RequiredFields: tmpl.RequiredFields,
			Priority:       tmpl.Priority.String(),
			Tags:           tmpl.Tags,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": summaries,
	})
}

func (h *NotificationHandler) QueueStats(c *fiber.Ctx) error {
	stats := h.service.QueueStats()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"pending":             stats.Pending,
		"processing":          stats.Processing,
		"completed":           stats.Completed,
		"failed":              stats.Failed,
		"avgProcessingTimeMs": stats.AvgProcessingTime.Milliseconds(),
		"errorRate":           stats.ErrorRate,
	})
}

func (h *NotificationHandler) Analytics(c *fiber.Ctx) error {
	analytics := h.service.Analytics()

	byTemplate := make(map[string]fiber.Map, len(analytics.ByTemplate))
	for id, stats := range analytics.ByTemplate {
		byTemplate[id] = fiber.Map{
			"sent":      stats.Sent,
			"delivered": stats.Delivered,
			"bounced":   stats.Bounced,
			"failed":    stats.Failed,
		}
	}

	byProvider := make(map[string]fiber.Map, len(analytics.ByProvider))
	for name, stats := range analytics.ByProvider {
		byProvider[name] = fiber.Map{
			"sent":        stats.Sent,
			"delivered":   stats.Delivered,
			"performance": stats.Performance,
		}
	}

	recentErrors := make([]fiber.Map, 0, len(analytics.RecentErrors))
	for _, entry := range analytics.RecentErrors {
		recentErrors = append(recentErrors, fiber.Map{
			"timestamp": entry.Timestamp,
			"error":     entry.Error,
			"template":  entry.Template,
			"recipient": entry.Recipient,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"totalSent":         analytics.TotalSent,
		"totalDelivered":    analytics.TotalDelivered,
		"totalBounced":      analytics.TotalBounced,
		"totalFailed":       analytics.TotalFailed,
		"deliveryRate":      analytics.DeliveryRate,
		"bounceRate":        analytics.BounceRate,
		"avgDeliveryTimeMs": analytics.AvgDeliveryTime.Milliseconds(),
		"byTemplate":        byTemplate,
		"byProvider":        byProvider,
		"recentErrors":      recentErrors,
	})
}

func toJobResponse(job *domain.Job) jobResponse {
	if job == nil {
		return jobResponse{}
	}

	return jobResponse{
		ID:          job.ID,
		Type:        job.Type.String(),
		Priority:    job.Priority.String(),
		Recipients:  job.Payload.To,
		Subject:     job.Payload.Subject,
		TemplateID:  job.Payload.TemplateID,
		Status:      job.Status.String(),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		Provider:    job.Metadata.Provider,
		MessageID:   job.Metadata.MessageID,
		Error:       job.Error,
		ScheduledAt: job.ScheduledAt,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}
}
