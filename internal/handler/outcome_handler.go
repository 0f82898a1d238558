package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/repository"
)

const defaultSummaryWindow = 24 * time.Hour

// OutcomeHandler serves the persisted delivery history. Like lead storage,
// outcomes are optional; routes answer 501 when no database is configured.
type OutcomeHandler struct {
	repo repository.OutcomeRepository
}

func RegisterOutcomeRoutes(router fiber.Router, repo repository.OutcomeRepository) {
	h := &OutcomeHandler{repo: repo}

	v1 := router.Group("/v1")
	v1.Get("/outcomes", h.ListOutcomes)
	v1.Get("/outcomes/summary", h.ProviderSummary)
	v1.Get("/outcomes/:jobId", h.GetOutcome)
}

type outcomeResponse struct {
	JobID      string    `json:"jobId"`
	Type       string    `json:"type"`
	Priority   string    `json:"priority"`
	Recipients string    `json:"recipients"`
	Subject    string    `json:"subject"`
	TemplateID string    `json:"templateId"`
	Status     string    `json:"status"`
	Provider   string    `json:"provider,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	LatencyMS  int64     `json:"latencyMs"`
	QueuedAt   time.Time `json:"queuedAt"`
	SettledAt  time.Time `json:"settledAt"`
}

func (h *OutcomeHandler) ListOutcomes(c *fiber.Ctx) error {
	if h.repo == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "outcome storage is not configured")
	}

	records, err := h.repo.ListRecent(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	data := make([]outcomeResponse, 0, len(records))
	for i := range records {
		data = append(data, toOutcomeResponse(&records[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": data,
	})
}

func (h *OutcomeHandler) ProviderSummary(c *fiber.Ctx) error {
	if h.repo == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "outcome storage is not configured")
	}

	since := time.Now().Add(-defaultSummaryWindow)
	if from, err := parseRFC3339Query(c.Query("since"), "since"); err != nil {
		return err
	} else if from != nil {
		since = *from
	}

	summaries, err := h.repo.SummaryByProvider(c.Context(), since)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(summaries))
	for _, summary := range summaries {
		data = append(data, fiber.Map{
			"provider": summary.Provider,
			"status":   summary.Status.String(),
			"count":    summary.Count,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"since": since,
		"data":  data,
	})
}

func (h *OutcomeHandler) GetOutcome(c *fiber.Ctx) error {
	if h.repo == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "outcome storage is not configured")
	}

	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return domain.ErrValidation
	}

	record, err := h.repo.GetByJobID(c.Context(), jobID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toOutcomeResponse(record))
}

func toOutcomeResponse(record *repository.OutcomeRecord) outcomeResponse {
	return outcomeResponse{
		JobID:      record.JobID,
		Type:       record.JobType.String(),
		Priority:   record.Priority.String(),
		Recipients: record.Recipients,
		Subject:    record.Subject,
		TemplateID: record.TemplateID,
		Status:     record.Status.String(),
		Provider:   record.Provider,
		MessageID:  record.MessageID,
		Attempts:   record.Attempts,
		Error:      record.Error,
		LatencyMS:  record.Latency.Milliseconds(),
		QueuedAt:   record.QueuedAt,
		SettledAt:  record.SettledAt,
	}
}
