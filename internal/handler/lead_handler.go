package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/repository"
	"github.com/viajora/leadnotify/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

// LeadSender triggers the admin alert and customer confirmation for a lead.
type LeadSender interface {
	SendCompleteLeadNotification(ctx context.Context, lead domain.Lead, opts *service.Options) service.CompleteLeadResult
}

type LeadHandler struct {
	sender LeadSender
	// repo is optional; lead intake still notifies when persistence is not
	// configured.
	repo repository.LeadRepository
}

func NewLeadHandler(sender LeadSender, repo repository.LeadRepository) (*LeadHandler, error) {
	if sender == nil {
		return nil, fmt.Errorf("lead sender is required")
	}
	return &LeadHandler{sender: sender, repo: repo}, nil
}

func RegisterLeadRoutes(router fiber.Router, sender LeadSender, repo repository.LeadRepository) error {
	h, err := NewLeadHandler(sender, repo)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/leads", h.CreateLead)
	v1.Get("/leads/:id", h.GetLead)
	v1.Get("/leads", h.ListLeads)

	return nil
}

type createLeadRequest struct {
	Nome              string   `json:"nome"`
	Email             string   `json:"email"`
	WhatsApp          string   `json:"whatsapp"`
	Telefone          *string  `json:"telefone,omitempty"`
	Origem            string   `json:"origem"`
	Destino           string   `json:"destino"`
	DataPartida       *string  `json:"dataPartida,omitempty"`
	DataRetorno       *string  `json:"dataRetorno,omitempty"`
	NumeroPassageiros *int     `json:"numeroPassageiros,omitempty"`
	OrcamentoTotal    *string  `json:"orcamentoTotal,omitempty"`
	SelectedServices  []string `json:"selectedServices"`
	Observacoes       *string  `json:"observacoes,omitempty"`
	Source            string   `json:"source,omitempty"`
}

type leadResponse struct {
	ID                string    `json:"id"`
	Nome              string    `json:"nome"`
	Email             string    `json:"email"`
	WhatsApp          string    `json:"whatsapp"`
	Telefone          *string   `json:"telefone,omitempty"`
	Origem            string    `json:"origem"`
	Destino           string    `json:"destino"`
	DataPartida       *string   `json:"dataPartida,omitempty"`
	DataRetorno       *string   `json:"dataRetorno,omitempty"`
	NumeroPassageiros *int      `json:"numeroPassageiros,omitempty"`
	OrcamentoTotal    *string   `json:"orcamentoTotal,omitempty"`
	SelectedServices  []string  `json:"selectedServices"`
	Observacoes       *string   `json:"observacoes,omitempty"`
	Source            string    `json:"source,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type createLeadResponse struct {
	Lead          leadResponse `json:"lead"`
	Notifications fiber.Map    `json:"notifications"`
}

type listLeadsResponse struct {
	Data []leadResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	var req createLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	lead := requestToLead(req)
	if err := lead.Validate(); err != nil {
		return err
	}

	if h.repo != nil {
		if err := h.repo.Create(c.Context(), &lead); err != nil {
			return err
		}
	}

	result := h.sender.SendCompleteLeadNotification(c.Context(), lead, nil)

	return c.Status(fiber.StatusCreated).JSON(createLeadResponse{
		Lead: toLeadResponse(lead),
		Notifications: fiber.Map{
			"success":  result.Success,
			"admin":    result.Admin.Success,
			"customer": result.Customer.Success,
		},
	})
}

func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	if h.repo == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "lead storage is not configured")
	}

	id := strings.TrimSpace(c.Params("id"))
	lead, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toLeadResponse(*lead))
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	if h.repo == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "lead storage is not configured")
	}

	params, err := parseLeadListParams(c)
	if err != nil {
		return err
	}

	leads, total, err := h.repo.List(c.Context(), params)
	if err != nil {
		return err
	}

	data := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		data = append(data, toLeadResponse(lead))
	}

	return c.Status(fiber.StatusOK).JSON(listLeadsResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseLeadListParams(c *fiber.Ctx) (repository.LeadListParams, error) {
	params := repository.LeadListParams{
		Source:   strings.TrimSpace(c.Query("source")),
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.LeadListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.LeadListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.LeadListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.LeadListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func requestToLead(req createLeadRequest) domain.Lead {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "website"
	}

	return domain.Lead{
		Name:           strings.TrimSpace(req.Nome),
		Email:          strings.TrimSpace(req.Email),
		WhatsApp:       strings.TrimSpace(req.WhatsApp),
		Phone:          req.Telefone,
		Origin:         strings.TrimSpace(req.Origem),
		Destination:    strings.TrimSpace(req.Destino),
		DepartureDate:  req.DataPartida,
		ReturnDate:     req.DataRetorno,
		PassengerCount: req.NumeroPassageiros,
		Budget:         req.OrcamentoTotal,
		Services:       req.SelectedServices,
		Notes:          req.Observacoes,
		Source:         source,
	}
}

func toLeadResponse(lead domain.Lead) leadResponse {
	return leadResponse{
		ID:                lead.ID,
		Nome:              lead.Name,
		Email:             lead.Email,
		WhatsApp:          lead.WhatsApp,
		Telefone:          lead.Phone,
		Origem:            lead.Origin,
		Destino:           lead.Destination,
		DataPartida:       lead.DepartureDate,
		DataRetorno:       lead.ReturnDate,
		NumeroPassageiros: lead.PassengerCount,
		OrcamentoTotal:    lead.Budget,
		SelectedServices:  lead.Services,
		Observacoes:       lead.Notes,
		Source:            lead.Source,
		CreatedAt:         lead.CreatedAt,
	}
}
