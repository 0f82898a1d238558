package domain

import (
	"fmt"
	"strings"
	"time"
)

// Lead is a captured travel inquiry. Template data keys keep the Portuguese
// names used by the lead capture forms and the registered templates.
type Lead struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	Name           string  `gorm:"type:varchar(255);not null"`
	Email          string  `gorm:"type:varchar(255);not null"`
	WhatsApp       string  `gorm:"type:varchar(32);not null"`
	Phone          *string `gorm:"type:varchar(32)"`
	Origin         string  `gorm:"type:varchar(255);not null"`
	Destination    string  `gorm:"type:varchar(255);not null"`
	DepartureDate  *string `gorm:"type:varchar(32)"`
	ReturnDate     *string `gorm:"type:varchar(32)"`
	PassengerCount *int    `gorm:"type:int"`
	Budget         *string `gorm:"type:varchar(64)"`
	// Services holds the travel services the lead asked about (flights,
	// hotels, car rental, insurance, ...).
	Services []string `gorm:"type:text;serializer:json"`
	Notes    *string  `gorm:"type:text"`
	Source   string   `gorm:"type:varchar(64)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Lead) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: lead is required", ErrValidation)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: nome is required", ErrValidation)
	}
	if strings.TrimSpace(l.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(l.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, l.Email)
	}
	if strings.TrimSpace(l.WhatsApp) == "" {
		return fmt.Errorf("%w: whatsapp is required", ErrValidation)
	}
	if strings.TrimSpace(l.Origin) == "" {
		return fmt.Errorf("%w: origem is required", ErrValidation)
	}
	if strings.TrimSpace(l.Destination) == "" {
		return fmt.Errorf("%w: destino is required", ErrValidation)
	}
	if len(l.Services) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrValidation)
	}
	return nil
}

// TemplateData flattens the lead into the key set the built-in lead templates
// declare. Optional fields are only present when set, so presence-conditional
// template blocks can react to them.
func (l *Lead) TemplateData() map[string]any {
	data := map[string]any{
		"id":               l.ID,
		"nome":             l.Name,
		"email":            l.Email,
		"whatsapp":         l.WhatsApp,
		"origem":           l.Origin,
		"destino":          l.Destination,
		"selectedServices": l.Services,
		"source":           l.Source,
		"createdAt":        l.CreatedAt.Format(time.RFC3339),
	}
	if l.Phone != nil {
		data["telefone"] = *l.Phone
	}
	if l.DepartureDate != nil {
		data["dataPartida"] = *l.DepartureDate
	}
	if l.ReturnDate != nil {
		data["dataRetorno"] = *l.ReturnDate
	}
	if l.PassengerCount != nil {
		data["numeroPassageiros"] = *l.PassengerCount
	}
	if l.Budget != nil {
		data["orcamentoTotal"] = *l.Budget
	}
	if l.Notes != nil {
		data["observacoes"] = *l.Notes
	}
	return data
}
