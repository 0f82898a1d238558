package domain

import (
	"errors"
	"testing"
	"time"
)

func validLead() Lead {
	return Lead{
		ID:          "lead-1",
		Name:        "Maria Silva",
		Email:       "maria@example.com",
		WhatsApp:    "+5511999998888",
		Origin:      "São Paulo",
		Destination: "Lisboa",
		Services:    []string{"voos", "hotel"},
		Source:      "website",
		CreatedAt:   time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLeadValidate(t *testing.T) {
	t.Parallel()

	lead := validLead()
	if err := lead.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*Lead)
	}{
		{name: "missing name", mutate: func(l *Lead) { l.Name = " " }},
		{name: "missing email", mutate: func(l *Lead) { l.Email = "" }},
		{name: "malformed email", mutate: func(l *Lead) { l.Email = "maria.example.com" }},
		{name: "missing whatsapp", mutate: func(l *Lead) { l.WhatsApp = "" }},
		{name: "missing origin", mutate: func(l *Lead) { l.Origin = "" }},
		{name: "missing destination", mutate: func(l *Lead) { l.Destination = "" }},
		{name: "no services", mutate: func(l *Lead) { l.Services = nil }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lead := validLead()
			tc.mutate(&lead)
			if err := lead.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLeadTemplateDataOptionalFields(t *testing.T) {
	t.Parallel()

	lead := validLead()
	data := lead.TemplateData()

	if data["nome"] != "Maria Silva" || data["destino"] != "Lisboa" {
		t.Errorf("core fields missing from template data: %v", data)
	}
	// Optional fields are present only when set, so conditional template
	// blocks can react to their presence.
	for _, key := range []string{"telefone", "dataPartida", "dataRetorno", "numeroPassageiros", "orcamentoTotal", "observacoes"} {
		if _, ok := data[key]; ok {
			t.Errorf("unset optional field %q must be absent", key)
		}
	}

	phone := "+5511888887777"
	passengers := 3
	notes := "ligar antes das 18h"
	lead.Phone = &phone
	lead.PassengerCount = &passengers
	lead.Notes = &notes

	data = lead.TemplateData()
	if data["telefone"] != phone {
		t.Errorf("telefone = %v", data["telefone"])
	}
	if data["numeroPassageiros"] != passengers {
		t.Errorf("numeroPassageiros = %v", data["numeroPassageiros"])
	}
	if data["observacoes"] != notes {
		t.Errorf("observacoes = %v", data["observacoes"])
	}
	if data["createdAt"] != "2026-02-01T09:00:00Z" {
		t.Errorf("createdAt = %v, want RFC3339", data["createdAt"])
	}
}
