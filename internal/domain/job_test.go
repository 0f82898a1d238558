package domain

import (
	"errors"
	"testing"
)

func TestParsePriorityFromString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{input: "HIGH", want: PriorityHigh},
		{input: "low", want: PriorityLow},
		{input: "  Normal  ", want: PriorityNormal},
		{input: "critical", want: PriorityCritical},
		{input: "urgent", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParsePriorityFromString(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParsePriorityFromString(%q) error = %v, want ErrValidation", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriorityFromString(%q) error = %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePriorityFromString(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestPriorityWeightOrdering(t *testing.T) {
	t.Parallel()

	ordered := []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Weight() <= ordered[i-1].Weight() {
			t.Errorf("%s weight %d should exceed %s weight %d",
				ordered[i], ordered[i].Weight(), ordered[i-1], ordered[i-1].Weight())
		}
	}
	if Priority("BOGUS").Weight() != 0 {
		t.Error("unknown priority should weigh 0")
	}
}

func TestDeliveryStatusTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	if !StatusSent.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Error("SENT and FAILED must be terminal")
	}
}

func TestParseJobTypeFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseJobTypeFromString("lead_admin")
	if err != nil {
		t.Fatalf("ParseJobTypeFromString() error = %v", err)
	}
	if got != TypeLeadAdmin {
		t.Errorf("got %v, want LEAD_ADMIN", got)
	}

	if _, err := ParseJobTypeFromString("newsletter"); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestPayloadValidate(t *testing.T) {
	t.Parallel()

	valid := Payload{To: []string{"ops@viajora.com"}, TemplateID: "lead_admin_notification"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	testCases := []struct {
		name    string
		payload Payload
	}{
		{name: "no recipients", payload: Payload{TemplateID: "t"}},
		{name: "blank recipient", payload: Payload{To: []string{" "}, TemplateID: "t"}},
		{name: "no template", payload: Payload{To: []string{"a@b.com"}}},
	}
	for _, tc := range testCases {
		if err := tc.payload.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: error = %v, want ErrValidation", tc.name, err)
		}
	}
}
