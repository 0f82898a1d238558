package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus represents the lifecycle state of a notification job.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "PENDING"
	StatusSent    DeliveryStatus = "SENT"
	StatusFailed  DeliveryStatus = "FAILED"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether a job in this status never transitions again.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseDeliveryStatusFromString(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid delivery status %q", ErrValidation, s)
	}
	return st, nil
}

// Priority represents the scheduling priority of a job.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Weight returns the scheduling order value. Higher weight dispatches first.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

// JobType is a coarse classification of outbound notifications, inferred from
// the template that produced the job.
type JobType string

const (
	TypeLeadAdmin    JobType = "LEAD_ADMIN"
	TypeLeadCustomer JobType = "LEAD_CUSTOMER"
	TypeMarketing    JobType = "MARKETING"
	TypeSystem       JobType = "SYSTEM"
)

func (t JobType) String() string { return string(t) }

func (t JobType) IsValid() bool {
	switch t {
	case TypeLeadAdmin, TypeLeadCustomer, TypeMarketing, TypeSystem:
		return true
	}
	return false
}

func ParseJobTypeFromString(s string) (JobType, error) {
	t := JobType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid job type %q", ErrValidation, s)
	}
	return t, nil
}

// Payload is the outbound content of a job.
type Payload struct {
	To           []string
	Subject      string
	TemplateID   string
	TemplateData map[string]any
	// Provider is an optional explicit provider preference by name. The
	// scheduler falls back to priority-based selection when it is empty or
	// the named provider is unhealthy.
	Provider string
	Tags     []string
}

func (p *Payload) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: payload is required", ErrValidation)
	}
	if len(p.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrValidation)
	}
	for _, addr := range p.To {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("%w: recipient address must not be empty", ErrValidation)
		}
	}
	if strings.TrimSpace(p.TemplateID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	return nil
}

// JobMetadata carries delivery result annotations for a sent job.
type JobMetadata struct {
	Provider  string
	MessageID string
	Latency   time.Duration
}

// Job is one queued, asynchronous unit of outbound notification work.
type Job struct {
	ID            string
	Type          JobType
	Priority      Priority
	Payload       Payload
	Attempts      int
	MaxAttempts   int
	ScheduledAt   time.Time
	CreatedAt     time.Time
	LastAttemptAt *time.Time
	CompletedAt   *time.Time
	FailedAt      *time.Time
	Status        DeliveryStatus
	Error         string
	Metadata      JobMetadata
}

func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: job is required", ErrValidation)
	}
	if err := j.Payload.Validate(); err != nil {
		return err
	}
	if !j.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, j.Priority)
	}
	if !j.Status.IsValid() {
		return fmt.Errorf("%w: invalid delivery status %q", ErrValidation, j.Status)
	}
	if j.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrValidation)
	}
	return nil
}
