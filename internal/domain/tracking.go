package domain

import (
	"fmt"
	"strings"
	"time"
)

// TrackingStatus is the externally visible delivery state of a logical
// notification.
type TrackingStatus string

const (
	TrackingQueued    TrackingStatus = "QUEUED"
	TrackingSent      TrackingStatus = "SENT"
	TrackingDelivered TrackingStatus = "DELIVERED"
	TrackingBounced   TrackingStatus = "BOUNCED"
	TrackingFailed    TrackingStatus = "FAILED"
)

func (s TrackingStatus) String() string { return string(s) }

func (s TrackingStatus) IsValid() bool {
	switch s {
	case TrackingQueued, TrackingSent, TrackingDelivered, TrackingBounced, TrackingFailed:
		return true
	}
	return false
}

func ParseTrackingStatusFromString(s string) (TrackingStatus, error) {
	st := TrackingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid tracking status %q", ErrValidation, s)
	}
	return st, nil
}

// TrackingRecord correlates a logical notification with the job that carries
// it, letting callers look up delivery status by tracking id.
type TrackingRecord struct {
	ID         string
	Recipient  string
	TemplateID string
	JobID      string
	CreatedAt  time.Time
	Status     TrackingStatus
}
