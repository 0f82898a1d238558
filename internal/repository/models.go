package repository

import (
	"strings"
	"time"

	"github.com/viajora/leadnotify/internal/domain"
)

// NotificationOutcomeModel is the persistence model for the
// notification_outcomes table. One row per job that reached a terminal
// state; the queue writes it through OutcomeRepository.Record.
type NotificationOutcomeModel struct {
	ID         string                `gorm:"type:uuid;primaryKey"`
	JobType    domain.JobType        `gorm:"type:varchar(20);not null"`
	Priority   domain.Priority       `gorm:"type:varchar(10);not null"`
	Recipients string                `gorm:"type:text;not null"`
	Subject    string                `gorm:"type:text;not null"`
	TemplateID string                `gorm:"type:varchar(100);not null"`
	Status     domain.DeliveryStatus `gorm:"type:varchar(10);not null"`
	Provider   *string               `gorm:"type:varchar(50)"`
	MessageID  *string               `gorm:"type:varchar(255)"`
	Attempts   int                   `gorm:"not null;default:0"`
	Error      *string               `gorm:"type:text"`
	LatencyMS  int64                 `gorm:"not null;default:0"`
	QueuedAt   time.Time             `gorm:"type:timestamptz;not null"`
	SettledAt  time.Time             `gorm:"type:timestamptz;not null"`
}

func (NotificationOutcomeModel) TableName() string {
	return "notification_outcomes"
}

func outcomeModelFromJob(job domain.Job) *NotificationOutcomeModel {
	model := &NotificationOutcomeModel{
		ID:         job.ID,
		JobType:    job.Type,
		Priority:   job.Priority,
		Recipients: strings.Join(job.Payload.To, ", "),
		Subject:    job.Payload.Subject,
		TemplateID: job.Payload.TemplateID,
		Status:     job.Status,
		Attempts:   job.Attempts,
		LatencyMS:  job.Metadata.Latency.Milliseconds(),
		QueuedAt:   job.CreatedAt,
	}

	if job.Metadata.Provider != "" {
		provider := job.Metadata.Provider
		model.Provider = &provider
	}
	if job.Metadata.MessageID != "" {
		messageID := job.Metadata.MessageID
		model.MessageID = &messageID
	}
	if job.Error != "" {
		jobErr := job.Error
		model.Error = &jobErr
	}

	switch {
	case job.CompletedAt != nil:
		model.SettledAt = *job.CompletedAt
	case job.FailedAt != nil:
		model.SettledAt = *job.FailedAt
	default:
		model.SettledAt = job.CreatedAt
	}

	return model
}

func outcomeModelToRecord(m *NotificationOutcomeModel) *OutcomeRecord {
	if m == nil {
		return nil
	}

	record := &OutcomeRecord{
		JobID:      m.ID,
		JobType:    m.JobType,
		Priority:   m.Priority,
		Recipients: m.Recipients,
		Subject:    m.Subject,
		TemplateID: m.TemplateID,
		Status:     m.Status,
		Attempts:   m.Attempts,
		Latency:    time.Duration(m.LatencyMS) * time.Millisecond,
		QueuedAt:   m.QueuedAt,
		SettledAt:  m.SettledAt,
	}
	if m.Provider != nil {
		record.Provider = *m.Provider
	}
	if m.MessageID != nil {
		record.MessageID = *m.MessageID
	}
	if m.Error != nil {
		record.Error = *m.Error
	}
	return record
}
