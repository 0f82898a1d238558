package repository

import (
	"context"
	"errors"
	"time"

	"github.com/viajora/leadnotify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutcomeRecord is a settled delivery as read back from storage.
type OutcomeRecord struct {
	JobID      string
	JobType    domain.JobType
	Priority   domain.Priority
	Recipients string
	Subject    string
	TemplateID string
	Status     domain.DeliveryStatus
	Provider   string
	MessageID  string
	Attempts   int
	Error      string
	Latency    time.Duration
	QueuedAt   time.Time
	SettledAt  time.Time
}

// ProviderSummary aggregates settled outcomes per provider.
type ProviderSummary struct {
	Provider string                `gorm:"column:provider"`
	Status   domain.DeliveryStatus `gorm:"column:status"`
	Count    int                   `gorm:"column:count"`
}

type OutcomeRepository interface {
	Record(ctx context.Context, job domain.Job) error
	GetByJobID(ctx context.Context, jobID string) (*OutcomeRecord, error)
	ListRecent(ctx context.Context, limit int) ([]OutcomeRecord, error)
	SummaryByProvider(ctx context.Context, since time.Time) ([]ProviderSummary, error)
}

type GormOutcomeRepo struct {
	db *gorm.DB
}

func NewGormOutcomeRepo(db *gorm.DB) *GormOutcomeRepo {
	return &GormOutcomeRepo{db: db}
}

// Record upserts the terminal state of a job. The queue retries the write on
// transient failures, so the upsert keeps it idempotent.
func (r *GormOutcomeRepo) Record(ctx context.Context, job domain.Job) error {
	model := outcomeModelFromJob(job)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

func (r *GormOutcomeRepo) GetByJobID(ctx context.Context, jobID string) (*OutcomeRecord, error) {
	var model NotificationOutcomeModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return outcomeModelToRecord(&model), nil
}

func (r *GormOutcomeRepo) ListRecent(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var models []NotificationOutcomeModel
	err := r.db.WithContext(ctx).
		Order("settled_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]OutcomeRecord, 0, len(models))
	for i := range models {
		records = append(records, *outcomeModelToRecord(&models[i]))
	}
	return records, nil
}

func (r *GormOutcomeRepo) SummaryByProvider(ctx context.Context, since time.Time) ([]ProviderSummary, error) {
	var summaries []ProviderSummary
	err := r.db.WithContext(ctx).
		Model(&NotificationOutcomeModel{}).
		Select("COALESCE(provider, 'unknown') as provider, status, COUNT(*) as count").
		Where("settled_at >= ?", since).
		Group("provider, status").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
