package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viajora/leadnotify/internal/domain"
	"gorm.io/gorm"
)

type LeadListParams struct {
	Source   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, params LeadListParams) ([]domain.Lead, int64, error)
}

type GormLeadRepo struct {
	db *gorm.DB
}

func NewGormLeadRepo(db *gorm.DB) *GormLeadRepo {
	return &GormLeadRepo{db: db}
}

func (r *GormLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	if lead == nil {
		return errors.New("lead is required")
	}
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *GormLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *GormLeadRepo) List(ctx context.Context, params LeadListParams) ([]domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Lead{})

	if params.Source != "" {
		query = query.Where("source = ?", params.Source)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var leads []domain.Lead
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}
