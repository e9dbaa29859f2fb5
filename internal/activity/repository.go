// internal/activity/repository.go
package activity

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, a *Activity) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// ListByDeal pages through a deal's feed, newest first, optionally filtered by type.
func (r *Repository) ListByDeal(ctx context.Context, dealID uint, activityType string, limit, offset int) ([]Activity, int64, error) {
	q := r.DB.WithContext(ctx).Model(&Activity{}).Where("deal_id = ?", dealID)
	if activityType != "" {
		q = q.Where("activity_type = ?", activityType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := []Activity{}
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	return list, total, err
}
