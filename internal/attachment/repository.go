package attachment

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

func (r *Repository) Create(ctx context.Context, a *Attachment) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// ListByDeal returns metadata only; content is loaded on download.
func (r *Repository) ListByDeal(ctx context.Context, dealID uint) ([]Attachment, error) {
	list := []Attachment{}
	err := r.DB.WithContext(ctx).
		Omit("data").
		Where("deal_id = ?", dealID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Attachment, error) {
	var a Attachment
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&Attachment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
