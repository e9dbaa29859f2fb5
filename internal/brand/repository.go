package brand

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, b *Brand) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

// List returns brands, optionally filtered by a name fragment.
func (r *Repository) List(ctx context.Context, q string) ([]Brand, error) {
	list := []Brand{}
	db := r.DB.WithContext(ctx).Order("name ASC")
	if q = strings.TrimSpace(q); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	err := db.Find(&list).Error
	return list, err
}

func (r *Repository) FindDetail(ctx context.Context, id uint) (*Detail, error) {
	db := r.DB.WithContext(ctx)
	var b Brand
	if err := db.First(&b, id).Error; err != nil {
		return nil, err
	}
	deals := []DealSummary{}
	err := db.Table("deals").
		Select("id, name, stage").
		Where("brand_id = ? AND deleted_at IS NULL", id).
		Order("created_at DESC").
		Scan(&deals).Error
	if err != nil {
		return nil, err
	}
	return &Detail{Brand: b, Deals: deals}, nil
}
