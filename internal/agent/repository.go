package agent

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

func (r *Repository) Create(ctx context.Context, a *Agent) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Agent, error) {
	var a Agent
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Agent, error) {
	var a Agent
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&Agent{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	return n > 0, err
}

// Search lists agents whose name, email or agency contains q. An empty q
// lists everyone.
func (r *Repository) Search(ctx context.Context, q string, limit int) ([]Agent, error) {
	list := []Agent{}
	db := r.DB.WithContext(ctx).Order("name ASC")
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(agency) LIKE ?", like, like, like)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&list).Error
	return list, err
}

func (r *Repository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.DB.WithContext(ctx).Model(&Agent{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "must_reset_password": false}).Error
}
