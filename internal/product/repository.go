// internal/product/repository.go
package product

import (
	"context"

	"github.com/dealdesk/api-deals/internal/schedule"
	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func orderSchedules(db *gorm.DB) *gorm.DB {
	return db.Order("due_date ASC NULLS LAST, id ASC")
}

func (r *Repository) Create(ctx context.Context, p *Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// ListByDeal returns the deal's products with schedules and totals.
func (r *Repository) ListByDeal(ctx context.Context, dealID uint) ([]Product, error) {
	list := []Product{}
	err := r.DB.WithContext(ctx).
		Preload("Schedules", orderSchedules).
		Where("deal_id = ?", dealID).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Aggregate()
	}
	return list, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := r.DB.WithContext(ctx).Preload("Schedules", orderSchedules).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	p.Aggregate()
	return &p, nil
}

func (r *Repository) Update(ctx context.Context, p *Product) error {
	return r.DB.WithContext(ctx).Model(&Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"name": p.Name, "type": p.Type, "description": p.Description}).Error
}

// Delete removes the product with its schedules, payments and splits.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeleteCascade(tx, []uint{id})
	})
}

// DeleteCascade removes products and their schedule graph on tx.
func DeleteCascade(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var scheduleIDs []uint
	if err := tx.Model(&schedule.Schedule{}).Where("product_id IN ?", ids).Pluck("id", &scheduleIDs).Error; err != nil {
		return err
	}
	if err := schedule.DeleteCascade(tx, scheduleIDs); err != nil {
		return err
	}
	res := tx.Where("id IN ?", ids).Delete(&Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
