// internal/schedule/repository.go
package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dealdesk/api-deals/internal/split"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps access to schedules, payments and remittances.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

/* ============================== Schedules ============================== */

func (r *Repository) Create(ctx context.Context, s *Schedule) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Schedule, error) {
	var s Schedule
	err := r.DB.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_on ASC, id ASC") }).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID uint) ([]Schedule, error) {
	list := []Schedule{}
	err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("due_date ASC NULLS LAST, id ASC").
		Find(&list).Error
	return list, err
}

// ListByDeal returns every schedule of a deal's products in due date order.
func (r *Repository) ListByDeal(ctx context.Context, dealID uint) ([]Schedule, error) {
	list := []Schedule{}
	err := r.DB.WithContext(ctx).
		Joins("JOIN products ON products.id = schedules.product_id").
		Where("products.deal_id = ?", dealID).
		Order("schedules.due_date ASC NULLS LAST, schedules.id ASC").
		Find(&list).Error
	return list, err
}

// DealIDOf resolves the deal a product belongs to.
func (r *Repository) DealIDOf(ctx context.Context, productID uint) (uint, error) {
	var dealID uint
	err := r.DB.WithContext(ctx).Table("products").
		Select("deal_id").
		Where("id = ?", productID).
		Take(&dealID).Error
	return dealID, err
}

// SaveEdit stores the schedule and, when its commission changed, rescales the
// persisted split amounts in the same transaction.
func (r *Repository) SaveEdit(ctx context.Context, s *Schedule, commissionChanged bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(s).Error; err != nil {
			return err
		}
		if !commissionChanged {
			return nil
		}
		return split.RescaleAmounts(tx, s.ID, s.CommissionAmount)
	})
}

// Delete removes a schedule with its payments and splits.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeleteCascade(tx, []uint{id})
	})
}

// DeleteCascade removes schedules and everything hanging off them.
// Runs on the caller's transaction.
func DeleteCascade(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := split.DeleteForSchedules(tx, ids); err != nil {
		return err
	}
	if err := tx.Where("schedule_id IN ?", ids).Delete(&Payment{}).Error; err != nil {
		return err
	}
	res := tx.Where("id IN ?", ids).Delete(&Schedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

/* ============================== Payments ============================== */

// SumPaid adds up the payments recorded against a schedule.
func SumPaid(tx *gorm.DB, scheduleID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&Payment{}).
		Where("schedule_id = ?", scheduleID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// RecordPayment stores p against the schedule and marks the schedule paid
// once the payments cover its revenue.
func (r *Repository) RecordPayment(ctx context.Context, scheduleID uint, p *Payment, remittanceRef string, now time.Time) (*Schedule, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s Schedule
		if err := tx.First(&s, scheduleID).Error; err != nil {
			return err
		}

		if ref := strings.TrimSpace(remittanceRef); ref != "" {
			rem := Remittance{Reference: ref}
			err := tx.Where("reference = ?", ref).
				Attrs(Remittance{Amount: p.Amount, ReceivedOn: p.PaidOn}).
				FirstOrCreate(&rem).Error
			if err != nil {
				return err
			}
			p.RemittanceID = &rem.ID
		}

		p.ScheduleID = scheduleID
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		total, err := SumPaid(tx, scheduleID)
		if err != nil {
			return err
		}
		if !s.Paid && s.Revenue.IsPositive() && total.GreaterThanOrEqual(s.Revenue) {
			return tx.Model(&Schedule{}).Where("id = ?", scheduleID).
				Updates(map[string]any{"paid": true, "paid_at": &now}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, scheduleID)
}

/* ============================== Remittances ============================== */

var ErrDuplicateReference = errors.New("remittance reference already exists")

func (r *Repository) CreateRemittance(ctx context.Context, rem *Remittance) error {
	var n int64
	db := r.DB.WithContext(ctx)
	if err := db.Model(&Remittance{}).Where("reference = ?", rem.Reference).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateReference
	}
	return db.Create(rem).Error
}

func (r *Repository) FindRemittance(ctx context.Context, id uint) (*Remittance, error) {
	var rem Remittance
	err := r.DB.WithContext(ctx).Preload("Payments").First(&rem, id).Error
	if err != nil {
		return nil, err
	}
	if rem.Payments == nil {
		rem.Payments = []Payment{}
	}
	return &rem, nil
}

func (r *Repository) ListRemittances(ctx context.Context) ([]Remittance, error) {
	list := []Remittance{}
	err := r.DB.WithContext(ctx).Order("received_on DESC, id DESC").Find(&list).Error
	return list, err
}
