// internal/split/repository.go
package split

import (
	"context"
	"errors"

	"github.com/dealdesk/api-deals/internal/commission"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps database access for persisted splits.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ListBySchedule returns the persisted splits of a schedule in display order.
func (r *Repository) ListBySchedule(ctx context.Context, scheduleID uint) ([]Split, error) {
	var list []CommissionSplit
	err := r.DB.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("position ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toRows(list), nil
}

// ReplaceForSchedule swaps every split of the schedule for rows in one
// transaction. The schedule row is locked first so a payment marking it paid
// cannot interleave with the replace.
func (r *Repository) ReplaceForSchedule(ctx context.Context, scheduleID uint, rows []Split) ([]Split, error) {
	records := fromRows(scheduleID, rows)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOpen(tx, scheduleID); err != nil {
			return err
		}
		if err := tx.Where("schedule_id = ?", scheduleID).Delete(&CommissionSplit{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(records).Error
	})
	if err != nil {
		return nil, err
	}
	saved := make([]Split, 0, len(records))
	for _, rec := range records {
		saved = append(saved, Split{
			AgentName:    rec.AgentName,
			AgentID:      rec.AgentID,
			SplitPercent: rec.SplitPercent,
			SplitAmount:  rec.SplitAmount,
		})
	}
	return saved, nil
}

func checkOpen(tx *gorm.DB, scheduleID uint) error {
	var sched struct {
		ID   uint
		Paid bool
	}
	err := tx.Table("schedules").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id, paid").
		Where("id = ?", scheduleID).
		Take(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrScheduleNotFound
	}
	if err != nil {
		return err
	}
	if sched.Paid {
		return ErrScheduleLocked
	}
	return nil
}

// RescaleAmounts recomputes every split amount of a schedule from its percent
// after the schedule's commission changed. Runs on the caller's transaction.
func RescaleAmounts(tx *gorm.DB, scheduleID uint, commissionAmount decimal.Decimal) error {
	var list []CommissionSplit
	if err := tx.Where("schedule_id = ?", scheduleID).Find(&list).Error; err != nil {
		return err
	}
	for _, s := range list {
		amount := commission.AmountOf(commissionAmount, s.SplitPercent)
		if amount.Equal(s.SplitAmount) {
			continue
		}
		if err := tx.Model(&CommissionSplit{}).Where("id = ?", s.ID).Update("split_amount", amount).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteForSchedules removes the splits of the given schedules.
func DeleteForSchedules(tx *gorm.DB, scheduleIDs []uint) error {
	if len(scheduleIDs) == 0 {
		return nil
	}
	return tx.Where("schedule_id IN ?", scheduleIDs).Delete(&CommissionSplit{}).Error
}
