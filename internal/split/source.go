// internal/split/source.go
package split

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// Target is what the split engine needs to know about a schedule.
type Target struct {
	ScheduleID       uint
	DealID           uint
	CommissionAmount decimal.Decimal
	Paid             bool
	Owner            Recipient
	Agents           []Recipient
}

// Source loads schedule context and resolves agent names.
type Source interface {
	LoadTarget(ctx context.Context, scheduleID uint) (*Target, error)
	LookupAgent(ctx context.Context, name string) (*Recipient, error)
}

// GormSource reads the deal graph straight from the tables.
type GormSource struct {
	DB *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{DB: db}
}

func (s *GormSource) LoadTarget(ctx context.Context, scheduleID uint) (*Target, error) {
	db := s.DB.WithContext(ctx)

	var row struct {
		ScheduleID       uint
		DealID           uint
		CommissionAmount decimal.Decimal
		Paid             bool
		OwnerID          uint
		OwnerName        string
	}
	err := db.Table("schedules").
		Select(`schedules.id AS schedule_id, products.deal_id, schedules.commission_amount,
			schedules.paid, deals.owner_id, COALESCE(agents.name, '') AS owner_name`).
		Joins("JOIN products ON products.id = schedules.product_id").
		Joins("JOIN deals ON deals.id = products.deal_id").
		Joins("LEFT JOIN agents ON agents.id = deals.owner_id").
		Where("schedules.id = ?", scheduleID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	var agents []Recipient
	err = db.Table("deal_talents").
		Select("agents.id, agents.name").
		Joins("JOIN talent_agents ON talent_agents.talent_client_id = deal_talents.talent_client_id").
		Joins("JOIN agents ON agents.id = talent_agents.agent_id").
		Where("deal_talents.deal_id = ? AND agents.deleted_at IS NULL", row.DealID).
		Order("deal_talents.talent_client_id ASC, agents.id ASC").
		Scan(&agents).Error
	if err != nil {
		return nil, err
	}

	return &Target{
		ScheduleID:       row.ScheduleID,
		DealID:           row.DealID,
		CommissionAmount: row.CommissionAmount,
		Paid:             row.Paid,
		Owner:            Recipient{ID: row.OwnerID, Name: row.OwnerName},
		Agents:           dedupe(agents),
	}, nil
}

// LookupAgent matches a directory agent by name, ignoring case. Unknown
// names are allowed and return nil.
func (s *GormSource) LookupAgent(ctx context.Context, name string) (*Recipient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var found []Recipient
	err := s.DB.WithContext(ctx).Table("agents").
		Select("id, name").
		Where("LOWER(name) = LOWER(?) AND deleted_at IS NULL", name).
		Limit(2).
		Scan(&found).Error
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, nil
	}
	return &found[0], nil
}
