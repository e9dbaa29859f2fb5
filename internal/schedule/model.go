// internal/schedule/model.go
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is derived from the paid flag and the invoice ID.
type PaymentStatus string

const (
	StatusPaid     PaymentStatus = "paid"
	StatusInvoiced PaymentStatus = "invoiced"
	StatusPending  PaymentStatus = "pending"
)

// Schedule is one dated payment installment of a product.
type Schedule struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ProductID        uint            `gorm:"not null;index" json:"productId"`
	Description      string          `gorm:"size:255" json:"description"`
	DueDate          *time.Time      `gorm:"index" json:"dueDate"`
	Revenue          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"revenue"`
	SplitPercent     decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0" json:"splitPercent"`
	TalentAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"talentAmount"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"commissionAmount"`
	InvoiceID        string          `gorm:"size:100" json:"invoiceId"`
	Paid             bool            `gorm:"not null;default:false;index" json:"paid"`
	PaidAt           *time.Time      `json:"paidAt"`
	PaymentStatus    PaymentStatus   `gorm:"-" json:"paymentStatus"`
	Payments         []Payment       `json:"payments"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Status derives the payment status: paid wins over invoiced.
func (s *Schedule) Status() PaymentStatus {
	switch {
	case s.Paid:
		return StatusPaid
	case s.InvoiceID != "":
		return StatusInvoiced
	default:
		return StatusPending
	}
}

func (s *Schedule) refresh() {
	s.PaymentStatus = s.Status()
	if s.Payments == nil {
		s.Payments = []Payment{}
	}
}

func (s *Schedule) AfterFind(tx *gorm.DB) error {
	s.refresh()
	return nil
}

// Payment is money received against a schedule, optionally grouped in a remittance.
type Payment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ScheduleID   uint            `gorm:"not null;index" json:"scheduleId"`
	RemittanceID *uint           `gorm:"index" json:"remittanceId"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidOn       time.Time       `gorm:"not null" json:"paidOn"`
	Method       string          `gorm:"size:50" json:"method"`
	Notes        string          `gorm:"size:500" json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Remittance groups the payments received in one transfer.
type Remittance struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Reference  string          `gorm:"size:100;not null;uniqueIndex" json:"reference"`
	Payer      string          `gorm:"size:255" json:"payer"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	ReceivedOn time.Time       `gorm:"not null" json:"receivedOn"`
	Payments   []Payment       `json:"payments"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Remittance{}, &Schedule{}, &Payment{})
}
