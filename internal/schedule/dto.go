// internal/schedule/dto.go
package schedule

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequest is the body of POST /api/products/{id}/schedules.
type CreateRequest struct {
	Description  string          `json:"description"`
	DueDate      *time.Time      `json:"dueDate"`
	Revenue      decimal.Decimal `json:"revenue"`
	SplitPercent decimal.Decimal `json:"splitPercent"`
	InvoiceID    string          `json:"invoiceId"`
}

// FieldUpdate is the body of PUT /api/schedules/{id}. Value may be a JSON
// string, number or boolean.
type FieldUpdate struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// PaymentRequest records a payment. RemittanceReference links it to a
// remittance, creating one when the reference is new.
type PaymentRequest struct {
	Amount              decimal.Decimal `json:"amount"`
	PaidOn              *time.Time      `json:"paidOn"`
	Method              string          `json:"method"`
	Notes               string          `json:"notes"`
	RemittanceReference string          `json:"remittanceReference"`
}

type RemittanceRequest struct {
	Reference  string          `json:"reference"`
	Payer      string          `json:"payer"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedOn *time.Time      `json:"receivedOn"`
}
