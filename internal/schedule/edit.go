// internal/schedule/edit.go
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dealdesk/api-deals/internal/commission"
	"github.com/shopspring/decimal"
)

// Editable schedule fields.
const (
	FieldRevenue          = "revenue"
	FieldTalentAmount     = "talentAmount"
	FieldCommissionAmount = "commissionAmount"
	FieldSplitPercent     = "splitPercent"
	FieldDueDate          = "dueDate"
	FieldInvoiceID        = "invoiceId"
	FieldPaid             = "paid"
)

var (
	ErrUnknownField = errors.New("unknown schedule field")
	ErrInvalidValue = errors.New("invalid schedule value")
	ErrPaid         = errors.New("schedule is paid; amounts are read-only")
	ErrAlreadyPaid  = errors.New("a paid schedule cannot be marked unpaid")
)

// ApplyEdit changes one field of s and recomputes the amounts that depend on
// it. It reports whether the commission amount changed.
func ApplyEdit(s *Schedule, field string, raw json.RawMessage, now time.Time) (bool, error) {
	value, err := rawString(raw)
	if err != nil {
		return false, err
	}

	switch field {
	case FieldRevenue, FieldTalentAmount, FieldCommissionAmount, FieldSplitPercent:
		if s.Paid {
			return false, ErrPaid
		}
		v, err := parseDecimal(value)
		if err != nil {
			return false, err
		}
		before := s.CommissionAmount
		var a commission.Amounts
		switch field {
		case FieldRevenue:
			a = commission.Derive(v, s.SplitPercent)
		case FieldSplitPercent:
			a = commission.Derive(s.Revenue, v)
		case FieldTalentAmount:
			a = commission.FromTalent(s.Revenue, v)
		case FieldCommissionAmount:
			a = commission.FromCommission(s.Revenue, v)
		}
		setAmounts(s, a)
		return !before.Equal(s.CommissionAmount), nil

	case FieldDueDate:
		if value == "" {
			s.DueDate = nil
			break
		}
		t, err := parseDate(value)
		if err != nil {
			return false, err
		}
		s.DueDate = &t

	case FieldInvoiceID:
		s.InvoiceID = strings.TrimSpace(value)

	case FieldPaid:
		paid, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidValue, value)
		}
		if s.Paid && !paid {
			return false, ErrAlreadyPaid
		}
		if paid && !s.Paid {
			s.Paid = true
			s.PaidAt = &now
		}

	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.refresh()
	return false, nil
}

// NewFromRequest builds a schedule with derived amounts.
func NewFromRequest(productID uint, in CreateRequest) *Schedule {
	s := &Schedule{
		ProductID:   productID,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		InvoiceID:   strings.TrimSpace(in.InvoiceID),
	}
	setAmounts(s, commission.Derive(in.Revenue, in.SplitPercent))
	s.refresh()
	return s
}

func setAmounts(s *Schedule, a commission.Amounts) {
	s.Revenue = a.Revenue
	s.SplitPercent = a.SplitPercent
	s.TalentAmount = a.TalentAmount
	s.CommissionAmount = a.CommissionAmount
}

func rawString(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidValue, trimmed)
		}
		return strings.TrimSpace(s), nil
	}
	return trimmed, nil
}

func parseDecimal(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, v)
	}
	return d, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidValue, v)
}
