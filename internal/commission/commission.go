// Package commission holds the revenue / commission arithmetic shared by
// schedules and commission splits. Every value is rounded to cents.
package commission

import "github.com/shopspring/decimal"

// Places is the number of decimal places kept for money and percentages.
const Places = 2

var hundred = decimal.NewFromInt(100)

func init() {
	// API payloads carry amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Amounts is the revenue triple of a schedule.
type Amounts struct {
	Revenue          decimal.Decimal `json:"revenue"`
	SplitPercent     decimal.Decimal `json:"splitPercent"`
	TalentAmount     decimal.Decimal `json:"talentAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
}

// Round rounds d to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// AmountOf returns percent% of base, rounded to cents.
func AmountOf(base, percent decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(percent).Div(hundred))
}

// PercentOf returns the share amount represents of base. A non-positive
// base yields 0 instead of dividing by zero.
func PercentOf(base, amount decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return Round(amount.Div(base).Mul(hundred))
}

// Derive recomputes commission and talent amounts after revenue or the
// split percentage changed. The percentage is not range checked: values
// outside 0-100 give a negative talent amount or a commission above revenue.
func Derive(revenue, splitPercent decimal.Decimal) Amounts {
	commission := AmountOf(revenue, splitPercent)
	return Amounts{
		Revenue:          revenue,
		SplitPercent:     splitPercent,
		TalentAmount:     revenue.Sub(commission),
		CommissionAmount: commission,
	}
}

// FromTalent handles an edit of the talent amount: commission is what is
// left of revenue and the split percentage is derived back from it.
func FromTalent(revenue, talent decimal.Decimal) Amounts {
	commission := revenue.Sub(talent)
	return Amounts{
		Revenue:          revenue,
		SplitPercent:     PercentOf(revenue, commission),
		TalentAmount:     talent,
		CommissionAmount: commission,
	}
}

// FromCommission handles an edit of the commission amount.
func FromCommission(revenue, commission decimal.Decimal) Amounts {
	return Amounts{
		Revenue:          revenue,
		SplitPercent:     PercentOf(revenue, commission),
		TalentAmount:     revenue.Sub(commission),
		CommissionAmount: commission,
	}
}

// Sum adds up values; an empty list sums to zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Hundred is 100 as a decimal.
func Hundred() decimal.Decimal {
	return hundred
}
