// internal/split/engine.go
package split

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dealdesk/api-deals/internal/commission"
	"github.com/shopspring/decimal"
)

// Editable fields of a split row.
const (
	FieldAgentName    = "agentName"
	FieldSplitPercent = "splitPercent"
	FieldSplitAmount  = "splitAmount"
)

// UnassignedName is the synthetic recipient that absorbs an under-allocated remainder.
const UnassignedName = "Unassigned"

var (
	ErrRowOutOfRange  = errors.New("split row out of range")
	ErrLastRow        = errors.New("cannot remove the only split row")
	ErrUnknownField   = errors.New("unknown split field")
	ErrInvalidValue   = errors.New("invalid split value")
	ErrOverAllocated  = errors.New("splits exceed 100 percent")
	ErrScheduleLocked = errors.New("schedule is paid; splits are read-only")
)

// Policy decides what a commit does with rows totalling more than 100%.
type Policy string

const (
	PolicyReject      Policy = "reject"
	PolicyPassthrough Policy = "passthrough"
)

// ParsePolicy maps a config value to a Policy, defaulting to reject.
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyPassthrough {
		return PolicyPassthrough
	}
	return PolicyReject
}

// Split is one (recipient, percent, amount) allocation of a schedule's commission.
type Split struct {
	AgentName    string          `json:"agentName"`
	AgentID      *uint           `json:"agentId"`
	SplitPercent decimal.Decimal `json:"splitPercent"`
	SplitAmount  decimal.Decimal `json:"splitAmount"`
}

// Recipient is a candidate agent for the default allocation.
type Recipient struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Summary reports how far a split list is from reconciling.
type Summary struct {
	TotalPercent decimal.Decimal `json:"totalPercent"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Balanced     bool            `json:"balanced"`
	Warning      string          `json:"warning,omitempty"`
}

// Initialize builds the default split list: the deal's agents share the
// commission equally, or the owner takes all of it when there are none.
// Rounding drift between the row amounts and commissionAmount is left as is.
func Initialize(commissionAmount decimal.Decimal, agents []Recipient, owner Recipient) []Split {
	agents = dedupe(agents)
	if len(agents) == 0 {
		return []Split{{
			AgentName:    owner.Name,
			AgentID:      idPtr(owner.ID),
			SplitPercent: commission.Hundred(),
			SplitAmount:  commissionAmount,
		}}
	}

	percent := commission.Round(commission.Hundred().Div(decimal.NewFromInt(int64(len(agents)))))
	amount := commission.AmountOf(commissionAmount, percent)

	rows := make([]Split, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, Split{
			AgentName:    a.Name,
			AgentID:      idPtr(a.ID),
			SplitPercent: percent,
			SplitAmount:  amount,
		})
	}
	return rows
}

// Update changes one field of rows[index] and recomputes its counterpart.
// Sibling rows are never rebalanced.
func Update(rows []Split, index int, field, value string, commissionAmount decimal.Decimal) ([]Split, error) {
	if index < 0 || index >= len(rows) {
		return rows, ErrRowOutOfRange
	}
	out := clone(rows)
	row := &out[index]

	switch field {
	case FieldAgentName:
		row.AgentName = value
		row.AgentID = nil
	case FieldSplitPercent:
		percent, err := parse(value)
		if err != nil {
			return rows, err
		}
		row.SplitPercent = percent
		row.SplitAmount = commission.AmountOf(commissionAmount, percent)
	case FieldSplitAmount:
		amount, err := parse(value)
		if err != nil {
			return rows, err
		}
		row.SplitAmount = amount
		row.SplitPercent = commission.PercentOf(commissionAmount, amount)
	default:
		return rows, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return out, nil
}

// Add appends an empty row.
func Add(rows []Split) []Split {
	return append(clone(rows), Split{SplitPercent: decimal.Zero, SplitAmount: decimal.Zero})
}

// Remove drops rows[index]. The last remaining row cannot be removed.
func Remove(rows []Split, index int) ([]Split, error) {
	if index < 0 || index >= len(rows) {
		return rows, ErrRowOutOfRange
	}
	if len(rows) == 1 {
		return rows, ErrLastRow
	}
	out := make([]Split, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	return out, nil
}

// Reconcile prepares rows for persistence: blank recipients are dropped and
// an under-allocated total is topped up to 100% with an Unassigned row.
// Over-allocation is handled according to policy.
func Reconcile(rows []Split, commissionAmount decimal.Decimal, policy Policy) ([]Split, error) {
	out := make([]Split, 0, len(rows)+1)
	for _, r := range rows {
		if strings.TrimSpace(r.AgentName) == "" {
			continue
		}
		out = append(out, r)
	}

	total := totalPercent(out)
	switch total.Cmp(commission.Hundred()) {
	case -1:
		remainder := commission.Round(commission.Hundred().Sub(total))
		out = append(out, Split{
			AgentName:    UnassignedName,
			SplitPercent: remainder,
			SplitAmount:  commission.AmountOf(commissionAmount, remainder),
		})
	case 1:
		if policy != PolicyPassthrough {
			return nil, fmt.Errorf("%w: total %s%%", ErrOverAllocated, total)
		}
	}
	return out, nil
}

// Summarize totals rows and flags anything that does not add up to 100%.
func Summarize(rows []Split) Summary {
	s := Summary{
		TotalPercent: totalPercent(rows),
		TotalAmount:  decimal.Zero,
	}
	for _, r := range rows {
		s.TotalAmount = s.TotalAmount.Add(r.SplitAmount)
	}
	s.Balanced = s.TotalPercent.Equal(commission.Hundred())
	if !s.Balanced {
		s.Warning = fmt.Sprintf("split percentages total %s%%, expected 100%%", s.TotalPercent.StringFixed(commission.Places))
	}
	return s
}

// HasUnassigned reports whether rows contain the synthetic remainder row.
func HasUnassigned(rows []Split) (Split, bool) {
	for _, r := range rows {
		if r.AgentName == UnassignedName && r.AgentID == nil {
			return r, true
		}
	}
	return Split{}, false
}

func totalPercent(rows []Split) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.SplitPercent)
	}
	return total
}

func dedupe(agents []Recipient) []Recipient {
	seen := make(map[uint]bool, len(agents))
	out := make([]Recipient, 0, len(agents))
	for _, a := range agents {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

func parse(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	return d, nil
}

func clone(rows []Split) []Split {
	out := make([]Split, len(rows))
	copy(out, rows)
	return out
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
