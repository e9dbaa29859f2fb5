package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealdesk/api-deals/internal/split"
	"github.com/shopspring/decimal"
)

// table is the renderer-neutral shape of one export section.
type table struct {
	Title  string
	Header []string
	Rows   [][]string
}

const na = "N/A"

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func percent(d decimal.Decimal) string { return d.StringFixed(2) + "%" }

func day(t *time.Time) string {
	if t == nil {
		return na
	}
	return t.Format("2006-01-02")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

func buildTables(ds *Dataset, req *Request) []table {
	out := make([]table, 0, len(req.Sections))
	for _, s := range req.Sections {
		switch s {
		case SectionOverview:
			out = append(out, overviewTable(ds))
		case SectionProducts:
			out = append(out, productsTable(ds))
		case SectionSchedules:
			out = append(out, schedulesTable(ds))
		case SectionSplits:
			out = append(out, splitsTable(ds))
		case SectionNotes:
			out = append(out, notesTable(ds))
		}
	}
	return out
}

func overviewTable(ds *Dataset) table {
	d := ds.Deal
	brandName, owner := na, na
	if d.Brand != nil {
		brandName = d.Brand.Name
	}
	if d.Owner != nil {
		owner = d.Owner.Name
	}
	talents := make([]string, 0, len(d.Talents))
	for _, t := range d.Talents {
		talents = append(talents, t.Name)
	}
	return table{
		Title:  "Deal Overview",
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Deal", d.Name},
			{"Brand", brandName},
			{"Stage", orNA(d.Stage)},
			{"Industry", orNA(d.Industry)},
			{"Owner", owner},
			{"Owner Cost Center", orNA(d.OwnerCostCenter)},
			{"Company Reference", orNA(d.CompanyReference)},
			{"CLM Contract Number", orNA(d.ClmContractNumber)},
			{"Contract Start", day(d.ContractStartDate)},
			{"Contract End", day(d.ContractEndDate)},
			{"Talents", orNA(strings.Join(talents, ", "))},
			{"Total Revenue", money(d.Totals.Revenue)},
			{"Total Commission", money(d.Totals.Commission)},
			{"Total Talent", money(d.Totals.Talent)},
		},
	}
}

func productsTable(ds *Dataset) table {
	t := table{
		Title:  "Products",
		Header: []string{"Product", "Type", "Schedules", "Revenue", "Commission", "Talent"},
	}
	for _, p := range ds.Deal.Products {
		t.Rows = append(t.Rows, []string{
			p.Name, orNA(p.Type), fmt.Sprint(len(p.Schedules)),
			money(p.TotalRevenue), money(p.TotalCommission), money(p.TotalTalent),
		})
	}
	return t
}

func schedulesTable(ds *Dataset) table {
	t := table{
		Title:  "Payment Schedules",
		Header: []string{"Product", "Description", "Due Date", "Revenue", "Split %", "Talent", "Commission", "Invoice", "Status"},
	}
	for _, p := range ds.Deal.Products {
		for _, s := range p.Schedules {
			t.Rows = append(t.Rows, []string{
				p.Name, orNA(s.Description), day(s.DueDate),
				money(s.Revenue), percent(s.SplitPercent), money(s.TalentAmount), money(s.CommissionAmount),
				orNA(s.InvoiceID), string(s.Status()),
			})
		}
	}
	return t
}

func splitsTable(ds *Dataset) table {
	t := table{
		Title:  "Commission Splits",
		Header: []string{"Product", "Schedule", "Agent", "Split %", "Amount"},
	}
	for _, p := range ds.Deal.Products {
		for _, s := range p.Schedules {
			rows := ds.Splits[s.ID]
			label := orNA(s.Description)
			if s.DueDate != nil {
				label = fmt.Sprintf("%s (%s)", label, day(s.DueDate))
			}
			for _, r := range rows {
				t.Rows = append(t.Rows, []string{p.Name, label, orNA(r.AgentName), percent(r.SplitPercent), money(r.SplitAmount)})
			}
			if len(rows) > 0 {
				if sum := split.Summarize(rows); !sum.Balanced {
					t.Rows = append(t.Rows, []string{p.Name, label, "Warning", percent(sum.TotalPercent), money(sum.TotalAmount)})
				}
			}
		}
	}
	return t
}

func notesTable(ds *Dataset) table {
	t := table{
		Title:  "Notes",
		Header: []string{"Date", "Author", "Title", "Content"},
	}
	for _, n := range ds.Notes {
		created := n.CreatedAt
		t.Rows = append(t.Rows, []string{day(&created), orNA(n.AuthorName), n.Title, n.Content})
	}
	return t
}
