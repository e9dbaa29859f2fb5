package search

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
)

const (
	TypeTalent = "talent"
	TypeBrand  = "brand"
	TypeAgent  = "agent"
	TypeDeal   = "deal"
)

// PerTypeLimit caps the results of each entity type.
const PerTypeLimit = 10

// Result is one hit; Type tells the client which page to link to.
type Result struct {
	Type     string `json:"type"`
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
}

// Query holds lowercased search terms.
type Query struct {
	Text            string
	CostCenter      string
	CostCenterGroup string
}

func (q Query) Empty() bool {
	return q.Text == "" && q.CostCenter == "" && q.CostCenterGroup == ""
}

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

type tableQuery struct {
	typ      string
	table    string
	subtitle string
	// group is false for tables without a cost center group column.
	group      bool
	costCenter string
	softDelete bool
}

var tableQueries = []tableQuery{
	{TypeTalent, "talent_clients", "COALESCE(category, '')", true, "cost_center", false},
	{TypeBrand, "brands", "COALESCE(industry, '')", false, "cost_center", false},
	{TypeAgent, "agents", "TRIM(COALESCE(title, '') || ' ' || COALESCE(agency, ''))", true, "cost_center", true},
	{TypeDeal, "deals", "COALESCE(stage, '')", false, "owner_cost_center", true},
}

// Search looks across talents, brands, agents and deals. A cost center group
// filter skips the types that have no group.
func (r *Repository) Search(ctx context.Context, q Query) ([]Result, error) {
	groups := make([][]Result, 0, len(tableQueries))
	for _, s := range tableQueries {
		if q.CostCenterGroup != "" && !s.group {
			continue
		}
		db := r.DB.WithContext(ctx).Table(s.table).
			Select("? AS type, id, name, "+s.subtitle+" AS subtitle", s.typ)
		if q.Text != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Text)+"%")
		}
		if q.CostCenter != "" {
			db = db.Where("LOWER("+s.costCenter+") = ?", q.CostCenter)
		}
		if q.CostCenterGroup != "" {
			db = db.Where("LOWER(cost_center_group) = ?", q.CostCenterGroup)
		}
		if s.softDelete {
			db = db.Where("deleted_at IS NULL")
		}
		var found []Result
		if err := db.Order("name ASC").Limit(PerTypeLimit).Scan(&found).Error; err != nil {
			return nil, err
		}
		groups = append(groups, found)
	}
	return Merge(q.Text, groups...), nil
}

// Merge flattens per-type results; names starting with text sort first,
// then by name.
func Merge(text string, groups ...[]Result) []Result {
	out := []Result{}
	for _, g := range groups {
		out = append(out, g...)
	}
	text = strings.ToLower(text)
	sort.SliceStable(out, func(i, j int) bool {
		pi := text != "" && strings.HasPrefix(strings.ToLower(out[i].Name), text)
		pj := text != "" && strings.HasPrefix(strings.ToLower(out[j].Name), text)
		if pi != pj {
			return pi
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
