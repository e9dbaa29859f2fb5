package deal

import (
	"time"

	"github.com/dealdesk/api-deals/internal/agent"
	"github.com/dealdesk/api-deals/internal/brand"
	"github.com/dealdesk/api-deals/internal/product"
	"github.com/dealdesk/api-deals/internal/talent"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deal is a brand engagement for one or more talents.
type Deal struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	Name              string                `gorm:"size:255;not null;index" json:"name"`
	BrandID           uint                  `gorm:"not null;index" json:"brandId"`
	Brand             *brand.Brand          `json:"brand,omitempty"`
	Stage             string                `gorm:"size:50;index" json:"stage"`
	Industry          string                `gorm:"size:100" json:"industry"`
	OwnerID           *uint                 `gorm:"index" json:"ownerId"`
	Owner             *agent.Agent          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	OwnerCostCenter   string                `gorm:"size:100" json:"ownerCostCenter"`
	CompanyReference  string                `gorm:"size:100" json:"companyReference"`
	ClmContractNumber string                `gorm:"size:100" json:"clmContractNumber"`
	ContractStartDate *time.Time            `json:"contractStartDate"`
	ContractEndDate   *time.Time            `json:"contractEndDate"`
	Talents           []talent.TalentClient `gorm:"many2many:deal_talents" json:"talents"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Totals sums the money of every schedule of the deal.
type Totals struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Commission decimal.Decimal `json:"commission"`
	Talent     decimal.Decimal `json:"talent"`
}

// Detail is the deal page payload.
type Detail struct {
	Deal
	Products []product.Product `json:"products"`
	Totals   Totals            `json:"totals"`
}

func newDetail(d *Deal, products []product.Product) *Detail {
	if products == nil {
		products = []product.Product{}
	}
	if d.Talents == nil {
		d.Talents = []talent.TalentClient{}
	}
	t := Totals{Revenue: decimal.Zero, Commission: decimal.Zero, Talent: decimal.Zero}
	for _, p := range products {
		t.Revenue = t.Revenue.Add(p.TotalRevenue)
		t.Commission = t.Commission.Add(p.TotalCommission)
		t.Talent = t.Talent.Add(p.TotalTalent)
	}
	return &Detail{Deal: *d, Products: products, Totals: t}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{})
}
