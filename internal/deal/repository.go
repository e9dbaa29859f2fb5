package deal

import (
	"context"
	"errors"
	"strings"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/attachment"
	"github.com/dealdesk/api-deals/internal/note"
	"github.com/dealdesk/api-deals/internal/product"
	"github.com/dealdesk/api-deals/internal/talent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownBrand  = errors.New("brand does not exist")
	ErrUnknownOwner  = errors.New("owner does not exist")
	ErrUnknownTalent = errors.New("one or more talents do not exist")
)

// Filter narrows the deal list. Zero values match everything.
type Filter struct {
	Query   string
	Stage   string
	BrandID uint
	OwnerID uint
}

// updates maps the JSON names reported by Apply to column values.
func updates(d *Deal, changed []string) map[string]any {
	m := make(map[string]any, len(changed))
	for _, c := range changed {
		switch c {
		case "name":
			m["name"] = d.Name
		case "stage":
			m["stage"] = d.Stage
		case "industry":
			m["industry"] = d.Industry
		case "ownerId":
			m["owner_id"] = d.OwnerID
		case "ownerCostCenter":
			m["owner_cost_center"] = d.OwnerCostCenter
		case "companyReference":
			m["company_reference"] = d.CompanyReference
		case "clmContractNumber":
			m["clm_contract_number"] = d.ClmContractNumber
		case "contractStartDate":
			m["contract_start_date"] = d.ContractStartDate
		case "contractEndDate":
			m["contract_end_date"] = d.ContractEndDate
		}
	}
	return m
}

type Repository struct {
	DB       *gorm.DB
	Products *product.Repository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db, Products: product.NewRepository(db)}
}

func (r *Repository) exists(tx *gorm.DB, table string, id uint) (bool, error) {
	var n int64
	q := tx.Table(table).Where("id = ?", id)
	if table == "agents" {
		q = q.Where("deleted_at IS NULL")
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// Create stores the deal and attaches talentIDs in one transaction.
func (r *Repository) Create(ctx context.Context, d *Deal, talentIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := r.exists(tx, "brands", d.BrandID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownBrand
		}
		if d.OwnerID != nil {
			if ok, err = r.exists(tx, "agents", *d.OwnerID); err != nil {
				return err
			}
			if !ok {
				return ErrUnknownOwner
			}
		}
		talents, err := loadTalents(tx, talentIDs)
		if err != nil {
			return err
		}
		d.Talents = talents
		return tx.Omit("Talents.*").Create(d).Error
	})
}

func loadTalents(tx *gorm.DB, ids []uint) ([]talent.TalentClient, error) {
	ids = talent.Unique(ids)
	list := []talent.TalentClient{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) != len(ids) {
		return nil, ErrUnknownTalent
	}
	return list, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Deal, error) {
	list := []Deal{}
	db := r.DB.WithContext(ctx).Preload("Brand").Order("updated_at DESC, id DESC")
	if q := strings.TrimSpace(f.Query); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if f.Stage != "" {
		db = db.Where("stage = ?", f.Stage)
	}
	if f.BrandID != 0 {
		db = db.Where("brand_id = ?", f.BrandID)
	}
	if f.OwnerID != 0 {
		db = db.Where("owner_id = ?", f.OwnerID)
	}
	if err := db.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Deal, error) {
	var d Deal
	err := r.DB.WithContext(ctx).
		Preload("Brand").
		Preload("Owner").
		Preload("Talents.Agents").
		First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDetail loads the deal with its products, schedules and totals.
func (r *Repository) FindDetail(ctx context.Context, id uint) (*Detail, error) {
	d, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := r.Products.ListByDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	return newDetail(d, products), nil
}

// Update writes the named fields of d.
func (r *Repository) Update(ctx context.Context, d *Deal, changed []string) error {
	if len(changed) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if d.OwnerID != nil {
			ok, err := r.exists(tx, "agents", *d.OwnerID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnknownOwner
			}
		}
		return tx.Model(&Deal{ID: d.ID}).Updates(updates(d, changed)).Error
	})
}

// ReplaceTalents sets the deal's talents to exactly talentIDs.
func (r *Repository) ReplaceTalents(ctx context.Context, id uint, talentIDs []uint) (*Deal, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d Deal
		if err := tx.First(&d, id).Error; err != nil {
			return err
		}
		talents, err := loadTalents(tx, talentIDs)
		if err != nil {
			return err
		}
		return tx.Model(&d).Omit("Talents.*").Association("Talents").Replace(talents)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes the deal and everything hanging off it.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d Deal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error; err != nil {
			return err
		}
		var productIDs []uint
		if err := tx.Model(&product.Product{}).Where("deal_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if err := product.DeleteCascade(tx, productIDs); err != nil {
			return err
		}
		for _, model := range []any{&note.Note{}, &attachment.Attachment{}, &activity.Activity{}} {
			if err := tx.Where("deal_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&d).Association("Talents").Clear(); err != nil {
			return err
		}
		return tx.Delete(&d).Error
	})
}
