package talent

import (
	"context"
	"errors"
	"strings"

	"github.com/dealdesk/api-deals/internal/agent"
	"gorm.io/gorm"
)

var ErrUnknownAgent = errors.New("one or more agents do not exist")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, t *TalentClient) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repository) List(ctx context.Context, q string) ([]TalentClient, error) {
	list := []TalentClient{}
	db := r.DB.WithContext(ctx).Preload("Agents").Order("name ASC")
	if q = strings.TrimSpace(q); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	err := db.Find(&list).Error
	return list, err
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*TalentClient, error) {
	var t TalentClient
	if err := r.DB.WithContext(ctx).Preload("Agents").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindMany loads talents by ID; a missing ID is reported as ErrRecordNotFound.
func (r *Repository) FindMany(ctx context.Context, ids []uint) ([]TalentClient, error) {
	list := []TalentClient{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) != len(Unique(ids)) {
		return nil, gorm.ErrRecordNotFound
	}
	return list, nil
}

// ReplaceAgents sets the talent's agents to exactly agentIDs.
func (r *Repository) ReplaceAgents(ctx context.Context, id uint, agentIDs []uint) (*TalentClient, error) {
	agentIDs = Unique(agentIDs)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t TalentClient
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		agents := []agent.Agent{}
		if len(agentIDs) > 0 {
			if err := tx.Where("id IN ?", agentIDs).Find(&agents).Error; err != nil {
				return err
			}
			if len(agents) != len(agentIDs) {
				return ErrUnknownAgent
			}
		}
		return tx.Model(&t).Association("Agents").Replace(agents)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Unique drops zero and repeated IDs, keeping first-seen order.
func Unique(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
