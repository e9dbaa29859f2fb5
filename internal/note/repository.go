package note

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Filter narrows a deal's notes. Zero values mean no restriction.
type Filter struct {
	From   *time.Time
	To     *time.Time
	Author string
}

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, n *Note) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*Note, error) {
	var n Note
	if err := r.DB.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByDeal returns the newest notes first.
func (r *Repository) ListByDeal(ctx context.Context, dealID uint, f Filter) ([]Note, error) {
	list := []Note{}
	db := r.DB.WithContext(ctx).Where("deal_id = ?", dealID)
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at <= ?", *f.To)
	}
	if a := strings.TrimSpace(f.Author); a != "" {
		db = db.Where("LOWER(author_name) LIKE ?", "%"+strings.ToLower(a)+"%")
	}
	err := db.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) Update(ctx context.Context, n *Note) error {
	return r.DB.WithContext(ctx).Model(&Note{}).Where("id = ?", n.ID).
		Updates(map[string]any{"title": n.Title, "content": n.Content}).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&Note{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AuthorName looks up the display name of an agent.
func (r *Repository) AuthorName(ctx context.Context, agentID uint) string {
	var name string
	_ = r.DB.WithContext(ctx).Table("agents").Select("name").Where("id = ?", agentID).Take(&name).Error
	return name
}
