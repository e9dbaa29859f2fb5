package export

import (
	"context"

	"github.com/dealdesk/api-deals/internal/deal"
	"github.com/dealdesk/api-deals/internal/note"
	"github.com/dealdesk/api-deals/internal/split"
)

// Dataset is everything a renderer may print for one deal.
type Dataset struct {
	Deal   *deal.Detail
	Splits map[uint][]split.Split
	Notes  []note.Note
}

// Source loads the dataset for a request.
type Source interface {
	Load(ctx context.Context, dealID uint, req *Request) (*Dataset, error)
}

// GormSource reads the dataset through the domain repositories.
type GormSource struct {
	Deals  *deal.Repository
	Splits *split.Repository
	Notes  *note.Repository
}

func (s *GormSource) Load(ctx context.Context, dealID uint, req *Request) (*Dataset, error) {
	detail, err := s.Deals.FindDetail(ctx, dealID)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Deal: detail, Splits: map[uint][]split.Split{}, Notes: []note.Note{}}

	if req.Has(SectionSplits) {
		for _, p := range detail.Products {
			for _, sc := range p.Schedules {
				rows, err := s.Splits.ListBySchedule(ctx, sc.ID)
				if err != nil {
					return nil, err
				}
				ds.Splits[sc.ID] = rows
			}
		}
	}

	if req.Has(SectionNotes) {
		from, to, err := req.Options.NotesRange()
		if err != nil {
			return nil, err
		}
		ds.Notes, err = s.Notes.ListByDeal(ctx, dealID, note.Filter{From: from, To: to, Author: req.Options.NotesAuthor})
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}
