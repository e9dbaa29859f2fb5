package deal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrBrandRequired = errors.New("brandId is required")
	ErrInvalidDate   = errors.New("invalid date")
	ErrDateOrder     = errors.New("contract end date is before start date")
)

type CreateRequest struct {
	Name              string  `json:"name"`
	BrandID           uint    `json:"brandId"`
	Stage             string  `json:"stage"`
	Industry          string  `json:"industry"`
	OwnerID           *uint   `json:"ownerId"`
	OwnerCostCenter   string  `json:"ownerCostCenter"`
	CompanyReference  string  `json:"companyReference"`
	ClmContractNumber string  `json:"clmContractNumber"`
	ContractStartDate *string `json:"contractStartDate"`
	ContractEndDate   *string `json:"contractEndDate"`
	TalentIDs         []uint  `json:"talentIds"`
}

// UpdateRequest is a partial update: nil fields are left alone and an empty
// date string clears the date.
type UpdateRequest struct {
	Name              *string `json:"name"`
	Stage             *string `json:"stage"`
	Industry          *string `json:"industry"`
	OwnerID           *uint   `json:"ownerId"`
	OwnerCostCenter   *string `json:"ownerCostCenter"`
	CompanyReference  *string `json:"companyReference"`
	ClmContractNumber *string `json:"clmContractNumber"`
	ContractStartDate *string `json:"contractStartDate"`
	ContractEndDate   *string `json:"contractEndDate"`
}

type TalentsRequest struct {
	TalentIDs []uint `json:"talentIds"`
}

// NewFromRequest validates a create request and builds the deal.
func NewFromRequest(in CreateRequest) (*Deal, error) {
	d := &Deal{
		Name:              strings.TrimSpace(in.Name),
		BrandID:           in.BrandID,
		Stage:             strings.TrimSpace(in.Stage),
		Industry:          strings.TrimSpace(in.Industry),
		OwnerID:           in.OwnerID,
		OwnerCostCenter:   strings.TrimSpace(in.OwnerCostCenter),
		CompanyReference:  strings.TrimSpace(in.CompanyReference),
		ClmContractNumber: strings.TrimSpace(in.ClmContractNumber),
	}
	if d.Name == "" {
		return nil, ErrNameRequired
	}
	if d.BrandID == 0 {
		return nil, ErrBrandRequired
	}
	if d.Stage == "" {
		d.Stage = StageProspect
	}
	var err error
	if d.ContractStartDate, err = optionalDate(in.ContractStartDate); err != nil {
		return nil, err
	}
	if d.ContractEndDate, err = optionalDate(in.ContractEndDate); err != nil {
		return nil, err
	}
	if err := checkDates(d); err != nil {
		return nil, err
	}
	return d, nil
}

// StageProspect is the stage of a freshly created deal.
const StageProspect = "prospect"

// Apply merges a partial update into d and returns the JSON names of the
// fields that changed. d is left untouched on error.
func Apply(d *Deal, in UpdateRequest) ([]string, error) {
	next := *d
	changed := []string{}

	setString := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		s := strings.TrimSpace(*v)
		if s != *dst {
			*dst = s
			changed = append(changed, field)
		}
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrNameRequired
	}
	setString("name", &next.Name, in.Name)
	setString("stage", &next.Stage, in.Stage)
	setString("industry", &next.Industry, in.Industry)
	setString("ownerCostCenter", &next.OwnerCostCenter, in.OwnerCostCenter)
	setString("companyReference", &next.CompanyReference, in.CompanyReference)
	setString("clmContractNumber", &next.ClmContractNumber, in.ClmContractNumber)

	if in.OwnerID != nil && (next.OwnerID == nil || *next.OwnerID != *in.OwnerID) {
		id := *in.OwnerID
		next.OwnerID = &id
		next.Owner = nil
		changed = append(changed, "ownerId")
	}

	if in.ContractStartDate != nil {
		t, err := optionalDate(in.ContractStartDate)
		if err != nil {
			return nil, err
		}
		if !sameDate(next.ContractStartDate, t) {
			next.ContractStartDate = t
			changed = append(changed, "contractStartDate")
		}
	}
	if in.ContractEndDate != nil {
		t, err := optionalDate(in.ContractEndDate)
		if err != nil {
			return nil, err
		}
		if !sameDate(next.ContractEndDate, t) {
			next.ContractEndDate = t
			changed = append(changed, "contractEndDate")
		}
	}
	if err := checkDates(&next); err != nil {
		return nil, err
	}

	*d = next
	return changed, nil
}

func optionalDate(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return &t, nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func checkDates(d *Deal) error {
	if d.ContractStartDate != nil && d.ContractEndDate != nil && d.ContractEndDate.Before(*d.ContractStartDate) {
		return ErrDateOrder
	}
	return nil
}
