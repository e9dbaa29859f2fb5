// internal/split/session.go
package split

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RowState is the edit state of a single split row.
type RowState string

const (
	StateViewing RowState = "viewing"
	StateEditing RowState = "editing"
	StateSaving  RowState = "saving"
)

var (
	ErrAlreadyEditing = errors.New("another split row is being edited")
	ErrNotEditing     = errors.New("split row is not being edited")
	ErrSaveInFlight   = errors.New("splits are being saved")
)

// Draft is the working copy of one schedule's splits inside an edit session.
// States runs parallel to Rows.
type Draft struct {
	ScheduleID       uint            `json:"scheduleId"`
	DealID           uint            `json:"dealId"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	Locked           bool            `json:"locked"`
	Rows             []Split         `json:"rows"`
	States           []RowState      `json:"states"`
	Editing          int             `json:"editing"`
	Backup           *Split          `json:"backup,omitempty"`
	Saving           bool            `json:"saving"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewDraft wraps rows in a draft with every row in the viewing state.
func NewDraft(scheduleID, dealID uint, commissionAmount decimal.Decimal, rows []Split) *Draft {
	d := &Draft{
		ScheduleID:       scheduleID,
		DealID:           dealID,
		CommissionAmount: commissionAmount,
		Rows:             rows,
		Editing:          -1,
		UpdatedAt:        time.Now(),
	}
	d.resetStates()
	return d
}

// Summary totals the draft rows.
func (d *Draft) Summary() Summary {
	return Summarize(d.Rows)
}

func (d *Draft) resetStates() {
	d.States = make([]RowState, len(d.Rows))
	for i := range d.States {
		d.States[i] = StateViewing
	}
	d.Editing = -1
	d.Backup = nil
}

func (d *Draft) guard() error {
	if d.Locked {
		return ErrScheduleLocked
	}
	if d.Saving {
		return ErrSaveInFlight
	}
	return nil
}

// BeginEdit moves rows[i] from viewing to editing and keeps a backup copy.
func (d *Draft) BeginEdit(i int) error {
	if err := d.guard(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Rows) {
		return ErrRowOutOfRange
	}
	if d.Editing == i {
		return nil
	}
	if d.Editing >= 0 {
		return ErrAlreadyEditing
	}
	backup := d.Rows[i]
	d.Backup = &backup
	d.Editing = i
	d.States[i] = StateEditing
	d.touch()
	return nil
}

// CancelEdit restores rows[i] from its backup.
func (d *Draft) CancelEdit(i int) error {
	if d.Saving {
		return ErrSaveInFlight
	}
	if i < 0 || i >= len(d.Rows) || d.Editing != i {
		return ErrNotEditing
	}
	if d.Backup != nil {
		d.Rows[i] = *d.Backup
	}
	d.States[i] = StateViewing
	d.Editing = -1
	d.Backup = nil
	d.touch()
	return nil
}

// Update applies a field edit to rows[i], which must be the row in editing.
func (d *Draft) Update(i int, field, value string) error {
	if err := d.guard(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Rows) {
		return ErrRowOutOfRange
	}
	if d.Editing != i {
		return ErrNotEditing
	}
	rows, err := Update(d.Rows, i, field, value, d.CommissionAmount)
	if err != nil {
		return err
	}
	d.Rows = rows
	d.touch()
	return nil
}

// Add appends an empty row and opens it for editing when no other row is.
func (d *Draft) Add() error {
	if err := d.guard(); err != nil {
		return err
	}
	d.Rows = Add(d.Rows)
	d.States = append(d.States, StateViewing)
	if d.Editing < 0 {
		last := len(d.Rows) - 1
		backup := d.Rows[last]
		d.Backup = &backup
		d.Editing = last
		d.States[last] = StateEditing
	}
	d.touch()
	return nil
}

// Remove drops rows[i], keeping the editing index pointed at the same row.
func (d *Draft) Remove(i int) error {
	if err := d.guard(); err != nil {
		return err
	}
	rows, err := Remove(d.Rows, i)
	if err != nil {
		return err
	}
	d.Rows = rows
	d.States = append(d.States[:i:i], d.States[i+1:]...)
	switch {
	case d.Editing == i:
		d.Editing = -1
		d.Backup = nil
	case d.Editing > i:
		d.Editing--
	}
	d.touch()
	return nil
}

// BeginSave marks the draft as saving. A second save while one is in flight
// is refused.
func (d *Draft) BeginSave() error {
	if err := d.guard(); err != nil {
		return err
	}
	d.Saving = true
	for i := range d.States {
		d.States[i] = StateSaving
	}
	d.touch()
	return nil
}

// FinishSave ends a save. On success the draft takes the persisted rows and
// returns to viewing; on failure the edited rows are kept and the row that
// was being edited goes back to editing so the save can be retried.
func (d *Draft) FinishSave(persisted []Split, ok bool) {
	d.Saving = false
	if ok {
		d.Rows = persisted
		d.resetStates()
		d.touch()
		return
	}
	for i := range d.States {
		d.States[i] = StateViewing
	}
	if d.Editing >= 0 && d.Editing < len(d.States) {
		d.States[d.Editing] = StateEditing
	}
	d.touch()
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now()
}
