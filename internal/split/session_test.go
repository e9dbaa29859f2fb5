package split

import (
	"errors"
	"testing"
)

func newTestDraft() *Draft {
	return NewDraft(1, 1, d("1000"), []Split{
		{AgentName: "Ana", SplitPercent: d("50"), SplitAmount: d("500")},
		{AgentName: "Bruno", SplitPercent: d("50"), SplitAmount: d("500")},
	})
}

func TestDraft_EditAndCancel(t *testing.T) {
	dr := newTestDraft()

	if err := dr.BeginEdit(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.States[0] != StateEditing || dr.Editing != 0 || dr.Backup == nil {
		t.Fatalf("unexpected state %+v", dr)
	}
	if err := dr.BeginEdit(1); !errors.Is(err, ErrAlreadyEditing) {
		t.Errorf("expected ErrAlreadyEditing, got %v", err)
	}

	if err := dr.Update(0, FieldSplitPercent, "20"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dr.Rows[0].SplitAmount.Equal(d("200")) {
		t.Errorf("expected 200, got %s", dr.Rows[0].SplitAmount)
	}

	if err := dr.CancelEdit(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dr.Rows[0].SplitPercent.Equal(d("50")) || !dr.Rows[0].SplitAmount.Equal(d("500")) {
		t.Errorf("cancel must restore the backup, got %+v", dr.Rows[0])
	}
	if dr.States[0] != StateViewing || dr.Editing != -1 || dr.Backup != nil {
		t.Errorf("expected viewing after cancel, got %+v", dr)
	}
	if err := dr.CancelEdit(0); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
}

func TestDraft_UpdateRequiresEditing(t *testing.T) {
	dr := newTestDraft()

	if err := dr.Update(1, FieldSplitPercent, "90"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing on a viewing row, got %v", err)
	}
	if err := dr.Update(5, FieldSplitPercent, "90"); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}

	_ = dr.BeginEdit(0)
	if err := dr.Update(1, FieldSplitPercent, "10"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing on a sibling row, got %v", err)
	}
	_ = dr.CancelEdit(0)

	for i, r := range dr.Rows {
		if !r.SplitPercent.Equal(d("50")) {
			t.Errorf("row %d changed without an edit: %s", i, r.SplitPercent)
		}
	}
	for i, st := range dr.States {
		if st != StateViewing {
			t.Errorf("row %d: expected viewing, got %s", i, st)
		}
	}
}

func TestDraft_LockedIsReadOnly(t *testing.T) {
	dr := newTestDraft()
	dr.Locked = true

	checks := map[string]error{
		"add":    dr.Add(),
		"remove": dr.Remove(0),
		"update": dr.Update(0, FieldSplitPercent, "10"),
		"edit":   dr.BeginEdit(0),
		"save":   dr.BeginSave(),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrScheduleLocked) {
			t.Errorf("%s: expected ErrScheduleLocked, got %v", name, err)
		}
	}
	if len(dr.Rows) != 2 || !dr.Rows[0].SplitPercent.Equal(d("50")) {
		t.Errorf("locked draft was modified: %+v", dr.Rows)
	}
}

func TestDraft_SaveInFlight(t *testing.T) {
	dr := newTestDraft()
	if err := dr.BeginSave(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range dr.States {
		if s != StateSaving {
			t.Fatalf("expected saving states, got %v", dr.States)
		}
	}
	if err := dr.BeginSave(); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("expected ErrSaveInFlight on a second save, got %v", err)
	}
	if err := dr.Add(); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("expected ErrSaveInFlight on add, got %v", err)
	}
}

func TestDraft_FinishSave(t *testing.T) {
	dr := newTestDraft()
	_ = dr.BeginEdit(1)
	_ = dr.Update(1, FieldSplitPercent, "30")
	_ = dr.BeginSave()

	dr.FinishSave(nil, false)
	if dr.Saving {
		t.Error("saving flag must clear on failure")
	}
	if dr.States[1] != StateEditing || dr.Editing != 1 {
		t.Errorf("failed save must return the row to editing, got %v", dr.States)
	}
	if !dr.Rows[1].SplitPercent.Equal(d("30")) {
		t.Errorf("failed save must keep edits, got %s", dr.Rows[1].SplitPercent)
	}

	_ = dr.BeginSave()
	persisted := []Split{{AgentName: "Ana", SplitPercent: d("100"), SplitAmount: d("1000")}}
	dr.FinishSave(persisted, true)
	if len(dr.Rows) != 1 || dr.Editing != -1 || dr.Backup != nil || dr.States[0] != StateViewing {
		t.Errorf("unexpected draft after successful save: %+v", dr)
	}
}

func TestDraft_AddOpensNewRow(t *testing.T) {
	dr := newTestDraft()
	if err := dr.Add(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Editing != 2 || dr.States[2] != StateEditing {
		t.Errorf("expected new row in editing, got %v", dr.States)
	}

	// A second add leaves the open row alone.
	_ = dr.Add()
	if dr.Editing != 2 || dr.States[3] != StateViewing {
		t.Errorf("unexpected states %v", dr.States)
	}
}

func TestDraft_RemoveKeepsEditingIndex(t *testing.T) {
	dr := newTestDraft()
	_ = dr.Add()
	_ = dr.CancelEdit(2)
	_ = dr.BeginEdit(2)

	if err := dr.Remove(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Editing != 1 || dr.States[1] != StateEditing || len(dr.States) != 2 {
		t.Errorf("editing index not shifted: editing=%d states=%v", dr.Editing, dr.States)
	}

	if err := dr.Remove(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Editing != -1 || dr.Backup != nil {
		t.Errorf("removing the edited row must end the edit, got %+v", dr)
	}
	if err := dr.Remove(0); !errors.Is(err, ErrLastRow) {
		t.Errorf("expected ErrLastRow, got %v", err)
	}
}
