package split

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInitialize_EqualShares(t *testing.T) {
	agents := []Recipient{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bruno"}, {ID: 3, Name: "Carla"}}
	rows := Initialize(d("300"), agents, Recipient{ID: 9, Name: "Owner"})

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if !r.SplitPercent.Equal(d("33.33")) {
			t.Errorf("%s: expected 33.33%%, got %s", r.AgentName, r.SplitPercent)
		}
		if !r.SplitAmount.Equal(d("99.99")) {
			t.Errorf("%s: expected 99.99, got %s", r.AgentName, r.SplitAmount)
		}
		if r.AgentID == nil {
			t.Errorf("%s: expected agent id", r.AgentName)
		}
	}

	sum := Summarize(rows)
	if sum.Balanced || sum.Warning == "" {
		t.Errorf("99.99%% must be flagged, got %+v", sum)
	}
}

func TestInitialize_DedupesAgents(t *testing.T) {
	agents := []Recipient{{ID: 1, Name: "Ana"}, {ID: 1, Name: "Ana"}, {ID: 2, Name: "Bruno"}}
	rows := Initialize(d("1000"), agents, Recipient{})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].SplitPercent.Equal(d("50")) || !rows[0].SplitAmount.Equal(d("500")) {
		t.Errorf("unexpected row %+v", rows[0])
	}
}

func TestInitialize_FallsBackToOwner(t *testing.T) {
	rows := Initialize(d("250"), nil, Recipient{ID: 4, Name: "Dana"})

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.AgentName != "Dana" || r.AgentID == nil || *r.AgentID != 4 {
		t.Errorf("expected owner row, got %+v", r)
	}
	if !r.SplitPercent.Equal(d("100")) || !r.SplitAmount.Equal(d("250")) {
		t.Errorf("expected 100%% / 250, got %s / %s", r.SplitPercent, r.SplitAmount)
	}
	if !Summarize(rows).Balanced {
		t.Error("owner row must balance")
	}
}

func TestUpdate_Percent(t *testing.T) {
	rows := []Split{{AgentName: "Ana"}, {AgentName: "Bruno", SplitPercent: d("10"), SplitAmount: d("100")}}

	got, err := Update(rows, 0, FieldSplitPercent, "25", d("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].SplitAmount.Equal(d("250")) {
		t.Errorf("expected 250, got %s", got[0].SplitAmount)
	}
	if !got[1].SplitPercent.Equal(d("10")) || !got[1].SplitAmount.Equal(d("100")) {
		t.Errorf("sibling row changed: %+v", got[1])
	}
	if !rows[0].SplitAmount.IsZero() {
		t.Error("input rows were mutated")
	}
}

func TestUpdate_AmountRoundTrip(t *testing.T) {
	rows := []Split{{AgentName: "Ana"}}

	got, err := Update(rows, 0, FieldSplitAmount, "125", d("500"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].SplitPercent.Equal(d("25")) {
		t.Fatalf("expected 25%%, got %s", got[0].SplitPercent)
	}

	again, _ := Update(got, 0, FieldSplitPercent, got[0].SplitPercent.String(), d("500"))
	if !again[0].SplitAmount.Equal(d("125")) {
		t.Errorf("expected 125 after round trip, got %s", again[0].SplitAmount)
	}
}

func TestUpdate_ZeroCommission(t *testing.T) {
	rows := []Split{{AgentName: "Ana"}}
	for _, amount := range []string{"0", "50", "1234.56"} {
		got, err := Update(rows, 0, FieldSplitAmount, amount, decimal.Zero)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got[0].SplitPercent.IsZero() {
			t.Errorf("amount %s: expected 0%%, got %s", amount, got[0].SplitPercent)
		}
	}
}

func TestUpdate_NameClearsAgentID(t *testing.T) {
	id := uint(3)
	rows := []Split{{AgentName: "Ana", AgentID: &id, SplitPercent: d("40"), SplitAmount: d("40")}}

	got, err := Update(rows, 0, FieldAgentName, "Agency X", d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].AgentName != "Agency X" || got[0].AgentID != nil {
		t.Errorf("unexpected row %+v", got[0])
	}
	if !got[0].SplitAmount.Equal(d("40")) {
		t.Error("renaming must not recompute amounts")
	}
}

func TestUpdate_Errors(t *testing.T) {
	rows := []Split{{AgentName: "Ana"}}
	cases := []struct {
		index int
		field string
		value string
		want  error
	}{
		{1, FieldSplitPercent, "10", ErrRowOutOfRange},
		{-1, FieldSplitPercent, "10", ErrRowOutOfRange},
		{0, "agentEmail", "x", ErrUnknownField},
		{0, FieldSplitPercent, "ten", ErrInvalidValue},
		{0, FieldSplitAmount, "1,5", ErrInvalidValue},
	}
	for _, c := range cases {
		if _, err := Update(rows, c.index, c.field, c.value, d("100")); !errors.Is(err, c.want) {
			t.Errorf("%d/%s/%s: expected %v, got %v", c.index, c.field, c.value, c.want, err)
		}
	}
}

func TestAddRemove(t *testing.T) {
	rows := Add([]Split{{AgentName: "Ana", SplitPercent: d("100")}})
	if len(rows) != 2 || rows[1].AgentName != "" || !rows[1].SplitPercent.IsZero() {
		t.Fatalf("unexpected rows after add: %+v", rows)
	}

	rows, err := Remove(rows, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].AgentName != "" {
		t.Errorf("wrong row removed: %+v", rows)
	}

	if _, err := Remove(rows, 0); !errors.Is(err, ErrLastRow) {
		t.Errorf("expected ErrLastRow, got %v", err)
	}
	if _, err := Remove(rows, 4); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
}

func TestReconcile_AssignsRemainder(t *testing.T) {
	rows := []Split{
		{AgentName: "Ana", SplitPercent: d("40"), SplitAmount: d("400")},
		{AgentName: "Bruno", SplitPercent: d("30"), SplitAmount: d("300")},
	}
	got, err := Reconcile(rows, d("1000"), PolicyReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	un, ok := HasUnassigned(got)
	if !ok {
		t.Fatal("expected an Unassigned row")
	}
	if !un.SplitPercent.Equal(d("30")) || !un.SplitAmount.Equal(d("300")) || un.AgentID != nil {
		t.Errorf("unexpected remainder %+v", un)
	}
	if !Summarize(got).TotalPercent.Equal(d("100")) {
		t.Errorf("expected 100%% after reconcile, got %s", Summarize(got).TotalPercent)
	}
}

func TestReconcile_DropsBlankNames(t *testing.T) {
	rows := []Split{
		{AgentName: "Ana", SplitPercent: d("100"), SplitAmount: d("50")},
		{AgentName: "   ", SplitPercent: d("20"), SplitAmount: d("10")},
		{AgentName: ""},
	}
	got, err := Reconcile(rows, d("50"), PolicyReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].AgentName != "Ana" {
		t.Errorf("expected only Ana, got %+v", got)
	}
}

func TestReconcile_OverAllocation(t *testing.T) {
	rows := []Split{
		{AgentName: "Ana", SplitPercent: d("60"), SplitAmount: d("60")},
		{AgentName: "Bruno", SplitPercent: d("50"), SplitAmount: d("50")},
	}
	if _, err := Reconcile(rows, d("100"), PolicyReject); !errors.Is(err, ErrOverAllocated) {
		t.Errorf("expected ErrOverAllocated, got %v", err)
	}

	got, err := Reconcile(rows, d("100"), PolicyPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("passthrough must keep rows as-is, got %+v", got)
	}
	if _, ok := HasUnassigned(got); ok {
		t.Error("over-allocation must not add a remainder row")
	}
}

func TestReconcile_AllBlank(t *testing.T) {
	got, err := Reconcile([]Split{{AgentName: ""}}, d("80"), PolicyReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].AgentName != UnassignedName || !got[0].SplitAmount.Equal(d("80")) {
		t.Errorf("expected everything unassigned, got %+v", got)
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"":             PolicyReject,
		"reject":       PolicyReject,
		" Passthrough": PolicyPassthrough,
		"clamp":        PolicyReject,
	}
	for in, want := range cases {
		if got := ParsePolicy(in); got != want {
			t.Errorf("ParsePolicy(%q) = %s, want %s", in, got, want)
		}
	}
}
