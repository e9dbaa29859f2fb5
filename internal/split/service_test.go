package split

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu    sync.Mutex
	rows  map[uint][]Split
	err   error
	saves int
}

func (f *fakeRepo) ListBySchedule(_ context.Context, id uint) ([]Split, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.rows[id]), nil
}

func (f *fakeRepo) ReplaceForSchedule(_ context.Context, id uint, rows []Split) ([]Split, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saves++
	f.rows[id] = clone(rows)
	return clone(rows), nil
}

type fakeSource struct {
	targets map[uint]*Target
	agents  map[string]Recipient
}

func (f *fakeSource) LoadTarget(_ context.Context, id uint) (*Target, error) {
	t, ok := f.targets[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeSource) LookupAgent(_ context.Context, name string) (*Recipient, error) {
	a, ok := f.agents[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (f *fakeActivity) Record(_ context.Context, e activity.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

type fakeAlerter struct {
	calls   int
	percent decimal.Decimal
	amount  decimal.Decimal
}

func (f *fakeAlerter) UnassignedRemainder(_ context.Context, _, _ uint, percent, amount decimal.Decimal) {
	f.calls++
	f.percent, f.amount = percent, amount
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	source  *fakeSource
	act     *fakeActivity
	alerter *fakeAlerter
}

// newFixture has schedule 1 (open, 1000 commission, two agents), schedule 2
// (paid) and schedule 3 (open, no agents, owned by Dana).
func newFixture(policy Policy) *fixture {
	f := &fixture{
		repo: &fakeRepo{rows: map[uint][]Split{}},
		source: &fakeSource{
			targets: map[uint]*Target{
				1: {ScheduleID: 1, DealID: 10, CommissionAmount: d("1000"),
					Owner:  Recipient{ID: 9, Name: "Dana"},
					Agents: []Recipient{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bruno"}}},
				2: {ScheduleID: 2, DealID: 10, CommissionAmount: d("500"), Paid: true,
					Owner: Recipient{ID: 9, Name: "Dana"}},
				3: {ScheduleID: 3, DealID: 11, CommissionAmount: d("80"),
					Owner: Recipient{ID: 9, Name: "Dana"}},
			},
			agents: map[string]Recipient{"ana": {ID: 1, Name: "Ana"}, "carla": {ID: 3, Name: "Carla"}},
		},
		act:     &fakeActivity{},
		alerter: &fakeAlerter{},
	}
	f.svc = NewService(Options{
		Repo:     f.repo,
		Source:   f.source,
		Drafts:   NewMemoryStore(time.Hour),
		Policy:   policy,
		Activity: f.act,
		Alerter:  f.alerter,
	})
	return f
}

func key(id uint) DraftKey { return DraftKey{SessionID: "test", ScheduleID: id} }

func TestService_DraftInitializesFromAgents(t *testing.T) {
	f := newFixture(PolicyReject)
	dr, err := f.svc.Draft(context.Background(), key(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dr.Rows) != 2 || dr.Rows[0].AgentName != "Ana" || !dr.Rows[0].SplitAmount.Equal(d("500")) {
		t.Errorf("unexpected initial rows %+v", dr.Rows)
	}

	owner, _ := f.svc.Draft(context.Background(), key(3))
	if len(owner.Rows) != 1 || owner.Rows[0].AgentName != "Dana" || !owner.Rows[0].SplitAmount.Equal(d("80")) {
		t.Errorf("expected the owner fallback, got %+v", owner.Rows)
	}
}

func TestService_DraftPrefersCommittedRows(t *testing.T) {
	f := newFixture(PolicyReject)
	f.repo.rows[1] = []Split{{AgentName: "Carla", SplitPercent: d("100"), SplitAmount: d("1000")}}

	dr, err := f.svc.Draft(context.Background(), key(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dr.Rows) != 1 || dr.Rows[0].AgentName != "Carla" {
		t.Errorf("expected committed rows, got %+v", dr.Rows)
	}
}

func TestService_DraftPersistsAcrossCalls(t *testing.T) {
	f := newFixture(PolicyReject)
	ctx := context.Background()

	_, _ = f.svc.BeginEdit(ctx, key(1), 0)
	if _, err := f.svc.UpdateRow(ctx, key(1), 0, FieldSplitPercent, "70"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dr, _ := f.svc.Draft(ctx, key(1))
	if !dr.Rows[0].SplitAmount.Equal(d("700")) {
		t.Errorf("expected the edit to survive, got %s", dr.Rows[0].SplitAmount)
	}

	other, _ := f.svc.Draft(ctx, DraftKey{SessionID: "other", ScheduleID: 1})
	if !other.Rows[0].SplitAmount.Equal(d("500")) {
		t.Errorf("another session must not see the edit, got %s", other.Rows[0].SplitAmount)
	}

	_ = f.svc.Discard(ctx, key(1))
	fresh, _ := f.svc.Draft(ctx, key(1))
	if !fresh.Rows[0].SplitAmount.Equal(d("500")) {
		t.Errorf("discard must re-derive the draft, got %s", fresh.Rows[0].SplitAmount)
	}
}

func TestService_UpdateRowResolvesAgent(t *testing.T) {
	f := newFixture(PolicyReject)
	_, _ = f.svc.BeginEdit(context.Background(), key(1), 1)
	dr, err := f.svc.UpdateRow(context.Background(), key(1), 1, FieldAgentName, "carla")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Rows[1].AgentID == nil || *dr.Rows[1].AgentID != 3 {
		t.Errorf("expected agent id 3, got %v", dr.Rows[1].AgentID)
	}

	dr, _ = f.svc.UpdateRow(context.Background(), key(1), 1, FieldAgentName, "Outside Agency")
	if dr.Rows[1].AgentID != nil {
		t.Errorf("unknown names keep a nil agent id, got %v", *dr.Rows[1].AgentID)
	}
}

func TestService_CommitDraftBooksRemainder(t *testing.T) {
	f := newFixture(PolicyReject)
	ctx := context.Background()

	_, _ = f.svc.BeginEdit(ctx, key(1), 1)
	if _, err := f.svc.UpdateRow(ctx, key(1), 1, FieldSplitPercent, "20"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dr, err := f.svc.CommitDraft(ctx, key(1), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dr.Rows) != 3 || dr.Saving || dr.Editing != -1 {
		t.Fatalf("unexpected draft after commit %+v", dr)
	}
	un, ok := HasUnassigned(f.repo.rows[1])
	if !ok || !un.SplitPercent.Equal(d("30")) || !un.SplitAmount.Equal(d("300")) {
		t.Errorf("expected a 30%% / 300 remainder, got %+v", un)
	}
	if f.alerter.calls != 1 || !f.alerter.amount.Equal(d("300")) {
		t.Errorf("expected one alert for 300, got %+v", f.alerter)
	}
	if len(f.act.entries) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(f.act.entries))
	}
	e := f.act.entries[0]
	if e.Type != activity.TypeSplitsUpdated || e.DealID != 10 || e.ActorID != 42 {
		t.Errorf("unexpected activity %+v", e)
	}
}

func TestService_CommitFailureKeepsDraft(t *testing.T) {
	f := newFixture(PolicyReject)
	ctx := context.Background()
	f.repo.err = errors.New("connection reset")

	_, _ = f.svc.BeginEdit(ctx, key(1), 0)
	_, _ = f.svc.UpdateRow(ctx, key(1), 0, FieldAgentName, "Carla")

	dr, err := f.svc.CommitDraft(ctx, key(1), 1)
	if err == nil {
		t.Fatal("expected the repository error")
	}
	if dr == nil || dr.Saving || dr.States[0] != StateEditing {
		t.Fatalf("expected the draft back in editing, got %+v", dr)
	}

	f.repo.err = nil
	again, err := f.svc.Draft(ctx, key(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Rows[0].AgentName != "Carla" || again.Editing != 0 {
		t.Errorf("edits must survive a failed commit, got %+v", again.Rows[0])
	}

	if _, err := f.svc.CommitDraft(ctx, key(1), 1); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if f.repo.saves != 1 || f.alerter.calls != 0 {
		t.Errorf("expected one save and no alert, got saves=%d alerts=%d", f.repo.saves, f.alerter.calls)
	}
}

func TestService_PaidScheduleIsLocked(t *testing.T) {
	f := newFixture(PolicyReject)
	ctx := context.Background()

	dr, err := f.svc.Draft(ctx, key(2))
	if err != nil {
		t.Fatalf("reading a paid schedule must work: %v", err)
	}
	if !dr.Locked {
		t.Error("expected the draft to be locked")
	}
	if _, err := f.svc.AddRow(ctx, key(2)); !errors.Is(err, ErrScheduleLocked) {
		t.Errorf("expected ErrScheduleLocked on add, got %v", err)
	}
	if _, err := f.svc.CommitDraft(ctx, key(2), 1); !errors.Is(err, ErrScheduleLocked) {
		t.Errorf("expected ErrScheduleLocked on commit, got %v", err)
	}
	rows := []Split{{AgentName: "Ana", SplitPercent: d("100"), SplitAmount: d("500")}}
	if _, err := f.svc.CommitBatch(ctx, 2, 1, rows); !errors.Is(err, ErrScheduleLocked) {
		t.Errorf("expected ErrScheduleLocked on batch, got %v", err)
	}
	if f.repo.saves != 0 {
		t.Errorf("nothing may be saved for a paid schedule, got %d saves", f.repo.saves)
	}
}

func TestService_PaidBetweenLoadAndReplace(t *testing.T) {
	f := newFixture(PolicyReject)
	ctx := context.Background()
	f.repo.err = ErrScheduleLocked

	rows := []Split{{AgentName: "Ana", SplitPercent: d("100"), SplitAmount: d("1000")}}
	if _, err := f.svc.CommitBatch(ctx, 1, 1, rows); !errors.Is(err, ErrScheduleLocked) {
		t.Errorf("expected ErrScheduleLocked on batch, got %v", err)
	}

	dr, err := f.svc.CommitDraft(ctx, key(1), 1)
	if !errors.Is(err, ErrScheduleLocked) {
		t.Fatalf("expected ErrScheduleLocked on commit, got %v", err)
	}
	if !dr.Locked || dr.Saving {
		t.Errorf("expected a locked, idle draft, got %+v", dr)
	}
	if f.repo.saves != 0 || len(f.act.entries) != 0 {
		t.Errorf("nothing may be recorded, got saves=%d entries=%d", f.repo.saves, len(f.act.entries))
	}
}

func TestService_DraftLocksAreBounded(t *testing.T) {
	f := newFixture(PolicyReject)

	seen := map[*sync.Mutex]bool{}
	for i := 0; i < 5000; i++ {
		seen[f.svc.stripe(DraftKey{SessionID: fmt.Sprintf("s-%d", i), ScheduleID: uint(i)})] = true
	}
	if len(seen) > lockStripes {
		t.Errorf("expected at most %d locks, got %d", lockStripes, len(seen))
	}
	if f.svc.stripe(key(1)) != f.svc.stripe(key(1)) {
		t.Error("a key must always map to the same lock")
	}
}

func TestService_CommitBatch(t *testing.T) {
	f := newFixture(PolicyReject)
	rows := []Split{
		{AgentName: "ana", SplitPercent: d("50"), SplitAmount: d("500")},
		{AgentName: "", SplitPercent: d("10"), SplitAmount: d("100")},
		{AgentName: "Outside", SplitPercent: d("50"), SplitAmount: d("500")},
	}
	saved, err := f.svc.CommitBatch(context.Background(), 1, 5, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 rows, got %+v", saved)
	}
	if saved[0].AgentID == nil || *saved[0].AgentID != 1 {
		t.Errorf("expected ana to resolve to agent 1, got %v", saved[0].AgentID)
	}
	if saved[1].AgentID != nil {
		t.Error("unknown names keep a nil agent id")
	}
}

func TestService_OverAllocationPolicy(t *testing.T) {
	rows := []Split{
		{AgentName: "Ana", SplitPercent: d("80"), SplitAmount: d("800")},
		{AgentName: "Bruno", SplitPercent: d("30"), SplitAmount: d("300")},
	}

	reject := newFixture(PolicyReject)
	if _, err := reject.svc.CommitBatch(context.Background(), 1, 1, rows); !errors.Is(err, ErrOverAllocated) {
		t.Errorf("expected ErrOverAllocated, got %v", err)
	}
	if reject.repo.saves != 0 {
		t.Error("rejected commits must not be saved")
	}

	pass := newFixture(PolicyPassthrough)
	saved, err := pass.svc.CommitBatch(context.Background(), 1, 1, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Summarize(saved).TotalPercent.Equal(d("110")) {
		t.Errorf("passthrough must persist 110%%, got %s", Summarize(saved).TotalPercent)
	}
}

func TestService_UnknownSchedule(t *testing.T) {
	f := newFixture(PolicyReject)
	if _, err := f.svc.Draft(context.Background(), key(99)); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
	if _, _, err := f.svc.List(context.Background(), 99); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
}
