package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealdesk/api-deals/internal/split"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestManager_RunsJobs(t *testing.T) {
	m, err := NewManager(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var runs atomic.Int32
	m.Register(
		Job{Name: "counter", Every: 20 * time.Millisecond, Run: func(context.Context) (int64, error) {
			runs.Add(1)
			return 1, nil
		}},
		Job{Name: "failing", Every: 20 * time.Millisecond, Run: func(context.Context) (int64, error) {
			return 0, errors.New("boom")
		}},
	)
	if m.Jobs() != 2 {
		t.Fatalf("expected 2 jobs, got %d", m.Jobs())
	}

	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()

	if runs.Load() < 2 {
		t.Errorf("expected the job to run at least twice, got %d", runs.Load())
	}
}

func TestManager_SkipsInvalidJob(t *testing.T) {
	m, err := NewManager(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Register(Job{Name: "zero", Every: 0, Run: func(context.Context) (int64, error) { return 0, nil }})
	if m.Jobs() != 0 {
		t.Errorf("expected the zero interval job to be rejected, got %d jobs", m.Jobs())
	}
	m.Stop()
}

func TestDraftPurge(t *testing.T) {
	store := split.NewMemoryStore(time.Nanosecond)
	key := split.DraftKey{SessionID: "s", ScheduleID: 1}
	_ = store.Put(context.Background(), key, split.NewDraft(1, 1, decimal.Zero, nil))
	time.Sleep(time.Millisecond)

	n, err := DraftPurge(store).Run(context.Background())
	if err != nil || n != 1 {
		t.Errorf("expected 1 purged draft, got %d (%v)", n, err)
	}
}
