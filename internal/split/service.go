// internal/split/service.go
package split

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SplitRepository persists committed splits.
type SplitRepository interface {
	ListBySchedule(ctx context.Context, scheduleID uint) ([]Split, error)
	ReplaceForSchedule(ctx context.Context, scheduleID uint, rows []Split) ([]Split, error)
}

// ActivityRecorder receives an entry for every committed split change.
type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

// RemainderAlerter is told when a commit booked an Unassigned remainder.
type RemainderAlerter interface {
	UnassignedRemainder(ctx context.Context, dealID, scheduleID uint, percent, amount decimal.Decimal)
}

// Service runs split commits and the per-session draft workspace.
type Service struct {
	repo     SplitRepository
	source   Source
	drafts   DraftStore
	policy   Policy
	activity ActivityRecorder
	alerter  RemainderAlerter
	metrics  *metrics.Metrics
	log      *zap.Logger

	locks [lockStripes]sync.Mutex
}

type Options struct {
	Repo     SplitRepository
	Source   Source
	Drafts   DraftStore
	Policy   Policy
	Activity ActivityRecorder
	Alerter  RemainderAlerter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

func NewService(o Options) *Service {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Policy == "" {
		o.Policy = PolicyReject
	}
	return &Service{
		repo:     o.Repo,
		source:   o.Source,
		drafts:   o.Drafts,
		policy:   o.Policy,
		activity: o.Activity,
		alerter:  o.Alerter,
		metrics:  o.Metrics,
		log:      o.Logger,
	}
}

/* ============================== Persisted splits ============================== */

// List returns the committed splits of a schedule.
func (s *Service) List(ctx context.Context, scheduleID uint) ([]Split, Summary, error) {
	if _, err := s.source.LoadTarget(ctx, scheduleID); err != nil {
		return nil, Summary{}, err
	}
	rows, err := s.repo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, Summary{}, err
	}
	return rows, Summarize(rows), nil
}

// CommitBatch reconciles rows and replaces the schedule's splits with them.
func (s *Service) CommitBatch(ctx context.Context, scheduleID, actorID uint, rows []Split) ([]Split, error) {
	target, err := s.source.LoadTarget(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if target.Paid {
		s.metrics.SplitCommit("locked")
		return nil, ErrScheduleLocked
	}
	return s.commit(ctx, target, actorID, rows)
}

func (s *Service) commit(ctx context.Context, target *Target, actorID uint, rows []Split) ([]Split, error) {
	rows = s.resolveAgents(ctx, rows)

	reconciled, err := Reconcile(rows, target.CommissionAmount, s.policy)
	if err != nil {
		s.metrics.SplitCommit("rejected")
		return nil, err
	}

	saved, err := s.repo.ReplaceForSchedule(ctx, target.ScheduleID, reconciled)
	if errors.Is(err, ErrScheduleLocked) {
		s.metrics.SplitCommit("locked")
		return nil, err
	}
	if err != nil {
		s.metrics.SplitCommit("failed")
		s.log.Error("persist splits failed",
			zap.Uint("scheduleId", target.ScheduleID),
			zap.Error(err))
		return nil, fmt.Errorf("persist splits for schedule %d: %w", target.ScheduleID, err)
	}
	s.metrics.SplitCommit("ok")

	summary := Summarize(saved)
	if !summary.Balanced {
		s.log.Warn("committed splits do not total 100%",
			zap.Uint("scheduleId", target.ScheduleID),
			zap.String("totalPercent", summary.TotalPercent.String()))
	}
	if un, ok := HasUnassigned(saved); ok {
		s.metrics.UnassignedBooked(un.SplitAmount.InexactFloat64())
		if s.alerter != nil {
			s.alerter.UnassignedRemainder(ctx, target.DealID, target.ScheduleID, un.SplitPercent, un.SplitAmount)
		}
	}
	if s.activity != nil {
		s.activity.Record(ctx, activity.Entry{
			DealID:  target.DealID,
			ActorID: actorID,
			Type:    activity.TypeSplitsUpdated,
			Summary: fmt.Sprintf("Updated commission splits for schedule #%d (%d recipients)", target.ScheduleID, len(saved)),
			Metadata: map[string]any{
				"scheduleId":   target.ScheduleID,
				"totalPercent": summary.TotalPercent.String(),
				"totalAmount":  summary.TotalAmount.String(),
			},
		})
	}
	return saved, nil
}

// resolveAgents fills in agentId for names that match a directory agent.
func (s *Service) resolveAgents(ctx context.Context, rows []Split) []Split {
	out := clone(rows)
	for i := range out {
		if out[i].AgentID != nil || out[i].AgentName == "" || out[i].AgentName == UnassignedName {
			continue
		}
		a, err := s.source.LookupAgent(ctx, out[i].AgentName)
		if err != nil {
			s.log.Warn("agent lookup failed", zap.String("agentName", out[i].AgentName), zap.Error(err))
			continue
		}
		if a != nil {
			id := a.ID
			out[i].AgentID = &id
		}
	}
	return out
}

/* ============================== Drafts ============================== */

// lockStripes bounds the draft locks; keys sharing a stripe serialize.
const lockStripes = 64

func (s *Service) stripe(key DraftKey) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) lock(key DraftKey) func() {
	mu := s.stripe(key)
	mu.Lock()
	return mu.Unlock
}

// load returns the session draft, initializing it on first access from the
// committed splits or, when there are none, from the deal's agents.
func (s *Service) load(ctx context.Context, key DraftKey) (*Draft, *Target, error) {
	target, err := s.source.LoadTarget(ctx, key.ScheduleID)
	if err != nil {
		return nil, nil, err
	}

	d, ok, err := s.drafts.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		rows, err := s.repo.ListBySchedule(ctx, key.ScheduleID)
		if err != nil {
			return nil, nil, err
		}
		if len(rows) == 0 {
			rows = Initialize(target.CommissionAmount, target.Agents, target.Owner)
		}
		d = NewDraft(target.ScheduleID, target.DealID, target.CommissionAmount, rows)
	}
	d.Locked = target.Paid
	d.CommissionAmount = target.CommissionAmount
	return d, target, nil
}

func (s *Service) mutate(ctx context.Context, key DraftKey, op string, fn func(d *Draft) error) (*Draft, error) {
	unlock := s.lock(key)
	defer unlock()

	d, _, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(d); err != nil {
			return nil, err
		}
		s.metrics.DraftOperation(op)
	}
	if err := s.drafts.Put(ctx, key, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Draft returns the session draft for a schedule.
func (s *Service) Draft(ctx context.Context, key DraftKey) (*Draft, error) {
	return s.mutate(ctx, key, "get", nil)
}

func (s *Service) AddRow(ctx context.Context, key DraftKey) (*Draft, error) {
	return s.mutate(ctx, key, "add", func(d *Draft) error { return d.Add() })
}

func (s *Service) RemoveRow(ctx context.Context, key DraftKey, index int) (*Draft, error) {
	return s.mutate(ctx, key, "remove", func(d *Draft) error { return d.Remove(index) })
}

func (s *Service) UpdateRow(ctx context.Context, key DraftKey, index int, field, value string) (*Draft, error) {
	return s.mutate(ctx, key, "update", func(d *Draft) error {
		if err := d.Update(index, field, value); err != nil {
			return err
		}
		if field == FieldAgentName {
			a, err := s.source.LookupAgent(ctx, value)
			if err != nil {
				s.log.Warn("agent lookup failed", zap.String("agentName", value), zap.Error(err))
				return nil
			}
			if a != nil {
				id := a.ID
				d.Rows[index].AgentID = &id
			}
		}
		return nil
	})
}

func (s *Service) BeginEdit(ctx context.Context, key DraftKey, index int) (*Draft, error) {
	return s.mutate(ctx, key, "edit", func(d *Draft) error { return d.BeginEdit(index) })
}

func (s *Service) CancelEdit(ctx context.Context, key DraftKey, index int) (*Draft, error) {
	return s.mutate(ctx, key, "cancel", func(d *Draft) error { return d.CancelEdit(index) })
}

// CommitDraft persists the draft. On failure the draft keeps the edited rows
// so the caller can retry.
func (s *Service) CommitDraft(ctx context.Context, key DraftKey, actorID uint) (*Draft, error) {
	unlock := s.lock(key)
	defer unlock()

	d, target, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := d.BeginSave(); err != nil {
		if errors.Is(err, ErrScheduleLocked) {
			s.metrics.SplitCommit("locked")
		}
		return nil, err
	}
	if err := s.drafts.Put(ctx, key, d); err != nil {
		return nil, err
	}

	saved, commitErr := s.commit(ctx, target, actorID, d.Rows)
	d.FinishSave(saved, commitErr == nil)
	if errors.Is(commitErr, ErrScheduleLocked) {
		d.Locked = true
	}
	if err := s.drafts.Put(ctx, key, d); err != nil {
		s.log.Error("store draft after commit failed", zap.String("key", key.String()), zap.Error(err))
	}
	if commitErr != nil {
		return d, commitErr
	}
	return d, nil
}

// Discard drops the session draft; the next access re-derives it.
func (s *Service) Discard(ctx context.Context, key DraftKey) error {
	unlock := s.lock(key)
	defer unlock()
	return s.drafts.Delete(ctx, key)
}
