package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is a named housekeeping task run at a fixed interval. Run reports how
// many rows or entries it cleaned up.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) (int64, error)
}

// Manager owns the gocron scheduler for housekeeping jobs.
type Manager struct {
	scheduler gocron.Scheduler
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewManager(log *zap.Logger) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{scheduler: s, log: log, ctx: ctx, cancel: cancel}, nil
}

// Register adds jobs; a job that cannot be registered is logged and skipped.
func (m *Manager) Register(jobs ...Job) {
	for _, j := range jobs {
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(j.Every),
			gocron.NewTask(m.execute, j),
			gocron.WithName(j.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			m.log.Error("register job failed", zap.String("job", j.Name), zap.Error(err))
		}
	}
}

func (m *Manager) execute(j Job) {
	start := time.Now()
	n, err := j.Run(m.ctx)
	if err != nil {
		m.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	if n > 0 {
		m.log.Info("job finished",
			zap.String("job", j.Name),
			zap.Int64("removed", n),
			zap.Duration("took", time.Since(start)))
	}
}

func (m *Manager) Jobs() int {
	return len(m.scheduler.Jobs())
}

func (m *Manager) Start() {
	m.scheduler.Start()
	m.log.Info("scheduler started", zap.Int("jobs", m.Jobs()))
}

func (m *Manager) Stop() {
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		m.log.Error("scheduler shutdown failed", zap.Error(err))
	}
}
