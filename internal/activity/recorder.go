// internal/activity/recorder.go
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventSink publishes activity events to other services.
type EventSink interface {
	PublishJSON(topic, key string, v any)
}

// Tracker is what handlers use to add feed entries.
type Tracker interface {
	Record(ctx context.Context, e Entry)
}

// Recorder stores activity entries and forwards them to the event sink.
// Failures are logged and never fail the action being recorded.
type Recorder struct {
	Repo  *Repository
	Sink  EventSink
	Topic string
	Log   *zap.Logger
}

func NewRecorder(repo *Repository, sink EventSink, topic string, log *zap.Logger) *Recorder {
	return &Recorder{Repo: repo, Sink: sink, Topic: topic, Log: log}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	a := Build(e, time.Now())
	if err := r.Repo.Create(ctx, a); err != nil {
		r.Log.Error("record activity failed",
			zap.Uint("dealId", e.DealID),
			zap.String("activityType", e.Type),
			zap.Error(err))
		return
	}
	if r.Sink != nil && r.Topic != "" {
		r.Sink.PublishJSON(r.Topic, a.EventID, a)
	}
}

// Build turns an entry into a storable Activity with a fresh event ID.
func Build(e Entry, now time.Time) *Activity {
	a := &Activity{
		EventID:      uuid.NewString(),
		DealID:       e.DealID,
		ActivityType: e.Type,
		Summary:      e.Summary,
		Metadata:     e.Metadata,
		CreatedAt:    now,
	}
	if e.ActorID != 0 {
		id := e.ActorID
		a.ActorID = &id
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	return a
}
