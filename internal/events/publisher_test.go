package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestPublisher(t *testing.T, w *fakeWriter, failures *int32) *KafkaPublisher {
	t.Helper()
	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return &KafkaPublisher{
		writer:  w,
		pool:    pool,
		log:     zap.NewNop(),
		timeout: time.Second,
		onError: func() { atomic.AddInt32(failures, 1) },
	}
}

func TestPublish_SetsTopicAndKey(t *testing.T) {
	w := &fakeWriter{}
	var failures int32
	p := newTestPublisher(t, w, &failures)

	err := p.Publish(context.Background(), "deal.activity", Message{Key: []byte("7"), Value: []byte(`{}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if w.msgs[0].Topic != "deal.activity" || string(w.msgs[0].Key) != "7" {
		t.Errorf("unexpected message %+v", w.msgs[0])
	}
}

func TestPublishJSON_WritesInBackground(t *testing.T) {
	w := &fakeWriter{}
	var failures int32
	p := newTestPublisher(t, w, &failures)

	p.PublishJSON("deal.activity", "42", map[string]int{"dealId": 42})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message after close, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Value) != `{"dealId":42}` {
		t.Errorf("unexpected body %s", w.msgs[0].Value)
	}
	if !w.closed {
		t.Error("expected writer to be closed")
	}
	if got := atomic.LoadInt32(&failures); got != 0 {
		t.Errorf("expected no failures, got %d", got)
	}
}

func TestPublishJSON_MarshalErrorCountsFailure(t *testing.T) {
	w := &fakeWriter{}
	var failures int32
	p := newTestPublisher(t, w, &failures)

	p.PublishJSON("deal.activity", "1", make(chan int))

	if got := atomic.LoadInt32(&failures); got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
	if len(w.msgs) != 0 {
		t.Errorf("expected nothing written, got %d", len(w.msgs))
	}
}

func TestPublishJSON_WriteErrorCountsFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	var failures int32
	p := newTestPublisher(t, w, &failures)

	p.PublishJSON("deal.activity", "1", map[string]string{"a": "b"})
	_ = p.Close()

	if got := atomic.LoadInt32(&failures); got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
}
