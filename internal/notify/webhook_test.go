package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestWebhook(t *testing.T, url string, workers int) *Webhook {
	t.Helper()
	wh, err := NewWebhook(url, time.Second, workers, zap.NewNop())
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	t.Cleanup(wh.Close)
	return wh
}

func TestWebhook_UnassignedRemainder(t *testing.T) {
	got := make(chan RemainderAlert, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		var a RemainderAlert
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		got <- a
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := newTestWebhook(t, srv.URL, 2)
	wh.UnassignedRemainder(context.Background(), 3, 9, decimal.RequireFromString("30"), decimal.RequireFromString("300"))
	wh.Wait()

	select {
	case a := <-got:
		if a.DealID != 3 || a.ScheduleID != 9 || !a.Amount.Equal(decimal.RequireFromString("300")) {
			t.Errorf("unexpected alert %+v", a)
		}
		if a.Message != "30.00% of the commission on schedule #9 is unassigned" {
			t.Errorf("unexpected message %q", a.Message)
		}
	default:
		t.Fatal("webhook was not called")
	}
}

func TestWebhook_SurvivesCanceledRequestContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wh := newTestWebhook(t, srv.URL, 2)
	wh.UnassignedRemainder(ctx, 1, 1, decimal.Zero, decimal.Zero)
	wh.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := newTestWebhook(t, srv.URL, 2)
	if err := wh.send(context.Background(), map[string]string{"a": "b"}); err == nil {
		t.Error("expected an error for a 502 answer")
	}
}

func TestWebhook_DropsAlertsWhenWorkersAreBusy(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
	}))
	defer srv.Close()

	wh := newTestWebhook(t, srv.URL, 1)
	wh.UnassignedRemainder(context.Background(), 1, 1, decimal.Zero, decimal.Zero)
	wh.UnassignedRemainder(context.Background(), 1, 2, decimal.Zero, decimal.Zero)
	close(release)
	wh.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected the second alert to be dropped, got %d calls", calls.Load())
	}
}
