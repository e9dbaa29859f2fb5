package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RemainderAlert is the webhook payload sent when a commit books an
// Unassigned remainder.
type RemainderAlert struct {
	Message    string          `json:"message"`
	DealID     uint            `json:"dealId"`
	ScheduleID uint            `json:"scheduleId"`
	Percent    decimal.Decimal `json:"percent"`
	Amount     decimal.Decimal `json:"amount"`
	SentAt     time.Time       `json:"sentAt"`
}

// Webhook posts alerts to a single URL from a bounded worker pool. Failures
// and alerts dropped while every worker is busy are logged only.
type Webhook struct {
	URL    string
	Client *http.Client
	Log    *zap.Logger

	pool *ants.Pool
	wg   sync.WaitGroup
}

func NewWebhook(url string, timeout time.Duration, workers int, log *zap.Logger) (*Webhook, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create webhook pool: %w", err)
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Log:    log,
		pool:   pool,
	}, nil
}

func (w *Webhook) UnassignedRemainder(ctx context.Context, dealID, scheduleID uint, percent, amount decimal.Decimal) {
	alert := RemainderAlert{
		Message:    fmt.Sprintf("%s%% of the commission on schedule #%d is unassigned", percent.StringFixed(2), scheduleID),
		DealID:     dealID,
		ScheduleID: scheduleID,
		Percent:    percent,
		Amount:     amount,
		SentAt:     time.Now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)

	w.wg.Add(1)
	err := w.pool.Submit(func() {
		defer w.wg.Done()
		if err := w.send(ctx, alert); err != nil {
			w.Log.Warn("send webhook alert failed",
				zap.Uint("dealId", dealID),
				zap.Uint("scheduleId", scheduleID),
				zap.Error(err))
		}
	})
	if err != nil {
		w.wg.Done()
		w.Log.Warn("webhook pool saturated, dropping alert",
			zap.Uint("dealId", dealID),
			zap.Uint("scheduleId", scheduleID),
			zap.Error(err))
	}
}

func (w *Webhook) send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

// Wait blocks until every pending alert has been sent or has failed.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

// Close waits for pending alerts and releases the workers.
func (w *Webhook) Close() {
	w.wg.Wait()
	w.pool.Release()
}
