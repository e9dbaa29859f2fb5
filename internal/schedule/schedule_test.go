package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSchedule(revenue, percent string) *Schedule {
	return NewFromRequest(1, CreateRequest{Revenue: d(revenue), SplitPercent: d(percent)})
}

func TestStatus(t *testing.T) {
	cases := []struct {
		paid    bool
		invoice string
		want    PaymentStatus
	}{
		{false, "", StatusPending},
		{false, "INV-1", StatusInvoiced},
		{true, "", StatusPaid},
		{true, "INV-1", StatusPaid},
	}
	for _, c := range cases {
		s := &Schedule{Paid: c.paid, InvoiceID: c.invoice}
		if got := s.Status(); got != c.want {
			t.Errorf("paid=%v invoice=%q: expected %s, got %s", c.paid, c.invoice, c.want, got)
		}
	}
}

func TestNewFromRequest_DerivesAmounts(t *testing.T) {
	s := newSchedule("1000", "20")

	if !s.CommissionAmount.Equal(d("200")) || !s.TalentAmount.Equal(d("800")) {
		t.Errorf("expected 800/200, got %s/%s", s.TalentAmount, s.CommissionAmount)
	}
	if s.PaymentStatus != StatusPending {
		t.Errorf("expected pending, got %s", s.PaymentStatus)
	}
}

func TestApplyEdit_AmountFields(t *testing.T) {
	cases := []struct {
		field, value                   string
		revenue, talent, comm, percent string
	}{
		{FieldRevenue, `2000`, "2000", "1600", "400", "20"},
		{FieldSplitPercent, `"25"`, "1000", "750", "250", "25"},
		{FieldTalentAmount, `700`, "1000", "700", "300", "30"},
		{FieldCommissionAmount, `"333.33"`, "1000", "666.67", "333.33", "33.33"},
	}
	for _, c := range cases {
		t.Run(c.field, func(t *testing.T) {
			s := newSchedule("1000", "20")
			changed, err := ApplyEdit(s, c.field, json.RawMessage(c.value), time.Now())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !changed {
				t.Errorf("expected commission change to be reported")
			}
			if !s.Revenue.Equal(d(c.revenue)) || !s.TalentAmount.Equal(d(c.talent)) ||
				!s.CommissionAmount.Equal(d(c.comm)) || !s.SplitPercent.Equal(d(c.percent)) {
				t.Errorf("got revenue=%s talent=%s commission=%s percent=%s",
					s.Revenue, s.TalentAmount, s.CommissionAmount, s.SplitPercent)
			}
		})
	}
}

func TestApplyEdit_UnchangedCommission(t *testing.T) {
	s := newSchedule("1000", "20")
	changed, err := ApplyEdit(s, FieldSplitPercent, json.RawMessage(`20`), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Errorf("expected no commission change")
	}
}

func TestApplyEdit_PaidLocksAmounts(t *testing.T) {
	s := newSchedule("1000", "20")
	s.Paid = true

	_, err := ApplyEdit(s, FieldRevenue, json.RawMessage(`5`), time.Now())
	if !errors.Is(err, ErrPaid) {
		t.Fatalf("expected ErrPaid, got %v", err)
	}
	if !s.Revenue.Equal(d("1000")) {
		t.Errorf("revenue must not change on a paid schedule")
	}

	if _, err := ApplyEdit(s, FieldInvoiceID, json.RawMessage(`"INV-9"`), time.Now()); err != nil {
		t.Errorf("invoice edits are allowed on paid schedules, got %v", err)
	}
}

func TestApplyEdit_PaidTransitions(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newSchedule("1000", "20")

	if _, err := ApplyEdit(s, FieldPaid, json.RawMessage(`true`), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Paid || s.PaidAt == nil || !s.PaidAt.Equal(now) {
		t.Errorf("expected paid at %v, got paid=%v at=%v", now, s.Paid, s.PaidAt)
	}
	if s.PaymentStatus != StatusPaid {
		t.Errorf("expected paid status, got %s", s.PaymentStatus)
	}

	if _, err := ApplyEdit(s, FieldPaid, json.RawMessage(`false`), now); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestApplyEdit_InvoiceAndDueDate(t *testing.T) {
	s := newSchedule("1000", "20")

	if _, err := ApplyEdit(s, FieldInvoiceID, json.RawMessage(`" INV-7 "`), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.InvoiceID != "INV-7" || s.PaymentStatus != StatusInvoiced {
		t.Errorf("expected invoiced INV-7, got %q %s", s.InvoiceID, s.PaymentStatus)
	}

	if _, err := ApplyEdit(s, FieldDueDate, json.RawMessage(`"2024-07-15"`), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DueDate == nil || s.DueDate.Format("2006-01-02") != "2024-07-15" {
		t.Errorf("unexpected due date %v", s.DueDate)
	}

	if _, err := ApplyEdit(s, FieldDueDate, json.RawMessage(`null`), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DueDate != nil {
		t.Errorf("expected due date cleared")
	}
}

func TestApplyEdit_Errors(t *testing.T) {
	s := newSchedule("1000", "20")

	if _, err := ApplyEdit(s, "price", json.RawMessage(`1`), time.Now()); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if _, err := ApplyEdit(s, FieldRevenue, json.RawMessage(`"abc"`), time.Now()); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := ApplyEdit(s, FieldDueDate, json.RawMessage(`"15/07/2024"`), time.Now()); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for bad date, got %v", err)
	}
}

func TestHandler_RejectsBadInput(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPut, "/schedules/1", `{"value":1}`, http.StatusBadRequest},
		{http.MethodPut, "/schedules/1", `not json`, http.StatusBadRequest},
		{http.MethodPost, "/schedules/1/payments", `{"amount":0}`, http.StatusBadRequest},
		{http.MethodPost, "/products/1/schedules", `{"revenue":-5}`, http.StatusBadRequest},
		{http.MethodPost, "/remittances", `{"reference":"  "}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != c.want {
			t.Errorf("%s %s: expected %d, got %d", c.method, c.path, c.want, rr.Code)
		}
	}
}
