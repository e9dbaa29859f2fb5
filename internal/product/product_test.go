package product

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dealdesk/api-deals/internal/schedule"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestAggregate(t *testing.T) {
	p := Product{Schedules: []schedule.Schedule{
		*schedule.NewFromRequest(1, schedule.CreateRequest{Revenue: decimal.NewFromInt(1000), SplitPercent: decimal.NewFromInt(20)}),
		*schedule.NewFromRequest(1, schedule.CreateRequest{Revenue: decimal.RequireFromString("500.50"), SplitPercent: decimal.NewFromInt(10)}),
	}}
	p.Aggregate()

	if !p.TotalRevenue.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("expected revenue 1500.50, got %s", p.TotalRevenue)
	}
	// 200 + 50.05
	if !p.TotalCommission.Equal(decimal.RequireFromString("250.05")) {
		t.Errorf("expected commission 250.05, got %s", p.TotalCommission)
	}
	if !p.TotalTalent.Add(p.TotalCommission).Equal(p.TotalRevenue) {
		t.Errorf("talent + commission must equal revenue")
	}
}

func TestAggregate_NoSchedulesEncodesEmptyList(t *testing.T) {
	p := Product{Name: "Reel"}
	p.Aggregate()

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"schedules":[]`) || !strings.Contains(string(b), `"totalRevenue":0`) {
		t.Errorf("unexpected json: %s", b)
	}
}

func TestHandler_Validation(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	for _, c := range []struct{ method, path, body string }{
		{http.MethodPost, "/deals/3/products", `{"name":""}`},
		{http.MethodPost, "/deals/3/products", `{`},
		{http.MethodPut, "/products/3", `{"type":"video"}`},
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(c.method, c.path, strings.NewReader(c.body)))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", c.method, c.path, rr.Code)
		}
	}
}
