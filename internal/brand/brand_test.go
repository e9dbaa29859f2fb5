package brand

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func newRouter() *mux.Router {
	r := mux.NewRouter()
	NewHandler(nil, zap.NewNop()).RegisterRoutes(r)
	return r
}

func TestCreate_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing name", `{"industry":"Beauty"}`},
		{"blank name", `{"name":"   "}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/brands", strings.NewReader(c.body))
			newRouter().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestGet_RouteRejectsNonNumericID(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brands/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from router, got %d", rec.Code)
	}
}
