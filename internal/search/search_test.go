package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestMerge(t *testing.T) {
	got := Merge("ac",
		[]Result{{Type: TypeTalent, ID: 1, Name: "Zach Acton"}},
		[]Result{{Type: TypeBrand, ID: 2, Name: "Acme"}, {Type: TypeBrand, ID: 3, Name: "bacardi"}},
		nil,
		[]Result{{Type: TypeDeal, ID: 4, Name: "ACME Summer"}},
	)
	want := []uint{2, 4, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d (%s)", i, id, got[i].ID, got[i].Name)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge("x"); got == nil || len(got) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", got)
	}
}

type fakeSearcher struct {
	calls   int
	last    Query
	results []Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q Query) ([]Result, error) {
	f.calls++
	f.last = q
	return f.results, f.err
}

func get(h *Handler, url string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	return rr
}

func TestSearchHandler(t *testing.T) {
	fake := &fakeSearcher{results: []Result{{Type: TypeAgent, ID: 7, Name: "Ana Lima", Subtitle: "Agent"}}}
	rr := get(NewHandler(fake, zap.NewNop()), "/search?q=%20Ana%20&costCenter=CC-10")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fake.last.Text != "ana" || fake.last.CostCenter != "cc-10" {
		t.Errorf("unexpected query %+v", fake.last)
	}
	var out []Result
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(out) != 1 || out[0].Type != TypeAgent {
		t.Errorf("unexpected results %+v", out)
	}
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	fake := &fakeSearcher{}
	rr := get(NewHandler(fake, zap.NewNop()), "/search?q=%20%20")

	if fake.calls != 0 {
		t.Errorf("empty query must not hit the repository")
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("expected an empty array, got %q", body)
	}
}

func TestSearchHandler_Error(t *testing.T) {
	rr := get(NewHandler(&fakeSearcher{err: errors.New("db down")}, zap.NewNop()), "/search?q=x")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}
