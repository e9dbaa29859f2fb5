package note

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      NoteRequest
		wantErr bool
	}{
		{NoteRequest{Title: "Kickoff", Content: "Call went well"}, false},
		{NoteRequest{Title: "  ", Content: "body"}, true},
		{NoteRequest{Title: "Title", Content: "\n\t"}, true},
		{NoteRequest{}, true},
	}
	for _, c := range cases {
		in := c.in
		err := in.Normalize()
		if c.wantErr != (err != nil) {
			t.Errorf("%+v: expected error=%v, got %v", c.in, c.wantErr, err)
		}
		if err != nil && !errors.Is(err, ErrTitleAndContentRequired) {
			t.Errorf("unexpected error type %v", err)
		}
	}
}

func TestToDTO_DefaultsAuthorName(t *testing.T) {
	got := toDTO(Note{ID: 1, DealID: 2, Title: "t", Content: "c"})
	if got.Author.Name != "N/A" || got.Author.ID != nil {
		t.Errorf("expected anonymous author, got %+v", got.Author)
	}
}

func TestHandler_RequiresTitleAndContent(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	for _, c := range []struct{ method, path string }{
		{http.MethodPost, "/deals/1/notes"},
		{http.MethodPut, "/notes/1"},
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(c.method, c.path, strings.NewReader(`{"title":"only title"}`)))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", c.method, c.path, rr.Code)
		}
	}
}
