package search

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dealdesk/api-deals/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

type Handler struct {
	Repo Searcher
	Log  *zap.Logger
}

func NewHandler(repo Searcher, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

// GET /api/search?q=&costCenter=&costCenterGroup=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := Query{
		Text:            utils.NormalizeQuery(v.Get("q")),
		CostCenter:      utils.NormalizeQuery(v.Get("costCenter")),
		CostCenterGroup: utils.NormalizeQuery(v.Get("costCenterGroup")),
	}

	results := []Result{}
	if !q.Empty() {
		var err error
		results, err = h.Repo.Search(r.Context(), q)
		if err != nil {
			h.Log.Error("search failed", zap.String("q", q.Text), zap.Error(err))
			http.Error(w, "Search failed", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/search", h.Search).Methods(http.MethodGet)
}
