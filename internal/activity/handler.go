// internal/activity/handler.go
package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Handler struct {
	Repo *Repository
	Log  *zap.Logger
}

func NewHandler(repo *Repository, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

// Page is the response of the activity feed.
type Page struct {
	Activities []Activity `json:"activities"`
	Total      int64      `json:"total"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	HasMore    bool       `json:"hasMore"`
}

// PageParams parses limit and offset, falling back to defaults on bad input.
func PageParams(limitRaw, offsetRaw string) (limit, offset int) {
	limit = DefaultLimit
	if v, err := strconv.Atoi(limitRaw); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if v, err := strconv.Atoi(offsetRaw); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// HasMore reports whether rows remain after this page.
func HasMore(offset, pageLen int, total int64) bool {
	return int64(offset+pageLen) < total
}

// GET /api/deals/{id}/activities?limit&offset&activityType
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || dealID <= 0 {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	limit, offset := PageParams(q.Get("limit"), q.Get("offset"))

	list, total, err := h.Repo.ListByDeal(r.Context(), uint(dealID), q.Get("activityType"), limit, offset)
	if err != nil {
		h.Log.Error("list activities failed", zap.Int("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Page{
		Activities: list,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    HasMore(offset, len(list), total),
	})
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals/{id:[0-9]+}/activities", h.List).Methods(http.MethodGet)
}
