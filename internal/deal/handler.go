package deal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the deal endpoints.
type Handler struct {
	Repo     *Repository
	Activity activity.Tracker
	Log      *zap.Logger
}

func NewHandler(repo *Repository, tracker activity.Tracker, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Activity: tracker, Log: log}
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func queryUint(r *http.Request, name string) uint {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return uint(v)
}

func (h *Handler) record(r *http.Request, dealID uint, typ, summary string, meta map[string]any) {
	if h.Activity == nil {
		return
	}
	h.Activity.Record(r.Context(), activity.Entry{
		DealID:   dealID,
		ActorID:  auth.UserID(r.Context()),
		Type:     typ,
		Summary:  summary,
		Metadata: meta,
	})
}

// badRequest reports validation and reference errors; it returns false for
// anything else so the caller can treat it as a server error.
func badRequest(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrBrandRequired),
		errors.Is(err, ErrInvalidDate), errors.Is(err, ErrDateOrder),
		errors.Is(err, ErrUnknownBrand), errors.Is(err, ErrUnknownOwner),
		errors.Is(err, ErrUnknownTalent):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

/* ============================== Endpoints ============================== */

// GET /api/deals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Repo.List(r.Context(), Filter{
		Query:   q.Get("q"),
		Stage:   strings.TrimSpace(q.Get("stage")),
		BrandID: queryUint(r, "brandId"),
		OwnerID: queryUint(r, "ownerId"),
	})
	if err != nil {
		h.Log.Error("list deals failed", zap.Error(err))
		http.Error(w, "Failed to load deals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/deals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d, err := NewFromRequest(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if d.OwnerID == nil {
		if uid := auth.UserID(r.Context()); uid != 0 {
			d.OwnerID = &uid
		}
	}
	if err := h.Repo.Create(r.Context(), d, in.TalentIDs); err != nil {
		if badRequest(w, err) {
			return
		}
		h.Log.Error("create deal failed", zap.String("name", d.Name), zap.Error(err))
		http.Error(w, "Failed to create deal", http.StatusInternalServerError)
		return
	}
	h.record(r, d.ID, activity.TypeDealCreated, fmt.Sprintf("Created deal %s", d.Name), nil)

	detail, err := h.Repo.FindDetail(r.Context(), d.ID)
	if err != nil {
		h.Log.Error("reload deal failed", zap.Uint("dealId", d.ID), zap.Error(err))
		writeJSON(w, http.StatusCreated, d)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GET /api/deals/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	detail, err := h.Repo.FindDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Deal not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load deal failed", zap.Uint("dealId", id), zap.Error(err))
		http.Error(w, "Failed to load deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// PUT /api/deals/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	var in UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Deal not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load deal failed", zap.Uint("dealId", id), zap.Error(err))
		http.Error(w, "Failed to update deal information", http.StatusInternalServerError)
		return
	}
	changed, err := Apply(d, in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Repo.Update(r.Context(), d, changed); err != nil {
		if badRequest(w, err) {
			return
		}
		h.Log.Error("update deal failed", zap.Uint("dealId", id), zap.Strings("fields", changed), zap.Error(err))
		http.Error(w, "Failed to update deal information", http.StatusInternalServerError)
		return
	}
	if len(changed) > 0 {
		h.record(r, id, activity.TypeDealUpdated,
			fmt.Sprintf("Updated %s", strings.Join(changed, ", ")),
			map[string]any{"fields": changed})
	}

	detail, err := h.Repo.FindDetail(r.Context(), id)
	if err != nil {
		h.Log.Error("reload deal failed", zap.Uint("dealId", id), zap.Error(err))
		http.Error(w, "Failed to load deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DELETE /api/deals/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Deal not found", http.StatusNotFound)
			return
		}
		h.Log.Error("delete deal failed", zap.Uint("dealId", id), zap.Error(err))
		http.Error(w, "Failed to delete deal", http.StatusInternalServerError)
		return
	}
	h.Log.Info("deal deleted", zap.Uint("dealId", id), zap.Uint("actorId", auth.UserID(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/deals/{id}/talents
func (h *Handler) ReplaceTalents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	var in TalentsRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d, err := h.Repo.ReplaceTalents(r.Context(), id, in.TalentIDs)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Deal not found", http.StatusNotFound)
			return
		}
		if badRequest(w, err) {
			return
		}
		h.Log.Error("replace deal talents failed", zap.Uint("dealId", id), zap.Error(err))
		http.Error(w, "Failed to update talents", http.StatusInternalServerError)
		return
	}
	h.record(r, id, activity.TypeTalentsUpdated,
		fmt.Sprintf("Deal now has %d talent(s)", len(d.Talents)),
		map[string]any{"talentIds": in.TalentIDs})
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals", h.List).Methods(http.MethodGet)
	r.HandleFunc("/deals", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/deals/{id:[0-9]+}", h.Update).Methods(http.MethodPut)
	r.Handle("/deals/{id:[0-9]+}", auth.RequireAdmin(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
	r.HandleFunc("/deals/{id:[0-9]+}/talents", h.ReplaceTalents).Methods(http.MethodPut)
}
