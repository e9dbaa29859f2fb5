// internal/split/handler.go
package split

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHeader carries the edit session a draft belongs to.
const SessionHeader = "X-Session-ID"

type Handler struct {
	Service *Service
	Log     *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

type listResponse struct {
	Splits  []Split `json:"splits"`
	Summary Summary `json:"summary"`
}

type batchRequest struct {
	Splits []Split `json:"splits"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type draftResponse struct {
	*Draft
	Summary Summary `json:"summary"`
}

/* ============================== Helpers ============================== */

func scheduleID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func rowIndex(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// draftKey uses X-Session-ID when present, otherwise the authenticated user.
func draftKey(r *http.Request, scheduleID uint) DraftKey {
	session := r.Header.Get(SessionHeader)
	if session == "" {
		session = fmt.Sprintf("user-%d", auth.UserID(r.Context()))
	}
	return DraftKey{SessionID: session, ScheduleID: scheduleID}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDraft(w http.ResponseWriter, status int, d *Draft) {
	writeJSON(w, status, draftResponse{Draft: d, Summary: d.Summary()})
}

// fail maps split errors to HTTP statuses. Anything unknown is a 500.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrScheduleNotFound):
		http.Error(w, "Schedule not found", http.StatusNotFound)
	case errors.Is(err, ErrScheduleLocked):
		http.Error(w, "Schedule is paid; splits are read-only", http.StatusConflict)
	case errors.Is(err, ErrSaveInFlight):
		http.Error(w, "Splits are being saved", http.StatusConflict)
	case errors.Is(err, ErrAlreadyEditing):
		http.Error(w, "Another split row is being edited", http.StatusConflict)
	case errors.Is(err, ErrNotEditing):
		http.Error(w, "Split row is not being edited", http.StatusConflict)
	case errors.Is(err, ErrRowOutOfRange):
		http.Error(w, "Split row not found", http.StatusNotFound)
	case errors.Is(err, ErrLastRow):
		http.Error(w, "At least one split row is required", http.StatusBadRequest)
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrInvalidValue):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrOverAllocated):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.Log.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

/* ============================== Persisted ============================== */

// GET /api/schedules/{id}/splits
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	rows, summary, err := h.Service.List(r.Context(), id)
	if err != nil {
		h.fail(w, err, "Failed to load splits", zap.Uint("scheduleId", id))
		return
	}
	if rows == nil {
		rows = []Split{}
	}
	writeJSON(w, http.StatusOK, listResponse{Splits: rows, Summary: summary})
}

// PUT /api/schedules/{id}/splits/batch
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.Service.CommitBatch(r.Context(), id, auth.UserID(r.Context()), req.Splits)
	if err != nil {
		h.fail(w, err, "Failed to save splits", zap.Uint("scheduleId", id))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Splits: saved, Summary: Summarize(saved)})
}

/* ============================== Draft ============================== */

// GET /api/schedules/{id}/splits/draft
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	d, err := h.Service.Draft(r.Context(), draftKey(r, id))
	if err != nil {
		h.fail(w, err, "Failed to load split draft", zap.Uint("scheduleId", id))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// POST /api/schedules/{id}/splits/draft/rows
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	d, err := h.Service.AddRow(r.Context(), draftKey(r, id))
	if err != nil {
		h.fail(w, err, "Failed to add split row", zap.Uint("scheduleId", id))
		return
	}
	writeDraft(w, http.StatusCreated, d)
}

// PATCH /api/schedules/{id}/splits/draft/rows/{idx}
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	idx, ok := rowIndex(r)
	if !ok {
		http.Error(w, "Invalid row index", http.StatusBadRequest)
		return
	}
	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.Service.UpdateRow(r.Context(), draftKey(r, id), idx, req.Field, req.Value)
	if err != nil {
		h.fail(w, err, "Failed to update split row", zap.Uint("scheduleId", id), zap.Int("row", idx))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// DELETE /api/schedules/{id}/splits/draft/rows/{idx}
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	idx, ok := rowIndex(r)
	if !ok {
		http.Error(w, "Invalid row index", http.StatusBadRequest)
		return
	}
	d, err := h.Service.RemoveRow(r.Context(), draftKey(r, id), idx)
	if err != nil {
		h.fail(w, err, "Failed to remove split row", zap.Uint("scheduleId", id), zap.Int("row", idx))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// POST /api/schedules/{id}/splits/draft/rows/{idx}/edit
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	idx, ok := rowIndex(r)
	if !ok {
		http.Error(w, "Invalid row index", http.StatusBadRequest)
		return
	}
	d, err := h.Service.BeginEdit(r.Context(), draftKey(r, id), idx)
	if err != nil {
		h.fail(w, err, "Failed to edit split row", zap.Uint("scheduleId", id), zap.Int("row", idx))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// POST /api/schedules/{id}/splits/draft/rows/{idx}/cancel
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	idx, ok := rowIndex(r)
	if !ok {
		http.Error(w, "Invalid row index", http.StatusBadRequest)
		return
	}
	d, err := h.Service.CancelEdit(r.Context(), draftKey(r, id), idx)
	if err != nil {
		h.fail(w, err, "Failed to cancel split edit", zap.Uint("scheduleId", id), zap.Int("row", idx))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// POST /api/schedules/{id}/splits/draft/commit
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	d, err := h.Service.CommitDraft(r.Context(), draftKey(r, id), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to save splits", zap.Uint("scheduleId", id))
		return
	}
	writeDraft(w, http.StatusOK, d)
}

// DELETE /api/schedules/{id}/splits/draft
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	if err := h.Service.Discard(r.Context(), draftKey(r, id)); err != nil {
		h.fail(w, err, "Failed to discard split draft", zap.Uint("scheduleId", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes mounts the split endpoints on an authenticated subrouter.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/schedules/{id:[0-9]+}/splits", h.List).Methods(http.MethodGet)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/batch", h.Batch).Methods(http.MethodPut)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft", h.GetDraft).Methods(http.MethodGet)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft", h.Discard).Methods(http.MethodDelete)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/rows", h.AddRow).Methods(http.MethodPost)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/rows/{idx:[0-9]+}", h.UpdateRow).Methods(http.MethodPatch)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/rows/{idx:[0-9]+}", h.RemoveRow).Methods(http.MethodDelete)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/rows/{idx:[0-9]+}/edit", h.BeginEdit).Methods(http.MethodPost)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/rows/{idx:[0-9]+}/cancel", h.CancelEdit).Methods(http.MethodPost)
	r.HandleFunc("/schedules/{id:[0-9]+}/splits/draft/commit", h.Commit).Methods(http.MethodPost)
}
