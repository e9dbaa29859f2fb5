package note

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func (h *Handler) record(r *http.Request, n *Note, typ, verb string) {
	if h.Activity == nil {
		return
	}
	h.Activity.Record(r.Context(), activity.Entry{
		DealID:   n.DealID,
		ActorID:  auth.UserID(r.Context()),
		Type:     typ,
		Summary:  fmt.Sprintf("%s note %q", verb, n.Title),
		Metadata: map[string]any{"noteId": n.ID},
	})
}

// POST /api/deals/{id}/notes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	var in NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Normalize(); err != nil {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}

	n := &Note{DealID: dealID, Title: in.Title, Content: in.Content}
	if uid := auth.UserID(r.Context()); uid != 0 {
		n.AuthorID = &uid
		n.AuthorName = h.Repo.AuthorName(r.Context(), uid)
	}
	if err := h.Repo.Create(r.Context(), n); err != nil {
		h.Log.Error("create note failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to create note", http.StatusInternalServerError)
		return
	}
	h.record(r, n, activity.TypeNoteAdded, "Added")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toDTO(*n))
}

// GET /api/deals/{id}/notes
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	list, err := h.Repo.ListByDeal(r.Context(), dealID, Filter{Author: r.URL.Query().Get("author")})
	if err != nil {
		h.Log.Error("list notes failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to load notes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTOs(list))
}

// PUT /api/notes/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}
	var in NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Normalize(); err != nil {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}

	n, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load note failed", zap.Uint("noteId", id), zap.Error(err))
		http.Error(w, "Failed to update note", http.StatusInternalServerError)
		return
	}
	n.Title, n.Content = in.Title, in.Content
	if err := h.Repo.Update(r.Context(), n); err != nil {
		h.Log.Error("update note failed", zap.Uint("noteId", id), zap.Error(err))
		http.Error(w, "Failed to update note", http.StatusInternalServerError)
		return
	}
	h.record(r, n, activity.TypeNoteUpdated, "Updated")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(*n))
}

// DELETE /api/notes/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}
	n, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load note failed", zap.Uint("noteId", id), zap.Error(err))
		http.Error(w, "Failed to delete note", http.StatusInternalServerError)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.Log.Error("delete note failed", zap.Uint("noteId", id), zap.Error(err))
		http.Error(w, "Failed to delete note", http.StatusInternalServerError)
		return
	}
	h.record(r, n, activity.TypeNoteDeleted, "Deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals/{id:[0-9]+}/notes", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/notes", h.ListByDeal).Methods(http.MethodGet)
	r.HandleFunc("/notes/{id:[0-9]+}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/notes/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
}
