package brand

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	Repo *Repository
	Log  *zap.Logger
}

func NewHandler(repo *Repository, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

// POST /api/brands
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var b Brand
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.ID = 0
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if err := h.Repo.Create(r.Context(), &b); err != nil {
		h.Log.Error("create brand failed", zap.String("name", b.Name), zap.Error(err))
		http.Error(w, "Failed to create brand", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(b)
}

// GET /api/brands?q=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error("list brands failed", zap.Error(err))
		http.Error(w, "Failed to load brands", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /api/brands/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid brand ID", http.StatusBadRequest)
		return
	}
	b, err := h.Repo.FindDetail(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Brand not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load brand failed", zap.Int("brandId", id), zap.Error(err))
		http.Error(w, "Failed to load brand", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/brands", h.List).Methods(http.MethodGet)
	r.HandleFunc("/brands", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/brands/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
}
