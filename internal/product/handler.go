// internal/product/handler.go
package product

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

type Handler struct {
	Repo     *Repository
	Activity activity.Tracker
	Log      *zap.Logger
}

func NewHandler(repo *Repository, tracker activity.Tracker, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Activity: tracker, Log: log}
}

type productRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (in productRequest) valid() bool {
	return strings.TrimSpace(in.Name) != ""
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) record(r *http.Request, dealID uint, typ, summary string, productID uint) {
	if h.Activity == nil {
		return
	}
	h.Activity.Record(r.Context(), activity.Entry{
		DealID:   dealID,
		ActorID:  auth.UserID(r.Context()),
		Type:     typ,
		Summary:  summary,
		Metadata: map[string]any{"productId": productID},
	})
}

/* ============================== Endpoints ============================== */

// POST /api/deals/{id}/products
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	var in productRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !in.valid() {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	var n int64
	if err := h.Repo.DB.WithContext(r.Context()).Table("deals").
		Where("id = ? AND deleted_at IS NULL", dealID).Count(&n).Error; err != nil {
		h.Log.Error("check deal failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		http.Error(w, "Deal not found", http.StatusNotFound)
		return
	}

	p := &Product{
		DealID:      dealID,
		Name:        strings.TrimSpace(in.Name),
		Type:        strings.TrimSpace(in.Type),
		Description: strings.TrimSpace(in.Description),
	}
	if err := h.Repo.Create(r.Context(), p); err != nil {
		h.Log.Error("create product failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	p.Aggregate()
	h.record(r, dealID, activity.TypeProductAdded, fmt.Sprintf("Added product %q", p.Name), p.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// GET /api/deals/{id}/products
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	list, err := h.Repo.ListByDeal(r.Context(), dealID)
	if err != nil {
		h.Log.Error("list products failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /api/products/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	p, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load product failed", zap.Uint("productId", id), zap.Error(err))
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// PUT /api/products/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	var in productRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !in.valid() {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	existing, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load product failed", zap.Uint("productId", id), zap.Error(err))
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Type = strings.TrimSpace(in.Type)
	existing.Description = strings.TrimSpace(in.Description)
	if err := h.Repo.Update(r.Context(), existing); err != nil {
		h.Log.Error("update product failed", zap.Uint("productId", id), zap.Error(err))
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}
	h.record(r, existing.DealID, activity.TypeProductUpdated, fmt.Sprintf("Updated product %q", existing.Name), id)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(existing)
}

// DELETE /api/products/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	existing, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load product failed", zap.Uint("productId", id), zap.Error(err))
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.Log.Error("delete product failed", zap.Uint("productId", id), zap.Error(err))
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	h.record(r, existing.DealID, activity.TypeProductDeleted, fmt.Sprintf("Deleted product %q", existing.Name), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals/{id:[0-9]+}/products", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/products", h.ListByDeal).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
}
