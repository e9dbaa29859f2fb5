// internal/schedule/handler.go
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) record(ctx context.Context, productID uint, typ, summary string, meta map[string]any) {
	if h.Activity == nil {
		return
	}
	dealID, err := h.Repo.DealIDOf(ctx, productID)
	if err != nil {
		h.Log.Warn("resolve deal for activity failed", zap.Uint("productId", productID), zap.Error(err))
		return
	}
	h.Activity.Record(ctx, activity.Entry{
		DealID:   dealID,
		ActorID:  auth.UserID(ctx),
		Type:     typ,
		Summary:  summary,
		Metadata: meta,
	})
}

/* ============================== Schedules ============================== */

// POST /api/products/{id}/schedules
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	var in CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.Revenue.IsNegative() {
		http.Error(w, "Revenue cannot be negative", http.StatusBadRequest)
		return
	}
	if _, err := h.Repo.DealIDOf(r.Context(), productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load product failed", zap.Uint("productId", productID), zap.Error(err))
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	s := NewFromRequest(productID, in)
	if err := h.Repo.Create(r.Context(), s); err != nil {
		h.Log.Error("create schedule failed", zap.Uint("productId", productID), zap.Error(err))
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), productID, activity.TypeScheduleAdded,
		fmt.Sprintf("Added schedule #%d (%s revenue)", s.ID, s.Revenue.StringFixed(2)),
		map[string]any{"scheduleId": s.ID, "productId": productID})

	writeJSON(w, http.StatusCreated, s)
}

// GET /api/products/{id}/schedules
func (h *Handler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	list, err := h.Repo.ListByProduct(r.Context(), productID)
	if err != nil {
		h.Log.Error("list schedules failed", zap.Uint("productId", productID), zap.Error(err))
		http.Error(w, "Failed to load schedules", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/schedules/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	s, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load schedule failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PUT /api/schedules/{id}
// Body {field, value}; amounts are derived from the edited field.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	var in FieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Field == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load schedule failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to update schedule", http.StatusInternalServerError)
		return
	}

	changed, err := ApplyEdit(s, in.Field, in.Value, time.Now())
	switch {
	case errors.Is(err, ErrPaid), errors.Is(err, ErrAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Repo.SaveEdit(r.Context(), s, changed); err != nil {
		h.Log.Error("save schedule failed", zap.Uint("scheduleId", id), zap.String("field", in.Field), zap.Error(err))
		http.Error(w, "Failed to update schedule", http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), s.ProductID, activity.TypeScheduleUpdated,
		fmt.Sprintf("Updated %s on schedule #%d", in.Field, s.ID),
		map[string]any{"scheduleId": s.ID, "field": in.Field, "value": strings.Trim(string(in.Value), `"`)})

	writeJSON(w, http.StatusOK, s)
}

// DELETE /api/schedules/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	s, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load schedule failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to delete schedule", http.StatusInternalServerError)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.Log.Error("delete schedule failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to delete schedule", http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), s.ProductID, activity.TypeScheduleDeleted,
		fmt.Sprintf("Deleted schedule #%d", id), map[string]any{"scheduleId": id})

	w.WriteHeader(http.StatusNoContent)
}

/* ============================== Payments ============================== */

// POST /api/schedules/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	var in PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !in.Amount.IsPositive() {
		http.Error(w, "Payment amount must be positive", http.StatusBadRequest)
		return
	}

	now := time.Now()
	p := &Payment{
		Amount: in.Amount.Round(2),
		PaidOn: now,
		Method: strings.TrimSpace(in.Method),
		Notes:  strings.TrimSpace(in.Notes),
	}
	if in.PaidOn != nil {
		p.PaidOn = *in.PaidOn
	}

	s, err := h.Repo.RecordPayment(r.Context(), id, p, in.RemittanceReference, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.Log.Error("record payment failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to record payment", http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), s.ProductID, activity.TypePaymentRecorded,
		fmt.Sprintf("Recorded payment of %s on schedule #%d", p.Amount.StringFixed(2), id),
		map[string]any{"scheduleId": id, "paymentId": p.ID, "paymentStatus": string(s.PaymentStatus)})

	writeJSON(w, http.StatusCreated, s)
}

// GET /api/schedules/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid schedule ID", http.StatusBadRequest)
		return
	}
	s, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load payments failed", zap.Uint("scheduleId", id), zap.Error(err))
		http.Error(w, "Failed to load payments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.Payments)
}

/* ============================== Remittances ============================== */

// POST /api/remittances
func (h *Handler) CreateRemittance(w http.ResponseWriter, r *http.Request) {
	var in RemittanceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" {
		http.Error(w, "Reference is required", http.StatusBadRequest)
		return
	}
	rem := &Remittance{
		Reference:  in.Reference,
		Payer:      strings.TrimSpace(in.Payer),
		Amount:     in.Amount.Round(2),
		ReceivedOn: time.Now(),
		Payments:   []Payment{},
	}
	if in.ReceivedOn != nil {
		rem.ReceivedOn = *in.ReceivedOn
	}

	if err := h.Repo.CreateRemittance(r.Context(), rem); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Log.Error("create remittance failed", zap.String("reference", rem.Reference), zap.Error(err))
		http.Error(w, "Failed to create remittance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// GET /api/remittances
func (h *Handler) ListRemittances(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListRemittances(r.Context())
	if err != nil {
		h.Log.Error("list remittances failed", zap.Error(err))
		http.Error(w, "Failed to load remittances", http.StatusInternalServerError)
		return
	}
	for i := range list {
		if list[i].Payments == nil {
			list[i].Payments = []Payment{}
		}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/remittances/{id}
func (h *Handler) GetRemittance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid remittance ID", http.StatusBadRequest)
		return
	}
	rem, err := h.Repo.FindRemittance(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Remittance not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load remittance failed", zap.Uint("remittanceId", id), zap.Error(err))
		http.Error(w, "Failed to load remittance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/products/{id:[0-9]+}/schedules", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}/schedules", h.ListByProduct).Methods(http.MethodGet)
	r.HandleFunc("/schedules/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/schedules/{id:[0-9]+}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/schedules/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/schedules/{id:[0-9]+}/payments", h.RecordPayment).Methods(http.MethodPost)
	r.HandleFunc("/schedules/{id:[0-9]+}/payments", h.ListPayments).Methods(http.MethodGet)
	r.HandleFunc("/remittances", h.CreateRemittance).Methods(http.MethodPost)
	r.HandleFunc("/remittances", h.ListRemittances).Methods(http.MethodGet)
	r.HandleFunc("/remittances/{id:[0-9]+}", h.GetRemittance).Methods(http.MethodGet)
}
