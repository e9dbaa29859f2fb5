package attachment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/dealdesk/api-deals/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	Repo     *Repository
	Activity activity.Tracker
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	MaxBytes int
}

func NewHandler(repo *Repository, tracker activity.Tracker, m *metrics.Metrics, maxBytes int, log *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{Repo: repo, Activity: tracker, Metrics: m, Log: log, MaxBytes: maxBytes}
}

type uploadRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type downloadResponse struct {
	ID       uint   `json:"id"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) record(r *http.Request, a *Attachment, typ, verb string) {
	if h.Activity == nil {
		return
	}
	h.Activity.Record(r.Context(), activity.Entry{
		DealID:   a.DealID,
		ActorID:  auth.UserID(r.Context()),
		Type:     typ,
		Summary:  fmt.Sprintf("%s attachment %s", verb, a.FileName),
		Metadata: map[string]any{"attachmentId": a.ID, "sizeBytes": a.SizeBytes},
	})
}

// POST /api/deals/{id}/attachments
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}

	// base64 inflates by 4/3; leave room for the JSON envelope
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.MaxBytes)*4/3+64<<10)
	var in uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "Attachment exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	data, dataURLMime, err := Decode(in.Data, h.MaxBytes)
	switch {
	case errors.Is(err, ErrTooLarge):
		http.Error(w, "Attachment exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := &Attachment{
		Key:       uuid.NewString(),
		DealID:    dealID,
		FileName:  CleanFileName(in.FileName),
		MimeType:  MimeType(in.MimeType, dataURLMime, data),
		SizeBytes: len(data),
		Data:      data,
	}
	if uid := auth.UserID(r.Context()); uid != 0 {
		a.UploadedBy = &uid
	}
	if err := h.Repo.Create(r.Context(), a); err != nil {
		h.Log.Error("store attachment failed", zap.Uint("dealId", dealID), zap.Int("sizeBytes", a.SizeBytes), zap.Error(err))
		http.Error(w, "Failed to upload attachment", http.StatusInternalServerError)
		return
	}
	h.Metrics.AttachmentUploaded(a.SizeBytes)
	h.record(r, a, activity.TypeAttachmentUploaded, "Uploaded")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(a)
}

// GET /api/deals/{id}/attachments
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	list, err := h.Repo.ListByDeal(r.Context(), dealID)
	if err != nil {
		h.Log.Error("list attachments failed", zap.Uint("dealId", dealID), zap.Error(err))
		http.Error(w, "Failed to load attachments", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /api/attachments/{id}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid attachment ID", http.StatusBadRequest)
		return
	}
	a, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Attachment not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load attachment failed", zap.Uint("attachmentId", id), zap.Error(err))
		http.Error(w, "Failed to download attachment", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(downloadResponse{
		ID:       a.ID,
		FileName: a.FileName,
		MimeType: a.MimeType,
		Data:     Encode(a.Data),
	})
}

// DELETE /api/attachments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid attachment ID", http.StatusBadRequest)
		return
	}
	a, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Attachment not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load attachment failed", zap.Uint("attachmentId", id), zap.Error(err))
		http.Error(w, "Failed to delete attachment", http.StatusInternalServerError)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.Log.Error("delete attachment failed", zap.Uint("attachmentId", id), zap.Error(err))
		http.Error(w, "Failed to delete attachment", http.StatusInternalServerError)
		return
	}
	h.record(r, a, activity.TypeAttachmentDeleted, "Deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals/{id:[0-9]+}/attachments", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/attachments", h.ListByDeal).Methods(http.MethodGet)
	r.HandleFunc("/attachments/{id:[0-9]+}/download", h.Download).Methods(http.MethodGet)
	r.HandleFunc("/attachments/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
}
