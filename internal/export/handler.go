package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/dealdesk/api-deals/internal/metrics"
	"github.com/dealdesk/api-deals/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	Source   Source
	Activity activity.Tracker
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Now      func() time.Time
}

func NewHandler(src Source, tracker activity.Tracker, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{Source: src, Activity: tracker, Metrics: m, Log: log, Now: time.Now}
}

// Filename is the download name of an export.
func Filename(dealName, format string) string {
	return fmt.Sprintf("%s_export.%s", utils.SafeFilename(dealName), format)
}

// POST /api/deals/{id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	dealID := uint(id)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Normalize(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds, err := h.Source.Load(r.Context(), dealID, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			http.Error(w, "Deal not found", http.StatusNotFound)
		case errors.Is(err, ErrOptions):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.Log.Error("load export data failed", zap.Uint("dealId", dealID), zap.Error(err))
			http.Error(w, "Failed to export deal", http.StatusInternalServerError)
		}
		return
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if req.Format == FormatPDF {
		contentType = "application/pdf"
		err = RenderPDF(&buf, ds, &req, h.Now())
	} else {
		err = RenderCSV(&buf, ds, &req)
	}
	if err != nil {
		h.Log.Error("render export failed", zap.Uint("dealId", dealID), zap.String("format", req.Format), zap.Error(err))
		http.Error(w, "Failed to export deal", http.StatusInternalServerError)
		return
	}

	h.Metrics.Export(req.Format)
	if h.Activity != nil {
		h.Activity.Record(r.Context(), activity.Entry{
			DealID:   dealID,
			ActorID:  auth.UserID(r.Context()),
			Type:     activity.TypeDealExported,
			Summary:  fmt.Sprintf("Exported %s as %s", strings.Join(req.Sections, ", "), strings.ToUpper(req.Format)),
			Metadata: map[string]any{"format": req.Format, "sections": req.Sections},
		})
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, Filename(ds.Deal.Name, req.Format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/deals/{id:[0-9]+}/export", h.Export).Methods(http.MethodPost)
}
