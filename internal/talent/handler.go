package talent

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealdesk/api-deals/internal/agent"
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

type createRequest struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	CostCenter      string `json:"costCenter"`
	CostCenterGroup string `json:"costCenterGroup"`
	AgentIDs        []uint `json:"agentIds"`
}

type agentsRequest struct {
	AgentIDs []uint `json:"agentIds"`
}

// POST /api/talents
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	t := &TalentClient{
		Name:            strings.TrimSpace(in.Name),
		Category:        strings.TrimSpace(in.Category),
		CostCenter:      strings.TrimSpace(in.CostCenter),
		CostCenterGroup: strings.TrimSpace(in.CostCenterGroup),
		Agents:          []agent.Agent{},
	}
	if t.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if err := h.Repo.Create(r.Context(), t); err != nil {
		h.Log.Error("create talent failed", zap.String("name", t.Name), zap.Error(err))
		http.Error(w, "Failed to create talent", http.StatusInternalServerError)
		return
	}
	if len(in.AgentIDs) > 0 {
		updated, err := h.Repo.ReplaceAgents(r.Context(), t.ID, in.AgentIDs)
		if err != nil {
			h.agentsError(w, err, t.ID)
			return
		}
		t = updated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(t)
}

// GET /api/talents?q=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error("list talents failed", zap.Error(err))
		http.Error(w, "Failed to load talents", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /api/talents/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid talent ID", http.StatusBadRequest)
		return
	}
	t, err := h.Repo.FindByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Talent not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load talent failed", zap.Int("talentId", id), zap.Error(err))
		http.Error(w, "Failed to load talent", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}

// PUT /api/talents/{id}/agents
func (h *Handler) ReplaceAgents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid talent ID", http.StatusBadRequest)
		return
	}
	var in agentsRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	t, err := h.Repo.ReplaceAgents(r.Context(), uint(id), in.AgentIDs)
	if err != nil {
		h.agentsError(w, err, uint(id))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}

func (h *Handler) agentsError(w http.ResponseWriter, err error, id uint) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Talent not found", http.StatusNotFound)
	case errors.Is(err, ErrUnknownAgent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Log.Error("replace talent agents failed", zap.Uint("talentId", id), zap.Error(err))
		http.Error(w, "Failed to update talent agents", http.StatusInternalServerError)
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/talents", h.List).Methods(http.MethodGet)
	r.HandleFunc("/talents", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/talents/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/talents/{id:[0-9]+}/agents", h.ReplaceAgents).Methods(http.MethodPut)
}
