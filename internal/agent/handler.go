package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/dealdesk/api-deals/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const searchLimit = 50

type Handler struct {
	DB   *gorm.DB
	Repo *Repository
	Log  *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{DB: db, Repo: NewRepository(db), Log: log}
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.Repo.FindByEmail(r.Context(), req.Email)
	if err != nil || user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	access, err := auth.IssueTokensOnLogin(h.DB, w, user.ID, user.IsAdmin)
	if err != nil {
		h.Log.Error("issue tokens failed", zap.Uint("agentId", user.ID), zap.Error(err))
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		auth.TokenResponse
		MustResetPassword bool `json:"mustResetPassword"`
	}{auth.NewTokenResponse(access), user.MustResetPassword})
}

// POST /api/agents (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			http.Error(w, "Invalid email", http.StatusBadRequest)
			return
		}
		taken, err := h.Repo.EmailTaken(r.Context(), req.Email)
		if err != nil {
			h.Log.Error("check email failed", zap.Error(err))
			http.Error(w, "Failed to create agent", http.StatusInternalServerError)
			return
		}
		if taken {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
	}

	a := &Agent{
		Name:            req.Name,
		Email:           req.Email,
		Title:           strings.TrimSpace(req.Title),
		Agency:          strings.TrimSpace(req.Agency),
		CostCenter:      strings.TrimSpace(req.CostCenter),
		CostCenterGroup: strings.TrimSpace(req.CostCenterGroup),
		IsAdmin:         req.IsAdmin,
	}

	var temp string
	if a.Email != "" {
		password := req.Password
		if password == "" {
			p, err := utils.GenerateTemporaryPassword()
			if err != nil {
				h.Log.Error("generate password failed", zap.Error(err))
				http.Error(w, "Failed to create agent", http.StatusInternalServerError)
				return
			}
			password, temp = p, p
			a.MustResetPassword = true
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			h.Log.Error("hash password failed", zap.Error(err))
			http.Error(w, "Failed to create agent", http.StatusInternalServerError)
			return
		}
		a.PasswordHash = hash
	}

	if err := h.Repo.Create(r.Context(), a); err != nil {
		h.Log.Error("create agent failed", zap.String("name", a.Name), zap.Error(err))
		http.Error(w, "Failed to create agent", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CreateResponse{Agent: a, TemporaryPassword: temp})
}

// GET /api/agents?q=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.Search(r.Context(), r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		h.Log.Error("list agents failed", zap.Error(err))
		http.Error(w, "Failed to load agents", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /api/agents/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid agent ID", http.StatusBadRequest)
		return
	}
	a, err := h.Repo.FindByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Agent not found", http.StatusNotFound)
			return
		}
		h.Log.Error("load agent failed", zap.Int("agentId", id), zap.Error(err))
		http.Error(w, "Failed to load agent", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	a, err := h.Repo.FindByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// PUT /api/me/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"currentPassword"`
		New     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.New) < 8 {
		http.Error(w, "Password must have at least 8 characters", http.StatusBadRequest)
		return
	}
	a, err := h.Repo.FindByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}
	if !utils.CheckPassword(a.PasswordHash, req.Current) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	hash, err := utils.HashPassword(req.New)
	if err != nil {
		h.Log.Error("hash password failed", zap.Error(err))
		http.Error(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	if err := h.Repo.UpdatePassword(r.Context(), a.ID, hash); err != nil {
		h.Log.Error("update password failed", zap.Uint("agentId", a.ID), zap.Error(err))
		http.Error(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/agents", h.List).Methods(http.MethodGet)
	r.Handle("/agents", auth.RequireAdmin(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.HandleFunc("/agents/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	r.HandleFunc("/me/password", h.ChangePassword).Methods(http.MethodPut)
}
