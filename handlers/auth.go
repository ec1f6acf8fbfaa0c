package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"notula-server/middleware"
	"notula-server/models"
	"notula-server/store"
)

type AuthHandler struct {
	store  *store.Store
	auth   *middleware.Authenticator
	logger *zap.Logger
}

func NewAuthHandler(s *store.Store, auth *middleware.Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, auth: auth, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if existing, _ := h.store.GetUserByUsername(req.Username); existing != nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	user, err := h.store.CreateUser(req.Username, req.DisplayName, req.Password)
	if err != nil {
		h.logger.Error("create user failed", zap.String("username", req.Username), zap.Error(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByUsername(strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil || !h.store.ValidatePassword(user, req.Password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(middleware.GetUserID(r))
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user.ToResponse())
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("generate token failed", zap.String("user", user.ID), zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, models.AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
