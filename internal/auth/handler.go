package auth

import (
	"errors"
	"net/http"
	"time"

	"prismtrack/backend/internal/server/httpjson"
)

// Handler serves the /auth routes.
type Handler struct {
	auth *Service
}

// NewHandler returns the auth handler.
func NewHandler(auth *Service) *Handler {
	return &Handler{auth: auth}
}

type loginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func viewPair(p *TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    p.ExpiresAt,
	}
}

// AdminLogin handles POST /auth/platform-admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	login := req.Login
	if login == "" {
		login = req.Email
	}
	if login == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("login and password are required"))
		return
	}
	pair, _, err := h.auth.AdminLogin(r.Context(), login, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewPair(pair))
}

// TenantLogin handles POST /auth/tenant/login.
func (h *Handler) TenantLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("email and password are required"))
		return
	}
	pair, _, err := h.auth.TenantLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewPair(pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.RefreshToken == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("refresh_token is required"))
		return
	}
	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewPair(pair))
}
