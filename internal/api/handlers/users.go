package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Togather-Foundation/gather/internal/api/middleware"
	"github.com/Togather-Foundation/gather/internal/api/problem"
	"github.com/Togather-Foundation/gather/internal/audit"
	"github.com/Togather-Foundation/gather/internal/auth"
	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/Togather-Foundation/gather/internal/metrics"
)

type UsersHandler struct {
	Service *users.Service
	Tokens  *auth.JWTManager
	Audit   *audit.Logger
	Env     string
	// SecureCookie marks the session cookie Secure; off for plain-HTTP development.
	SecureCookie bool
}

func NewUsersHandler(service *users.Service, tokens *auth.JWTManager, auditLogger *audit.Logger, env string) *UsersHandler {
	return &UsersHandler{
		Service:      service,
		Tokens:       tokens,
		Audit:        auditLogger,
		Env:          env,
		SecureCookie: env == "production",
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// Register handles POST /api/v1/users/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input users.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Service.Register(r.Context(), input)
	if err != nil {
		h.Audit.Account(r, audit.ActionUserRegister, input.Username, audit.StatusFailure)
		writeError(w, r, err, h.Env)
		return
	}

	metrics.UsersRegisteredTotal.Inc()
	h.Audit.Account(r, audit.ActionUserRegister, user.Username, audit.StatusSuccess)
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// Login handles POST /api/v1/users/login. The token is returned in the body
// and also set as an HttpOnly session cookie.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Service.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.Audit.Account(r, audit.ActionUserLogin, input.Username, audit.StatusFailure)
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, h.Env,
				problem.WithDetail(detailInvalidCredentials))
			return
		}
		writeError(w, r, err, h.Env)
		return
	}

	token, expiresAt, err := h.Tokens.Generate(user.ID, user.Username)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.Audit.Account(r, audit.ActionUserLogin, user.Username, audit.StatusSuccess)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, User: newUserResponse(user)})
}

// Me returns the authenticated caller.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env,
			problem.WithDetail(detailNotAuthenticated))
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
