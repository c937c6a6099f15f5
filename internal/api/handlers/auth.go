package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/api/middleware"
	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/controllers"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	authCtrl   *controllers.AuthController
	jwtManager *auth.JWTManager
	logger     *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authCtrl *controllers.AuthController, jwtManager *auth.JWTManager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authCtrl:   authCtrl,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.authCtrl.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondSession(w, http.StatusCreated, user.ID, user.Email, func() userResponse {
		return newUserResponse(user)
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.authCtrl.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondSession(w, http.StatusOK, user.ID, user.Email, func() userResponse {
		return newUserResponse(user)
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authCtrl.GetUser(middleware.UserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// DeleteAccount handles DELETE /api/auth/account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.authCtrl.DeleteAccount(middleware.UserID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// respondSession issues a token, sets the cookie and writes the session body
func (h *AuthHandler) respondSession(w http.ResponseWriter, status int, userID, email string, user func() userResponse) {
	token, err := h.jwtManager.GenerateToken(userID, email)
	if err != nil {
		writeError(w, h.logger, apperr.Internal(err))
		return
	}

	auth.SetSessionCookie(w, token)
	writeJSON(w, status, sessionResponse{User: user(), Token: token})
}
