package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/api/middleware"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/models"
)

// PairsHandler handles the pairing endpoints
type PairsHandler struct {
	pairingCtrl *controllers.PairingController
	authCtrl    *controllers.AuthController
	logger      *logrus.Logger
}

// NewPairsHandler creates a new pairs handler
func NewPairsHandler(pairingCtrl *controllers.PairingController, authCtrl *controllers.AuthController, logger *logrus.Logger) *PairsHandler {
	return &PairsHandler{
		pairingCtrl: pairingCtrl,
		authCtrl:    authCtrl,
		logger:      logger,
	}
}

type pairResponse struct {
	Code      string        `json:"code"`
	Open      bool          `json:"open"`
	CreatedAt time.Time     `json:"created_at"`
	Partner   *userResponse `json:"partner"`
}

type joinRequest struct {
	Code string `json:"code"`
}

// Get handles GET /api/pairs: the caller's pair, or null
func (h *PairsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	pair, err := h.pairingCtrl.Get(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if pair == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	writeJSON(w, http.StatusOK, h.buildResponse(pair, userID))
}

// Create handles POST /api/pairs/create
func (h *PairsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	pair, err := h.pairingCtrl.Create(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.buildResponse(pair, userID))
}

// Join handles POST /api/pairs/join
func (h *PairsHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pair, err := h.pairingCtrl.Join(userID, req.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.buildResponse(pair, userID))
}

// Leave handles POST /api/pairs/leave
func (h *PairsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.pairingCtrl.Leave(middleware.UserID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// buildResponse shapes a pair for the caller, resolving the partner's
// profile when the pair is closed
func (h *PairsHandler) buildResponse(pair *models.Pair, userID string) pairResponse {
	resp := pairResponse{
		Code:      pair.Code,
		Open:      pair.Open(),
		CreatedAt: pair.CreatedAt,
	}

	if partnerID := pair.PartnerOf(userID); partnerID != nil {
		partner, err := h.authCtrl.GetUser(*partnerID)
		if err != nil {
			h.logger.WithError(err).Warn("Failed to resolve partner profile")
		} else {
			p := newUserResponse(partner)
			resp.Partner = &p
		}
	}

	return resp
}
