package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/models"
)

// MoviesHandler handles catalog browsing endpoints
type MoviesHandler struct {
	catalogCtrl *controllers.CatalogController
	logger      *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(catalogCtrl *controllers.CatalogController, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{catalogCtrl: catalogCtrl, logger: logger}
}

// Search handles GET /api/movies/search?q=&page=
func (h *MoviesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			writeError(w, h.logger, apperr.BadRequest("invalid_page", "page must be a positive number"))
			return
		}
		page = parsed
	}

	result, err := h.catalogCtrl.Search(r.Context(), query, page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Detail handles GET /api/movies/{id}?type=movie|tv
func (h *MoviesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || movieID <= 0 {
		writeError(w, h.logger, apperr.BadRequest("invalid_id", "A numeric item id is required"))
		return
	}

	mediaType := models.MediaType(r.URL.Query().Get("type"))
	if !mediaType.Valid() {
		writeError(w, h.logger, apperr.BadRequest("invalid_type", "type must be movie or tv"))
		return
	}

	detail, err := h.catalogCtrl.GetDetail(r.Context(), movieID, mediaType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ImageConfig handles GET /api/movies/config/image
func (h *MoviesHandler) ImageConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.catalogCtrl.GetImageConfig(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
