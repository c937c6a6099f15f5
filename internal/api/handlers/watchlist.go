package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/api/middleware"
	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/models"
)

// WatchlistHandler handles the watchlist endpoints
type WatchlistHandler struct {
	watchlistCtrl *controllers.WatchlistController
	logger        *logrus.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlistCtrl *controllers.WatchlistController, logger *logrus.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlistCtrl: watchlistCtrl, logger: logger}
}

type addRequest struct {
	MovieID   int64            `json:"movie_id"`
	MediaType models.MediaType `json:"media_type"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// intersectionItem is the trimmed shape for jointly unwatched items: the
// defining predicate guarantees neither side has a rating, so none is emitted
type intersectionItem struct {
	MovieID     int64            `json:"movie_id"`
	MediaType   models.MediaType `json:"media_type"`
	AddedAt     time.Time        `json:"added_at"`
	Title       *string          `json:"title"`
	ReleaseDate *string          `json:"release_date"`
	PosterPath  *string          `json:"poster_path"`
	Overview    *string          `json:"overview"`
	Genres      *string          `json:"genres"`
	Runtime     *int             `json:"runtime"`
	VoteAverage *float64         `json:"vote_average"`
}

// MyList handles GET /api/watchlist/me?sort=
func (h *WatchlistHandler) MyList(w http.ResponseWriter, r *http.Request) {
	sortBy := models.ParseSortOrder(r.URL.Query().Get("sort"))

	items, err := h.watchlistCtrl.MyList(r.Context(), middleware.UserID(r), sortBy)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PartnerList handles GET /api/watchlist/partner
func (h *WatchlistHandler) PartnerList(w http.ResponseWriter, r *http.Request) {
	items, err := h.watchlistCtrl.PartnerList(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Intersections handles GET /api/watchlist/intersections
func (h *WatchlistHandler) Intersections(w http.ResponseWriter, r *http.Request) {
	items, err := h.watchlistCtrl.Intersections(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	trimmed := make([]intersectionItem, 0, len(items))
	for _, item := range items {
		trimmed = append(trimmed, intersectionItem{
			MovieID:     item.MovieID,
			MediaType:   item.MediaType,
			AddedAt:     item.AddedAt,
			Title:       item.Title,
			ReleaseDate: item.ReleaseDate,
			PosterPath:  item.PosterPath,
			Overview:    item.Overview,
			Genres:      item.Genres,
			Runtime:     item.Runtime,
			VoteAverage: item.VoteAverage,
		})
	}
	writeJSON(w, http.StatusOK, trimmed)
}

// Add handles POST /api/watchlist/me
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	item, err := h.watchlistCtrl.Add(r.Context(), middleware.UserID(r), req.MovieID, req.MediaType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Remove handles DELETE /api/watchlist/me/{id}?type=
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	movieID, mediaType, err := h.itemParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.watchlistCtrl.Remove(middleware.UserID(r), movieID, mediaType); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Rate handles PUT /api/watchlist/me/{id}/rate?type=
func (h *WatchlistHandler) Rate(w http.ResponseWriter, r *http.Request) {
	movieID, mediaType, err := h.itemParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.watchlistCtrl.Rate(middleware.UserID(r), movieID, mediaType, req.Rating); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Unrate handles DELETE /api/watchlist/me/{id}/rate?type=
func (h *WatchlistHandler) Unrate(w http.ResponseWriter, r *http.Request) {
	movieID, mediaType, err := h.itemParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.watchlistCtrl.Unrate(middleware.UserID(r), movieID, mediaType); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// itemParams parses the {id} path segment and ?type= query parameter
func (h *WatchlistHandler) itemParams(r *http.Request) (int64, models.MediaType, error) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || movieID <= 0 {
		return 0, "", apperr.BadRequest("invalid_id", "A numeric item id is required")
	}

	mediaType := models.MediaType(r.URL.Query().Get("type"))
	if !mediaType.Valid() {
		return 0, "", apperr.BadRequest("invalid_type", "type must be movie or tv")
	}

	return movieID, mediaType, nil
}
