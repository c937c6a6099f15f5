package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/tmdb"
)

// timeNow is swapped out in tests to control the cache validity window
var timeNow = time.Now

// catalogAPI is the slice of the TMDB client the controller consumes
type catalogAPI interface {
	Search(ctx context.Context, query string, page int) (*tmdb.SearchResult, error)
	GetDetail(ctx context.Context, movieID int64, mediaType models.MediaType) (*tmdb.Detail, error)
	GetImageConfig(ctx context.Context) (*tmdb.ImageConfig, error)
}

// CatalogController layers the durable metadata cache over the TMDB client.
// The durable cache short-circuits the TTL-cached upstream path entirely for
// detail lookups.
type CatalogController struct {
	db     *models.Database
	tmdb   catalogAPI
	logger *logrus.Logger
}

// NewCatalogController creates a new catalog controller
func NewCatalogController(db *models.Database, client catalogAPI, logger *logrus.Logger) *CatalogController {
	return &CatalogController{db: db, tmdb: client, logger: logger}
}

// Search passes a search through to the catalog. An empty query returns an
// empty page without touching the catalog at all.
func (c *CatalogController) Search(ctx context.Context, query string, page int) (*tmdb.SearchResult, error) {
	if query == "" {
		return &tmdb.SearchResult{Page: 1, Results: []tmdb.Item{}}, nil
	}

	result, err := c.tmdb.Search(ctx, query, page)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return result, nil
}

// GetDetail resolves item detail, consulting the durable cache before the
// TTL cache/upstream chain. A fresh upstream response opportunistically
// overwrites the durable copy; a failed write is swallowed.
func (c *CatalogController) GetDetail(ctx context.Context, movieID int64, mediaType models.MediaType) (*tmdb.Detail, error) {
	if row, err := c.db.GetMovieCache(movieID, mediaType); err == nil && row.Fresh(timeNow()) {
		var detail tmdb.Detail
		if err := json.Unmarshal(row.Payload, &detail); err == nil {
			return &detail, nil
		}
		c.logger.WithFields(logrus.Fields{
			"movie_id": movieID,
			"type":     mediaType,
		}).Warn("Corrupt movie_cache payload, refetching")
	}

	detail, err := c.tmdb.GetDetail(ctx, movieID, mediaType)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	if payload, err := json.Marshal(detail); err == nil {
		if err := c.db.UpsertMovieCache(movieID, mediaType, payload); err != nil {
			c.logger.WithError(err).Warn("Failed to write movie_cache")
		}
	}

	return detail, nil
}

// GetImageConfig passes the image configuration through
func (c *CatalogController) GetImageConfig(ctx context.Context) (*tmdb.ImageConfig, error) {
	cfg, err := c.tmdb.GetImageConfig(ctx)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return cfg, nil
}

// mapCatalogError translates typed catalog error kinds into API errors
func mapCatalogError(err error) error {
	switch {
	case tmdb.IsKind(err, tmdb.KindNotFound):
		return apperr.NotFound("title_not_found", "Title not found in the catalog")
	case tmdb.IsKind(err, tmdb.KindRateLimited):
		return apperr.Upstream("catalog_rate_limited", "The catalog is rate limiting us, try again shortly").WithCause(err)
	case tmdb.IsKind(err, tmdb.KindTimeout):
		return apperr.Upstream("catalog_timeout", "The catalog did not answer in time").WithCause(err)
	case tmdb.IsKind(err, tmdb.KindUnavailable):
		return apperr.Upstream("catalog_unavailable", "The catalog is currently unavailable").WithCause(err)
	default:
		return apperr.Internal(err)
	}
}
