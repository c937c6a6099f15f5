package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/tmdb"
)

func TestSearchEmptyQuerySkipsCatalog(t *testing.T) {
	f := newWatchlistFixture(t)
	ctrl := NewCatalogController(f.db, f.catalog, testLogger())

	result, err := ctrl.Search(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
	assert.Equal(t, 0, f.catalog.searchCalls)
}

func TestSearchPassesThrough(t *testing.T) {
	f := newWatchlistFixture(t)
	f.catalog.search = &tmdb.SearchResult{
		Page:         1,
		Results:      []tmdb.Item{{ID: 550, MediaType: models.MediaTypeMovie, Title: "Fight Club"}},
		TotalPages:   1,
		TotalResults: 1,
	}
	ctrl := NewCatalogController(f.db, f.catalog, testLogger())

	result, err := ctrl.Search(context.Background(), "fight club", 1)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Fight Club", result.Results[0].Title)
	assert.Equal(t, 1, f.catalog.searchCalls)
}

func TestGetDetailUsesDurableCache(t *testing.T) {
	f := newWatchlistFixture(t)
	f.catalog.addMovie(550, "Fight Club")
	ctrl := NewCatalogController(f.db, f.catalog, testLogger())

	detail, err := ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", detail.Title)
	assert.Equal(t, 1, f.catalog.detailCallCount())

	// The durable copy now answers without an upstream call
	detail, err = ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", detail.Title)
	assert.Equal(t, 1, f.catalog.detailCallCount())

	// Which also bridges a catalog outage
	f.catalog.err = &tmdb.Error{Kind: tmdb.KindUnavailable, Status: 503}
	detail, err = ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", detail.Title)
}

func TestGetDetailRefreshesStaleCache(t *testing.T) {
	f := newWatchlistFixture(t)
	f.catalog.addMovie(550, "Fight Club")
	ctrl := NewCatalogController(f.db, f.catalog, testLogger())

	_, err := ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
	require.NoError(t, err)
	require.Equal(t, 1, f.catalog.detailCallCount())

	orig := timeNow
	timeNow = func() time.Time { return orig().Add(models.CacheValidity + time.Hour) }
	defer func() { timeNow = orig }()

	_, err = ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, 2, f.catalog.detailCallCount())

	// The refetch restarted the validity window
	row, err := f.db.GetMovieCache(550, models.MediaTypeMovie)
	require.NoError(t, err)
	assert.True(t, row.Fresh(orig()))
}

func TestGetDetailErrorMapping(t *testing.T) {
	tests := []struct {
		kind   tmdb.ErrorKind
		status int
		code   string
	}{
		{tmdb.KindNotFound, 404, "title_not_found"},
		{tmdb.KindRateLimited, 502, "catalog_rate_limited"},
		{tmdb.KindTimeout, 502, "catalog_timeout"},
		{tmdb.KindUnavailable, 502, "catalog_unavailable"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f := newWatchlistFixture(t)
			f.catalog.err = &tmdb.Error{Kind: tt.kind}
			ctrl := NewCatalogController(f.db, f.catalog, testLogger())

			_, err := ctrl.GetDetail(context.Background(), 550, models.MediaTypeMovie)
			require.Error(t, err)
			appErr := apperr.From(err)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}
