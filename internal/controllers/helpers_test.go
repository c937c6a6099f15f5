package controllers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/tmdb"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *models.Database, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  "Test User",
	}
	require.NoError(t, db.CreateUser(user))
	return user
}

// fakeCatalog satisfies both the enrichment detail source and the full
// catalog API, serving canned details and counting upstream calls
type fakeCatalog struct {
	mu          sync.Mutex
	details     map[entryKey]*tmdb.Detail
	err         error
	detailCalls int
	searchCalls int
	search      *tmdb.SearchResult
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{details: make(map[entryKey]*tmdb.Detail)}
}

func (f *fakeCatalog) GetDetail(_ context.Context, movieID int64, mediaType models.MediaType) (*tmdb.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.err != nil {
		return nil, f.err
	}
	detail, ok := f.details[entryKey{movieID, mediaType}]
	if !ok {
		return nil, &tmdb.Error{Kind: tmdb.KindNotFound, Status: 404}
	}
	return detail, nil
}

func (f *fakeCatalog) Search(_ context.Context, _ string, _ int) (*tmdb.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

func (f *fakeCatalog) GetImageConfig(_ context.Context) (*tmdb.ImageConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.ImageConfig{BaseURL: "https://image.example/t/p/", PosterSizes: []string{"w500"}}, nil
}

func (f *fakeCatalog) detailCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls
}

func (f *fakeCatalog) addMovie(movieID int64, title string) *tmdb.Detail {
	runtime := 120
	vote := 7.5
	detail := &tmdb.Detail{
		ID:          movieID,
		MediaType:   models.MediaTypeMovie,
		Title:       title,
		ReleaseDate: "2021-09-15",
		PosterPath:  "/poster.jpg",
		Overview:    "A test movie.",
		Genres:      []string{"Drama", "Adventure"},
		Runtime:     &runtime,
		VoteAverage: &vote,
	}
	f.details[entryKey{movieID, models.MediaTypeMovie}] = detail
	return detail
}

func (f *fakeCatalog) addSeries(movieID int64, title string) *tmdb.Detail {
	vote := 8.1
	detail := &tmdb.Detail{
		ID:          movieID,
		MediaType:   models.MediaTypeTV,
		Title:       title,
		ReleaseDate: "2024-11-17",
		PosterPath:  "/series.jpg",
		Overview:    "A test series.",
		Genres:      []string{"Sci-Fi"},
		VoteAverage: &vote,
	}
	f.details[entryKey{movieID, models.MediaTypeTV}] = detail
	return detail
}
