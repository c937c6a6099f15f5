package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/models"
)

func newTestClient(baseURL string) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return &Client{
		apiKey:     "test-key",
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cache:      gocache.New(searchTTL, 30*time.Minute),
		logger:     logger,
	}
}

func TestSearchNormalizesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("expected api_key query parameter")
		}
		if r.URL.Query().Get("query") != "dune" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("query"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 438631, "media_type": "movie", "title": "Dune", "release_date": "2021-09-15", "poster_path": "/p1.jpg", "vote_average": 7.8},
				{"id": 90228, "media_type": "tv", "name": "Dune: Prophecy", "first_air_date": "2024-11-17", "poster_path": "/p2.jpg"},
				{"id": 12345, "media_type": "person", "name": "Denis Villeneuve"}
			],
			"total_pages": 1,
			"total_results": 3
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Search(context.Background(), "dune", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results after filtering, got %d", len(result.Results))
	}

	movie := result.Results[0]
	if movie.Title != "Dune" || movie.MediaType != models.MediaTypeMovie {
		t.Errorf("unexpected movie result: %+v", movie)
	}
	if movie.ReleaseDate != "2021-09-15" {
		t.Errorf("unexpected release date: %s", movie.ReleaseDate)
	}

	series := result.Results[1]
	if series.Title != "Dune: Prophecy" {
		t.Errorf("series title not resolved from name field: %s", series.Title)
	}
	if series.ReleaseDate != "2024-11-17" {
		t.Errorf("series release date not resolved from first_air_date: %s", series.ReleaseDate)
	}
}

func TestSearchCachesResults(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page": 1, "results": [], "total_pages": 0, "total_results": 0}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "dune", 1); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}

	// A different page is a different cache entry
	if _, err := client.Search(context.Background(), "dune", 2); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 upstream requests after page change, got %d", got)
	}
}

func TestGetDetailNormalizesMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/438631" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 438631,
			"title": "Dune",
			"release_date": "2021-09-15",
			"genres": [{"name": "Science Fiction"}, {"name": "Adventure"}],
			"runtime": 155,
			"vote_average": 7.8
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.GetDetail(context.Background(), 438631, models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}

	if detail.Runtime == nil || *detail.Runtime != 155 {
		t.Errorf("unexpected runtime: %v", detail.Runtime)
	}
	if detail.VoteAverage == nil || *detail.VoteAverage != 7.8 {
		t.Errorf("unexpected vote average: %v", detail.VoteAverage)
	}
	joined := detail.GenresJoined()
	if joined == nil || *joined != "Science Fiction, Adventure" {
		t.Errorf("unexpected joined genres: %v", joined)
	}
}

func TestGetDetailSeriesHasNoRuntime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/90228" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 90228,
			"name": "Dune: Prophecy",
			"first_air_date": "2024-11-17",
			"genres": [],
			"runtime": 60,
			"vote_average": 0
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.GetDetail(context.Background(), 90228, models.MediaTypeTV)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}

	if detail.Title != "Dune: Prophecy" {
		t.Errorf("unexpected title: %s", detail.Title)
	}
	if detail.Runtime != nil {
		t.Errorf("series runtime should be nil, got %d", *detail.Runtime)
	}
	if detail.VoteAverage != nil {
		t.Errorf("zero vote average should be nil, got %f", *detail.VoteAverage)
	}
	if detail.GenresJoined() != nil {
		t.Error("empty genres should join to nil")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"not found", http.StatusNotFound, KindNotFound},
		{"gateway timeout", http.StatusGatewayTimeout, KindTimeout},
		{"server error", http.StatusInternalServerError, KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.GetDetail(context.Background(), 1, models.MediaTypeMovie)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestGetImageConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images": {"secure_base_url": "https://image.tmdb.org/t/p/", "poster_sizes": ["w92", "w500", "original"]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	cfg, err := client.GetImageConfig(context.Background())
	if err != nil {
		t.Fatalf("GetImageConfig failed: %v", err)
	}

	if cfg.BaseURL != "https://image.tmdb.org/t/p/" {
		t.Errorf("unexpected base URL: %s", cfg.BaseURL)
	}
	if len(cfg.PosterSizes) != 3 {
		t.Errorf("unexpected poster sizes: %v", cfg.PosterSizes)
	}
}
