package tmdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/duowatch/duowatch/internal/models"
)

// ErrorKind classifies catalog failures so callers never have to inspect
// error text
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindNotFound    ErrorKind = "not_found"
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
)

// Error is a typed catalog error
type Error struct {
	Kind   ErrorKind
	Status int // upstream HTTP status, 0 for network-level failures
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog error: %s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("catalog error: %s", e.Kind)
}

// IsKind reports whether err is a catalog error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var catErr *Error
	return errors.As(err, &catErr) && catErr.Kind == kind
}

// Item is the normalized shape of one search result. Title and ReleaseDate
// are already resolved across the movie/series field variants.
type Item struct {
	ID          int64            `json:"id"`
	MediaType   models.MediaType `json:"media_type"`
	Title       string           `json:"title"`
	ReleaseDate string           `json:"release_date"`
	PosterPath  string           `json:"poster_path"`
	Overview    string           `json:"overview"`
	VoteAverage float64          `json:"vote_average"`
}

// SearchResult is one page of normalized search results
type SearchResult struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// Detail is the normalized shape of a detail response. Pointer fields are nil
// when the catalog did not provide a value.
type Detail struct {
	ID          int64            `json:"id"`
	MediaType   models.MediaType `json:"media_type"`
	Title       string           `json:"title"`
	ReleaseDate string           `json:"release_date"`
	PosterPath  string           `json:"poster_path"`
	Overview    string           `json:"overview"`
	Genres      []string         `json:"genres"`
	Runtime     *int             `json:"runtime"` // minutes, movies only
	VoteAverage *float64         `json:"vote_average"`
}

// GenresJoined returns the comma-joined genre summary stored in snapshots,
// or nil if the catalog listed no genres
func (d *Detail) GenresJoined() *string {
	if len(d.Genres) == 0 {
		return nil
	}
	joined := strings.Join(d.Genres, ", ")
	return &joined
}

// ImageConfig describes how to build poster URLs
type ImageConfig struct {
	BaseURL     string   `json:"base_url"`
	PosterSizes []string `json:"poster_sizes"`
}

// Upstream wire shapes

type searchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID           int64   `json:"id"`
		MediaType    string  `json:"media_type"`
		Title        string  `json:"title"`          // movies
		Name         string  `json:"name"`           // series
		ReleaseDate  string  `json:"release_date"`   // movies
		FirstAirDate string  `json:"first_air_date"` // series
		PosterPath   string  `json:"poster_path"`
		Overview     string  `json:"overview"`
		VoteAverage  float64 `json:"vote_average"`
	} `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

type detailResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
	Overview     string `json:"overview"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
}

type configResponse struct {
	Images struct {
		SecureBaseURL string   `json:"secure_base_url"`
		PosterSizes   []string `json:"poster_sizes"`
	} `json:"images"`
}
