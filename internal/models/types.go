package models

// MediaType represents the type of media (movie or tv series)
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether the media type is one the catalog understands
func (t MediaType) Valid() bool {
	return t == MediaTypeMovie || t == MediaTypeTV
}

// SortOrder represents the requested ordering of a watchlist
type SortOrder string

const (
	SortByAddedAt SortOrder = "added_at" // default, newest first
	SortByRating  SortOrder = "rating"   // own rating, unrated last
	SortByTitle   SortOrder = "title"    // locale-aware, applied after enrichment
)

// ParseSortOrder maps a query parameter to a SortOrder, defaulting to added_at
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortByRating:
		return SortByRating
	case SortByTitle:
		return SortByTitle
	default:
		return SortByAddedAt
	}
}
