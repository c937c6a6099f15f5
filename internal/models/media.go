package models

import "time"

// User is a registered account. PasswordHash is nil for OAuth-only accounts,
// AppleSub is nil for password-only accounts.
type User struct {
	ID           string  `gorm:"primaryKey"`
	Email        string  `gorm:"uniqueIndex;not null"`
	PasswordHash *string
	AppleSub     *string `gorm:"uniqueIndex"`
	Name         string
	AvatarPath   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName maps User to the users table
func (User) TableName() string { return "users" }

// Pair links an initiator with at most one joiner via a 6-digit numeric code.
// A pair with no joiner is open and joinable by its code.
type Pair struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"index;not null"`
	InitiatorID string `gorm:"index;not null"`
	JoinerID    *string `gorm:"index"`

	CreatedAt time.Time
}

// TableName maps Pair to the pairs table
func (Pair) TableName() string { return "pairs" }

// Open reports whether the pair is still waiting for a joiner
func (p *Pair) Open() bool { return p.JoinerID == nil }

// PartnerOf returns the other member's user ID, or nil if there is none
func (p *Pair) PartnerOf(userID string) *string {
	if p.InitiatorID == userID {
		return p.JoinerID
	}
	if p.JoinerID != nil && *p.JoinerID == userID {
		id := p.InitiatorID
		return &id
	}
	return nil
}

// WatchlistEntry is a saved item with its denormalized catalog snapshot.
// Snapshot fields are filled at add time and backfilled lazily; they are not
// kept in sync with the upstream catalog.
type WatchlistEntry struct {
	UserID    string    `gorm:"primaryKey"`
	MovieID   int64     `gorm:"primaryKey"`
	MediaType MediaType `gorm:"primaryKey"`

	AddedAt time.Time

	// Denormalized snapshot
	Title       *string
	ReleaseDate *string
	PosterPath  *string
	Overview    *string
	Genres      *string // comma-joined genre names
	Runtime     *int    // minutes, movies only
	VoteAverage *float64
}

// TableName maps WatchlistEntry to the watchlist table
func (WatchlistEntry) TableName() string { return "watchlist" }

// Enriched reports whether the snapshot was populated at least once
func (e *WatchlistEntry) Enriched() bool {
	return e.Title != nil || e.PosterPath != nil
}

// NeedsBackfill reports whether derived snapshot fields are still missing on
// an already-enriched entry
func (e *WatchlistEntry) NeedsBackfill() bool {
	return e.Enriched() && (e.Genres == nil || e.Runtime == nil || e.VoteAverage == nil)
}

// Rating is the user's own 1-10 score. Its presence marks the entry watched.
type Rating struct {
	UserID    string    `gorm:"primaryKey"`
	MovieID   int64     `gorm:"primaryKey"`
	MediaType MediaType `gorm:"primaryKey"`

	Value int `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName maps Rating to the ratings table
func (Rating) TableName() string { return "ratings" }

// MovieCache is the durable copy of a catalog detail response, valid for
// CacheValidity from UpdatedAt. Stale rows are ignored, not deleted.
type MovieCache struct {
	MovieID   int64     `gorm:"primaryKey"`
	MediaType MediaType `gorm:"primaryKey"`

	Payload   []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName maps MovieCache to the movie_cache table
func (MovieCache) TableName() string { return "movie_cache" }

// CacheValidity is how long a movie_cache row is trusted after write
const CacheValidity = 7 * 24 * time.Hour

// Fresh reports whether the cached payload is still within its validity window
func (c *MovieCache) Fresh(now time.Time) bool {
	return now.Sub(c.UpdatedAt) < CacheValidity
}
