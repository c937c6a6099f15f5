package controllers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/tmdb"
)

// maxConcurrentFetches bounds catalog fan-out within a single request
const maxConcurrentFetches = 10

// backfillTimeout bounds the detached backfill write
const backfillTimeout = 5 * time.Second

// detailSource is the slice of the catalog the enrichment path needs
type detailSource interface {
	GetDetail(ctx context.Context, movieID int64, mediaType models.MediaType) (*tmdb.Detail, error)
}

// Item is a fully populated watchlist entry ready for display
type Item struct {
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

	Watched       bool `json:"watched"`
	Rating        *int `json:"rating"`
	PartnerRating *int `json:"partner_rating,omitempty"`
}

// entryKey identifies one item across both partners' lists
type entryKey struct {
	MovieID   int64
	MediaType models.MediaType
}

// WatchlistController is the enrichment/sync engine: it decides per entry
// whether to trust the snapshot, refetch, or backfill, and assembles the
// my-list, partner and intersection views.
type WatchlistController struct {
	db      *models.Database
	catalog detailSource
	pairing *PairingController
	logger  *logrus.Logger

	backfills sync.WaitGroup
}

// NewWatchlistController creates a new watchlist controller
func NewWatchlistController(db *models.Database, catalog detailSource, pairing *PairingController, logger *logrus.Logger) *WatchlistController {
	return &WatchlistController{
		db:      db,
		catalog: catalog,
		pairing: pairing,
		logger:  logger,
	}
}

// Add saves an item to the caller's list. Adding an item twice is a no-op.
// The snapshot is populated from a detail fetch when possible; a catalog
// failure leaves a bare entry that enrichment fills in later.
func (c *WatchlistController) Add(ctx context.Context, userID string, movieID int64, mediaType models.MediaType) (*Item, error) {
	if movieID <= 0 || !mediaType.Valid() {
		return nil, apperr.BadRequest("invalid_item", "A valid movie_id and media_type are required")
	}

	entry := &models.WatchlistEntry{
		UserID:    userID,
		MovieID:   movieID,
		MediaType: mediaType,
	}
	if err := c.db.UpsertEntry(entry); err != nil {
		return nil, apperr.Internal(err)
	}

	stored, err := c.db.GetEntry(userID, movieID, mediaType)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if !stored.Enriched() {
		if detail, err := c.catalog.GetDetail(ctx, movieID, mediaType); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"movie_id": movieID,
				"type":     mediaType,
			}).Warn("Snapshot fetch failed on add, entry stays bare")
		} else {
			applySnapshot(stored, detail)
			if err := c.db.UpdateSnapshot(stored); err != nil {
				c.logger.WithError(err).Warn("Failed to store snapshot on add")
			}
		}
	}

	item := itemFromEntry(stored)
	return &item, nil
}

// Remove deletes an entry and its rating
func (c *WatchlistController) Remove(userID string, movieID int64, mediaType models.MediaType) error {
	if !mediaType.Valid() {
		return apperr.BadRequest("invalid_item", "A valid media_type is required")
	}
	if err := c.db.DeleteEntry(userID, movieID, mediaType); err != nil {
		if models.IsNotFound(err) {
			return apperr.NotFound("entry_not_found", "This item is not on your list")
		}
		return apperr.Internal(err)
	}
	return nil
}

// Rate marks an entry watched with a 1-10 score
func (c *WatchlistController) Rate(userID string, movieID int64, mediaType models.MediaType, value int) error {
	if !mediaType.Valid() {
		return apperr.BadRequest("invalid_item", "A valid media_type is required")
	}
	if value < 1 || value > 10 {
		return apperr.BadRequest("invalid_rating", "Rating must be between 1 and 10")
	}

	if _, err := c.db.GetEntry(userID, movieID, mediaType); err != nil {
		if models.IsNotFound(err) {
			return apperr.NotFound("entry_not_found", "This item is not on your list")
		}
		return apperr.Internal(err)
	}

	rating := &models.Rating{
		UserID:    userID,
		MovieID:   movieID,
		MediaType: mediaType,
		Value:     value,
	}
	if err := c.db.UpsertRating(rating); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Unrate removes the score, un-marking the entry as watched
func (c *WatchlistController) Unrate(userID string, movieID int64, mediaType models.MediaType) error {
	if !mediaType.Valid() {
		return apperr.BadRequest("invalid_item", "A valid media_type is required")
	}
	if err := c.db.DeleteRating(userID, movieID, mediaType); err != nil {
		if models.IsNotFound(err) {
			return apperr.NotFound("rating_not_found", "This item is not rated")
		}
		return apperr.Internal(err)
	}
	return nil
}

// MyList assembles the caller's enriched list with their own and their
// partner's ratings merged in
func (c *WatchlistController) MyList(ctx context.Context, userID string, sortBy models.SortOrder) ([]Item, error) {
	entries, err := c.db.GetEntries(userID, sortBy)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	own, err := c.ratingsByKey(userID, entries)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var partner map[entryKey]int
	partnerID, err := c.pairing.Partner(userID)
	if err != nil {
		return nil, err
	}
	if partnerID != nil {
		partner, err = c.ratingsByKey(*partnerID, entries)
		if err != nil {
			return nil, apperr.Internal(err)
		}
	}

	items := c.enrichAll(ctx, entries)
	for i := range items {
		key := entryKey{items[i].MovieID, items[i].MediaType}
		if v, ok := own[key]; ok {
			value := v
			items[i].Watched = true
			items[i].Rating = &value
		}
		if v, ok := partner[key]; ok {
			value := v
			items[i].PartnerRating = &value
		}
	}

	if sortBy == models.SortByTitle {
		sortByTitle(items)
	}

	return items, nil
}

// PartnerList assembles the partner's enriched list, with the partner's own
// watched state and ratings
func (c *WatchlistController) PartnerList(ctx context.Context, userID string) ([]Item, error) {
	partnerID, err := c.pairing.Partner(userID)
	if err != nil {
		return nil, err
	}
	if partnerID == nil {
		return nil, apperr.NotFound("not_paired", "You do not have a partner yet")
	}

	entries, err := c.db.GetEntries(*partnerID, models.SortByAddedAt)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ratings, err := c.ratingsByKey(*partnerID, entries)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	items := c.enrichAll(ctx, entries)
	for i := range items {
		if v, ok := ratings[entryKey{items[i].MovieID, items[i].MediaType}]; ok {
			value := v
			items[i].Watched = true
			items[i].Rating = &value
		}
	}

	return items, nil
}

// Intersections returns the items both partners saved and neither has rated
// yet. It is computed as a set intersection with an exclusion predicate, not
// stored anywhere.
func (c *WatchlistController) Intersections(ctx context.Context, userID string) ([]Item, error) {
	partnerID, err := c.pairing.Partner(userID)
	if err != nil {
		return nil, err
	}
	if partnerID == nil {
		return nil, apperr.NotFound("not_paired", "You do not have a partner yet")
	}

	mine, err := c.db.GetEntries(userID, models.SortByAddedAt)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	theirs, err := c.db.GetEntries(*partnerID, models.SortByAddedAt)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	partnerHas := make(map[entryKey]bool, len(theirs))
	for _, e := range theirs {
		partnerHas[entryKey{e.MovieID, e.MediaType}] = true
	}

	var shared []models.WatchlistEntry
	for _, e := range mine {
		if partnerHas[entryKey{e.MovieID, e.MediaType}] {
			shared = append(shared, e)
		}
	}

	myRatings, err := c.ratingsByKey(userID, shared)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	partnerRatings, err := c.ratingsByKey(*partnerID, shared)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	unwatched := shared[:0]
	for _, e := range shared {
		key := entryKey{e.MovieID, e.MediaType}
		if _, mineRated := myRatings[key]; mineRated {
			continue
		}
		if _, theirsRated := partnerRatings[key]; theirsRated {
			continue
		}
		unwatched = append(unwatched, e)
	}

	return c.enrichAll(ctx, unwatched), nil
}

// enrichAll fans the per-item merge out over the catalog, bounded to
// maxConcurrentFetches in flight. One item's failure never affects siblings.
func (c *WatchlistController) enrichAll(ctx context.Context, entries []models.WatchlistEntry) []Item {
	items := make([]Item, len(entries))
	if len(entries) == 0 {
		return items
	}

	sem := make(chan struct{}, maxConcurrentFetches)
	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			items[i] = c.enrich(ctx, &entries[i])
		}(i)
	}
	wg.Wait()

	return items
}

// enrich applies the per-item merge algorithm: trust the snapshot when it is
// complete, otherwise fetch fresh detail, tolerate failure, and backfill
// missing derived fields as a detached one-time write.
func (c *WatchlistController) enrich(ctx context.Context, entry *models.WatchlistEntry) Item {
	useCached := entry.Enriched()
	needsBackfill := entry.NeedsBackfill()

	item := itemFromEntry(entry)
	if useCached && !needsBackfill {
		// Steady state: snapshot verbatim, no external call
		return item
	}

	detail, err := c.catalog.GetDetail(ctx, entry.MovieID, entry.MediaType)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"movie_id": entry.MovieID,
			"type":     entry.MediaType,
		}).Debug("Enrichment fetch failed, falling back to local data")
		return item
	}

	if needsBackfill {
		c.spawnBackfill(*entry, detail)
	}

	// Displayed value precedence: fresh detail, then snapshot
	item.Title = coalesceStr(optStr(detail.Title), entry.Title)
	item.ReleaseDate = coalesceStr(optStr(detail.ReleaseDate), entry.ReleaseDate)
	item.PosterPath = coalesceStr(optStr(detail.PosterPath), entry.PosterPath)
	item.Overview = coalesceStr(optStr(detail.Overview), entry.Overview)
	item.Genres = coalesceStr(detail.GenresJoined(), entry.Genres)
	item.Runtime = coalesceInt(detail.Runtime, entry.Runtime)
	item.VoteAverage = coalesceFloat(detail.VoteAverage, entry.VoteAverage)

	return item
}

// spawnBackfill persists newly available derived fields without blocking the
// response. Only fields that are null locally and present in the fresh
// detail are written; if none qualify, no write happens at all.
func (c *WatchlistController) spawnBackfill(entry models.WatchlistEntry, detail *tmdb.Detail) {
	var genres *string
	var runtime *int
	var voteAverage *float64

	if entry.Genres == nil {
		genres = detail.GenresJoined()
	}
	if entry.Runtime == nil {
		runtime = detail.Runtime
	}
	if entry.VoteAverage == nil {
		voteAverage = detail.VoteAverage
	}
	if genres == nil && runtime == nil && voteAverage == nil {
		return
	}

	c.backfills.Add(1)
	go func() {
		defer c.backfills.Done()

		// Detached from the request: the response never waits on this write
		err := c.db.BackfillEntry(entry.UserID, entry.MovieID, entry.MediaType,
			genres, runtime, voteAverage)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"movie_id": entry.MovieID,
				"type":     entry.MediaType,
			}).Warn("Backfill write failed")
		}
	}()
}

// ratingsByKey batch-fetches one user's ratings for the given entries and
// indexes them in memory
func (c *WatchlistController) ratingsByKey(userID string, entries []models.WatchlistEntry) (map[entryKey]int, error) {
	ratings, err := c.db.GetRatingsForEntries(userID, entries)
	if err != nil {
		return nil, err
	}
	byKey := make(map[entryKey]int, len(ratings))
	for _, r := range ratings {
		byKey[entryKey{r.MovieID, r.MediaType}] = r.Value
	}
	return byKey, nil
}

// sortByTitle orders items by resolved title with locale-aware collation,
// untitled items last
func sortByTitle(items []Item) {
	collator := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Title, items[j].Title
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return collator.CompareString(*a, *b) < 0
	})
}

// itemFromEntry builds the display item from the snapshot alone
func itemFromEntry(entry *models.WatchlistEntry) Item {
	return Item{
		MovieID:     entry.MovieID,
		MediaType:   entry.MediaType,
		AddedAt:     entry.AddedAt,
		Title:       entry.Title,
		ReleaseDate: entry.ReleaseDate,
		PosterPath:  entry.PosterPath,
		Overview:    entry.Overview,
		Genres:      entry.Genres,
		Runtime:     entry.Runtime,
		VoteAverage: entry.VoteAverage,
	}
}

// applySnapshot copies a fresh detail into an entry's snapshot fields
func applySnapshot(entry *models.WatchlistEntry, detail *tmdb.Detail) {
	entry.Title = optStr(detail.Title)
	entry.ReleaseDate = optStr(detail.ReleaseDate)
	entry.PosterPath = optStr(detail.PosterPath)
	entry.Overview = optStr(detail.Overview)
	entry.Genres = detail.GenresJoined()
	entry.Runtime = detail.Runtime
	entry.VoteAverage = detail.VoteAverage
}

// optStr converts an empty string to nil
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func coalesceStr(fresh, snapshot *string) *string {
	if fresh != nil {
		return fresh
	}
	return snapshot
}

func coalesceInt(fresh, snapshot *int) *int {
	if fresh != nil {
		return fresh
	}
	return snapshot
}

func coalesceFloat(fresh, snapshot *float64) *float64 {
	if fresh != nil {
		return fresh
	}
	return snapshot
}
