package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Watchlist operations

// UpsertEntry inserts a watchlist entry, silently keeping the existing row
// (and its snapshot) when the user already saved the item
func (d *Database) UpsertEntry(entry *WatchlistEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}, {Name: "media_type"}},
		DoNothing: true,
	}).Create(entry).Error
}

// GetEntry retrieves a single watchlist entry
func (d *Database) GetEntry(userID string, movieID int64, mediaType MediaType) (*WatchlistEntry, error) {
	var entry WatchlistEntry
	err := d.db.First(&entry,
		"user_id = ? AND movie_id = ? AND media_type = ?", userID, movieID, mediaType).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetEntries retrieves a user's watchlist. added_at and rating ordering happen
// here; title ordering needs resolved titles and is applied after enrichment.
func (d *Database) GetEntries(userID string, sort SortOrder) ([]WatchlistEntry, error) {
	var entries []WatchlistEntry

	query := d.db.Where("watchlist.user_id = ?", userID)
	switch sort {
	case SortByRating:
		query = query.
			Joins("LEFT JOIN ratings ON ratings.user_id = watchlist.user_id"+
				" AND ratings.movie_id = watchlist.movie_id"+
				" AND ratings.media_type = watchlist.media_type").
			Order("ratings.value IS NULL, ratings.value DESC, watchlist.added_at DESC")
	default:
		query = query.Order("watchlist.added_at DESC")
	}

	err := query.Find(&entries).Error
	return entries, err
}

// DeleteEntry removes an entry and cascades to its rating
func (d *Database) DeleteEntry(userID string, movieID int64, mediaType MediaType) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		cond := "user_id = ? AND movie_id = ? AND media_type = ?"
		if err := tx.Where(cond, userID, movieID, mediaType).Delete(&Rating{}).Error; err != nil {
			return err
		}
		res := tx.Where(cond, userID, movieID, mediaType).Delete(&WatchlistEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateSnapshot overwrites the full denormalized snapshot of an entry
func (d *Database) UpdateSnapshot(entry *WatchlistEntry) error {
	return d.db.Model(entry).
		Where("user_id = ? AND movie_id = ? AND media_type = ?",
			entry.UserID, entry.MovieID, entry.MediaType).
		Updates(map[string]interface{}{
			"title":        entry.Title,
			"release_date": entry.ReleaseDate,
			"poster_path":  entry.PosterPath,
			"overview":     entry.Overview,
			"genres":       entry.Genres,
			"runtime":      entry.Runtime,
			"vote_average": entry.VoteAverage,
		}).Error
}

// BackfillEntry fills missing derived snapshot fields. Stored non-null values
// are never overwritten, so concurrent backfills of the same row are safe.
func (d *Database) BackfillEntry(userID string, movieID int64, mediaType MediaType,
	genres *string, runtime *int, voteAverage *float64) error {

	updates := map[string]interface{}{}
	if genres != nil {
		updates["genres"] = gorm.Expr("COALESCE(genres, ?)", *genres)
	}
	if runtime != nil {
		updates["runtime"] = gorm.Expr("COALESCE(runtime, ?)", *runtime)
	}
	if voteAverage != nil {
		updates["vote_average"] = gorm.Expr("COALESCE(vote_average, ?)", *voteAverage)
	}
	if len(updates) == 0 {
		return nil
	}

	return d.db.Model(&WatchlistEntry{}).
		Where("user_id = ? AND movie_id = ? AND media_type = ?", userID, movieID, mediaType).
		Updates(updates).Error
}

// Rating operations

// UpsertRating sets the user's score for an item, overwriting a previous score
func (d *Database) UpsertRating(rating *Rating) error {
	now := time.Now()
	rating.CreatedAt = now
	rating.UpdatedAt = now
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}, {Name: "media_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": rating.Value, "updated_at": now}),
	}).Create(rating).Error
}

// DeleteRating un-marks the item as watched; the entry itself stays
func (d *Database) DeleteRating(userID string, movieID int64, mediaType MediaType) error {
	res := d.db.Where("user_id = ? AND movie_id = ? AND media_type = ?",
		userID, movieID, mediaType).Delete(&Rating{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetRatingsForEntries batch-fetches one user's ratings for exactly the given
// entries in a single query
func (d *Database) GetRatingsForEntries(userID string, entries []WatchlistEntry) ([]Rating, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	keys := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, []interface{}{e.MovieID, e.MediaType})
	}

	var ratings []Rating
	err := d.db.
		Where("user_id = ?", userID).
		Where("(movie_id, media_type) IN ?", keys).
		Find(&ratings).Error
	return ratings, err
}
