package models

import (
	"time"

	"gorm.io/gorm/clause"
)

// Movie cache operations

// GetMovieCache retrieves the durable detail copy for an item, fresh or stale
func (d *Database) GetMovieCache(movieID int64, mediaType MediaType) (*MovieCache, error) {
	var row MovieCache
	err := d.db.First(&row, "movie_id = ? AND media_type = ?", movieID, mediaType).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertMovieCache overwrites the durable detail copy and restarts its
// validity window
func (d *Database) UpsertMovieCache(movieID int64, mediaType MediaType, payload []byte) error {
	row := MovieCache{
		MovieID:   movieID,
		MediaType: mediaType,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "movie_id"}, {Name: "media_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}
