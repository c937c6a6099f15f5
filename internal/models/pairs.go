package models

import "time"

// Pair operations

// CreatePair inserts a new open pair
func (d *Database) CreatePair(pair *Pair) error {
	pair.CreatedAt = time.Now()
	return d.db.Create(pair).Error
}

// GetPairForUser retrieves the pair the user belongs to, as initiator or joiner
func (d *Database) GetPairForUser(userID string) (*Pair, error) {
	var pair Pair
	err := d.db.First(&pair, "initiator_id = ? OR joiner_id = ?", userID, userID).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetOpenPairByCode retrieves an open pair by its join code
func (d *Database) GetOpenPairByCode(code string) (*Pair, error) {
	var pair Pair
	err := d.db.First(&pair, "code = ? AND joiner_id IS NULL", code).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// CodeInUse reports whether an open pair currently holds the code. Codes of
// closed or deleted pairs are reusable.
func (d *Database) CodeInUse(code string) (bool, error) {
	var count int64
	err := d.db.Model(&Pair{}).Where("code = ? AND joiner_id IS NULL", code).Count(&count).Error
	return count > 0, err
}

// SetPairJoiner fills the joiner slot, closing the pair
func (d *Database) SetPairJoiner(pairID uint, joinerID string) error {
	return d.db.Model(&Pair{}).Where("id = ?", pairID).Update("joiner_id", joinerID).Error
}

// ClearPairJoiner vacates the joiner slot, reopening the pair
func (d *Database) ClearPairJoiner(pairID uint) error {
	return d.db.Model(&Pair{}).Where("id = ?", pairID).Update("joiner_id", nil).Error
}

// DeletePair removes the pair entirely; its code becomes available again
func (d *Database) DeletePair(pairID uint) error {
	return d.db.Delete(&Pair{}, "id = ?", pairID).Error
}
