package models

import (
	"time"

	"gorm.io/gorm"
)

// User operations

// CreateUser inserts a new user
func (d *Database) CreateUser(user *User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return d.db.Create(user).Error
}

// GetUserByID retrieves a user by primary key
func (d *Database) GetUserByID(id string) (*User, error) {
	var user User
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (d *Database) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := d.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByAppleSub retrieves a user by Apple subject identifier
func (d *Database) GetUserByAppleSub(sub string) (*User, error) {
	var user User
	if err := d.db.First(&user, "apple_sub = ?", sub).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists changes to an existing user
func (d *Database) UpdateUser(user *User) error {
	user.UpdatedAt = time.Now()
	return d.db.Save(user).Error
}

// DeleteUser removes a user and everything they own in one transaction.
// Pair membership must be resolved by the caller before this runs.
func (d *Database) DeleteUser(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&WatchlistEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, "id = ?", id).Error
	})
}
