package controllers

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/models"
	"github.com/duowatch/duowatch/internal/services/apple"
)

// AuthController handles registration, login and account lifecycle
type AuthController struct {
	db          *models.Database
	pairingCtrl *PairingController
	avatarDir   string
	logger      *logrus.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(db *models.Database, pairingCtrl *PairingController, avatarDir string, logger *logrus.Logger) *AuthController {
	return &AuthController{
		db:          db,
		pairingCtrl: pairingCtrl,
		avatarDir:   avatarDir,
		logger:      logger,
	}
}

// Register creates a password account. Validation happens before any store
// access; a duplicate email is a conflict, not a validation failure.
func (c *AuthController) Register(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.BadRequest("invalid_email", "Please enter a valid email address")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, apperr.BadRequest("weak_password", "Password must be at least 8 characters and contain a letter and a digit")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("missing_name", "Please enter a display name")
	}

	if _, err := c.db.GetUserByEmail(email); err == nil {
		return nil, apperr.Conflict("email_exists", "An account with this email already exists")
	} else if !models.IsNotFound(err) {
		return nil, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hash,
		Name:         name,
	}
	if err := c.db.CreateUser(user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	c.logger.WithField("user_id", user.ID).Info("Registered new user")
	return user, nil
}

// Login verifies a password login. Every failure path returns the same
// uniform unauthorized error.
func (c *AuthController) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.BadRequest("missing_credentials", "Email and password are required")
	}

	user, err := c.db.GetUserByEmail(email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, apperr.Unauthorized()
		}
		return nil, apperr.Internal(err)
	}
	if user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, password) {
		return nil, apperr.Unauthorized()
	}

	return user, nil
}

// GetUser loads the authenticated caller's account
func (c *AuthController) GetUser(userID string) (*models.User, error) {
	user, err := c.db.GetUserByID(userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, apperr.NotFound("user_not_found", "Account not found")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// AppleLogin resolves a verified Apple identity to a local user: match by
// subject first, then link by email, then create a fresh account.
func (c *AuthController) AppleLogin(identity *apple.Identity) (*models.User, error) {
	user, err := c.db.GetUserByAppleSub(identity.Subject)
	if err == nil {
		return user, nil
	}
	if !models.IsNotFound(err) {
		return nil, apperr.Internal(err)
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email != "" {
		existing, err := c.db.GetUserByEmail(email)
		if err == nil {
			if existing.AppleSub != nil {
				// Same email, different Apple subject: refuse to relink
				return nil, apperr.Conflict("apple_link_conflict", "This email is already linked to a different Apple ID")
			}
			existing.AppleSub = &identity.Subject
			if err := c.db.UpdateUser(existing); err != nil {
				return nil, apperr.Internal(err)
			}
			c.logger.WithField("user_id", existing.ID).Info("Linked Apple ID to existing account")
			return existing, nil
		}
		if !models.IsNotFound(err) {
			return nil, apperr.Internal(err)
		}
	}

	if email == "" {
		return nil, apperr.BadRequest("missing_email", "Apple did not share an email address")
	}

	sub := identity.Subject
	user = &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		AppleSub: &sub,
		Name:     nameFromEmail(email),
	}
	if err := c.db.CreateUser(user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	c.logger.WithField("user_id", user.ID).Info("Created user from Apple Sign-In")
	return user, nil
}

// DeleteAccount wipes the caller's account: pair membership is resolved with
// initiator-leave semantics, then ratings, watchlist, avatar and the user row
// go away.
func (c *AuthController) DeleteAccount(userID string) error {
	if err := c.pairingCtrl.Leave(userID); err != nil {
		// Not being paired is fine during a wipe
		if appErr := apperr.From(err); appErr.Status != 404 {
			return err
		}
	}

	if err := c.db.DeleteUser(userID); err != nil {
		return apperr.Internal(fmt.Errorf("failed to delete user: %w", err))
	}

	// Best-effort avatar cleanup
	avatarFile := filepath.Join(c.avatarDir, userID+".webp")
	if err := os.Remove(avatarFile); err != nil && !os.IsNotExist(err) {
		c.logger.WithError(err).Warn("Failed to remove avatar file")
	}

	c.logger.WithField("user_id", userID).Info("Deleted account")
	return nil
}

// nameFromEmail derives a default display name for accounts created via
// Apple, which does not share a name in the id_token
func nameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
