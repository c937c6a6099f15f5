package controllers

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/models"
)

// codeAttempts bounds join-code generation retries on collision
const codeAttempts = 10

// PairingController handles the two-user pairing lifecycle
type PairingController struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewPairingController creates a new pairing controller
func NewPairingController(db *models.Database, logger *logrus.Logger) *PairingController {
	return &PairingController{db: db, logger: logger}
}

// Get returns the caller's pair, or nil if they are unpaired
func (c *PairingController) Get(userID string) (*models.Pair, error) {
	pair, err := c.db.GetPairForUser(userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperr.Internal(err)
	}
	return pair, nil
}

// Create opens a new pair with the caller as initiator and a fresh 6-digit
// join code
func (c *PairingController) Create(userID string) (*models.Pair, error) {
	existing, err := c.Get(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("already_paired", "You are already in a pair")
	}

	code, err := c.generateCode()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	pair := &models.Pair{
		Code:        code,
		InitiatorID: userID,
	}
	if err := c.db.CreatePair(pair); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to create pair: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"pair_id": pair.ID,
	}).Info("Created pair")

	return pair, nil
}

// Join closes an open pair by code. A user cannot join while paired, and
// cannot join a pair they initiated.
func (c *PairingController) Join(userID, code string) (*models.Pair, error) {
	existing, err := c.Get(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("already_paired", "You are already in a pair")
	}

	pair, err := c.db.GetOpenPairByCode(code)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, apperr.NotFound("pair_not_found", "No open pair with this code")
		}
		return nil, apperr.Internal(err)
	}
	if pair.InitiatorID == userID {
		return nil, apperr.BadRequest("self_join", "You cannot join your own pair")
	}

	if err := c.db.SetPairJoiner(pair.ID, userID); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to join pair: %w", err))
	}
	pair.JoinerID = &userID

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"pair_id": pair.ID,
	}).Info("Joined pair")

	return pair, nil
}

// Leave removes the caller from their pair. An initiator leaving deletes the
// pair outright; a joiner leaving reopens it.
func (c *PairingController) Leave(userID string) error {
	pair, err := c.Get(userID)
	if err != nil {
		return err
	}
	if pair == nil {
		return apperr.NotFound("not_paired", "You are not in a pair")
	}

	if pair.InitiatorID == userID {
		if err := c.db.DeletePair(pair.ID); err != nil {
			return apperr.Internal(fmt.Errorf("failed to delete pair: %w", err))
		}
		c.logger.WithField("pair_id", pair.ID).Info("Initiator left, pair deleted")
		return nil
	}

	if err := c.db.ClearPairJoiner(pair.ID); err != nil {
		return apperr.Internal(fmt.Errorf("failed to leave pair: %w", err))
	}
	c.logger.WithField("pair_id", pair.ID).Info("Joiner left, pair reopened")
	return nil
}

// Partner resolves the caller's partner ID, or nil when unpaired or the pair
// is still open
func (c *PairingController) Partner(userID string) (*string, error) {
	pair, err := c.Get(userID)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, nil
	}
	return pair.PartnerOf(userID), nil
}

// generateCode draws random 6-digit codes until one is free among open pairs
func (c *PairingController) generateCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		code := fmt.Sprintf("%06d", n.Int64())

		inUse, err := c.db.CodeInUse(code)
		if err != nil {
			return "", fmt.Errorf("failed to check join code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to find a free join code after %d attempts", codeAttempts)
}
