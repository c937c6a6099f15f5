package controllers

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Registered decoders for the accepted avatar formats
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/HugoSmits86/nativewebp"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/models"
)

// MaxAvatarSize is the largest accepted avatar upload (2MB)
const MaxAvatarSize = 2 << 20

// avatarDimension is the stored avatar edge length in pixels
const avatarDimension = 200

// ProfileController handles display name and avatar updates
type ProfileController struct {
	db        *models.Database
	avatarDir string
	logger    *logrus.Logger
}

// NewProfileController creates a new profile controller
func NewProfileController(db *models.Database, avatarDir string, logger *logrus.Logger) *ProfileController {
	return &ProfileController{db: db, avatarDir: avatarDir, logger: logger}
}

// UpdateName changes the caller's display name
func (c *ProfileController) UpdateName(userID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("missing_name", "Please enter a display name")
	}

	user, err := c.db.GetUserByID(userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, apperr.NotFound("user_not_found", "Account not found")
		}
		return nil, apperr.Internal(err)
	}

	user.Name = name
	if err := c.db.UpdateUser(user); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// UploadAvatar validates, resizes and stores an avatar image. The stored
// file is always a 200x200 WebP at a stable per-user URL.
func (c *ProfileController) UploadAvatar(userID string, data []byte, contentType string) (*models.User, error) {
	if len(data) == 0 {
		return nil, apperr.BadRequest("missing_image", "No image data received")
	}
	if len(data) > MaxAvatarSize {
		return nil, apperr.BadRequest("image_too_large", "Avatar images must be 2MB or smaller")
	}
	if !validAvatarType(contentType) {
		return nil, apperr.BadRequest("invalid_image_type", "Avatar must be a JPEG, PNG or WebP image")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.BadRequest("invalid_image", "The uploaded file is not a valid image")
	}

	resized := squareResize(src, avatarDimension)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, resized, nil); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to encode avatar: %w", err))
	}

	filename := userID + ".webp"
	if err := os.WriteFile(filepath.Join(c.avatarDir, filename), buf.Bytes(), 0644); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to store avatar: %w", err))
	}

	user, err := c.db.GetUserByID(userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, apperr.NotFound("user_not_found", "Account not found")
		}
		return nil, apperr.Internal(err)
	}

	avatarPath := "/avatars/" + filename
	user.AvatarPath = &avatarPath
	if err := c.db.UpdateUser(user); err != nil {
		return nil, apperr.Internal(err)
	}

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"bytes":   buf.Len(),
	}).Info("Stored avatar")

	return user, nil
}

// validAvatarType accepts the three supported upload content types
func validAvatarType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

// squareResize center-crops the source to a square and scales it to
// size x size
func squareResize(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	edge := w
	if h < w {
		edge = h
	}
	x0 := bounds.Min.X + (w-edge)/2
	y0 := bounds.Min.Y + (h-edge)/2
	crop := image.Rect(x0, y0, x0+edge, y0+edge)

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}
