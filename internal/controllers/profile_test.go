package controllers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duowatch/duowatch/internal/apperr"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestUpdateName(t *testing.T) {
	db := testDB(t)
	ctrl := NewProfileController(db, t.TempDir(), testLogger())
	user := createTestUser(t, db, "alice@example.com")

	updated, err := ctrl.UpdateName(user.ID, "  Alice B.  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)

	stored, err := db.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", stored.Name)

	_, err = ctrl.UpdateName(user.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, "missing_name", apperr.From(err).Code)
}

func TestUploadAvatar(t *testing.T) {
	db := testDB(t)
	avatarDir := t.TempDir()
	ctrl := NewProfileController(db, avatarDir, testLogger())
	user := createTestUser(t, db, "alice@example.com")

	data := encodeTestJPEG(t, 400, 300)
	updated, err := ctrl.UploadAvatar(user.ID, data, "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarPath)
	assert.Equal(t, "/avatars/"+user.ID+".webp", *updated.AvatarPath)

	stored, err := os.ReadFile(filepath.Join(avatarDir, user.ID+".webp"))
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	// A re-upload overwrites the same stable file
	again, err := ctrl.UploadAvatar(user.ID, encodeTestJPEG(t, 100, 100), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, *updated.AvatarPath, *again.AvatarPath)
}

func TestUploadAvatarValidation(t *testing.T) {
	db := testDB(t)
	ctrl := NewProfileController(db, t.TempDir(), testLogger())
	user := createTestUser(t, db, "alice@example.com")

	_, err := ctrl.UploadAvatar(user.ID, nil, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, "missing_image", apperr.From(err).Code)

	_, err = ctrl.UploadAvatar(user.ID, []byte("not an image"), "image/gif")
	require.Error(t, err)
	assert.Equal(t, "invalid_image_type", apperr.From(err).Code)

	_, err = ctrl.UploadAvatar(user.ID, []byte("not an image"), "image/png")
	require.Error(t, err)
	assert.Equal(t, "invalid_image", apperr.From(err).Code)

	_, err = ctrl.UploadAvatar(user.ID, make([]byte, MaxAvatarSize+1), "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, "image_too_large", apperr.From(err).Code)
}

func TestSquareResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 300))
	out := squareResize(src, 200)

	bounds := out.Bounds()
	assert.Equal(t, 200, bounds.Dx())
	assert.Equal(t, 200, bounds.Dy())
}
