package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/api/middleware"
	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/controllers"
)

// ProfileHandler handles profile and avatar endpoints
type ProfileHandler struct {
	profileCtrl *controllers.ProfileController
	logger      *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileCtrl *controllers.ProfileController, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profileCtrl: profileCtrl, logger: logger}
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// Update handles PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.profileCtrl.UpdateName(middleware.UserID(r), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// maxAvatarBody caps the whole upload request, with headroom for the
// multipart framing around the image itself
const maxAvatarBody = controllers.MaxAvatarSize + 8192

// UploadAvatar handles PUT /api/profile/avatar (multipart, field "avatar")
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBody)
	if err := r.ParseMultipartForm(maxAvatarBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, h.logger, apperr.BadRequest("image_too_large", "Avatar images must be 2MB or smaller"))
			return
		}
		writeError(w, h.logger, apperr.BadRequest("invalid_upload", "Expected a multipart avatar upload"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, h.logger, apperr.BadRequest("missing_image", "Expected an avatar file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, controllers.MaxAvatarSize+1))
	if err != nil {
		writeError(w, h.logger, apperr.Internal(err))
		return
	}

	user, err := h.profileCtrl.UploadAvatar(middleware.UserID(r), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
