package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/models"
)

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError shapes any error into the {error, code} envelope. Unexpected
// errors are logged with their cause and reach the client as a generic 500;
// a 401 additionally clears the session cookie.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	appErr := apperr.From(err)

	if appErr.Status >= 500 {
		logger.WithError(appErr).Error("Request failed")
	}
	if appErr.Status == http.StatusUnauthorized {
		auth.ClearSessionCookie(w)
	}

	writeJSON(w, appErr.Status, appErr)
}

// decodeJSON parses a request body, rejecting malformed payloads uniformly
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.BadRequest("invalid_body", "The request body is not valid JSON")
	}
	return nil
}

// userResponse is the user shape every auth/profile endpoint returns
type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarPath,
	}
}
