package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Auth rejects requests without a valid session token and attaches the
// caller's user id to the request context. Failures get the uniform 401 and
// a best-effort cookie clear.
func Auth(jwtManager *auth.JWTManager, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractToken(r)
			if token == "" {
				reject(w)
				return
			}

			claims, err := jwtManager.ValidateToken(token)
			if err != nil {
				logger.WithError(err).Debug("Rejected session token")
				reject(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated caller's id from the request context.
// It is only meaningful behind the Auth middleware.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// reject writes the uniform unauthorized response
func reject(w http.ResponseWriter) {
	auth.ClearSessionCookie(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Authentication required",
		"code":  "unauthorized",
	})
}
