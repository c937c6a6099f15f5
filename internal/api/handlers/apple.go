package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/apperr"
	"github.com/duowatch/duowatch/internal/auth"
	"github.com/duowatch/duowatch/internal/controllers"
	"github.com/duowatch/duowatch/internal/services/apple"
)

// stateCookie holds the CSRF state during the provider round trip
const stateCookie = "duowatch_oauth_state"

// AppleHandler handles the Apple Sign-In redirect dance
type AppleHandler struct {
	appleSvc   *apple.Service
	authCtrl   *controllers.AuthController
	jwtManager *auth.JWTManager
	logger     *logrus.Logger
}

// NewAppleHandler creates a new Apple Sign-In handler
func NewAppleHandler(appleSvc *apple.Service, authCtrl *controllers.AuthController, jwtManager *auth.JWTManager, logger *logrus.Logger) *AppleHandler {
	return &AppleHandler{
		appleSvc:   appleSvc,
		authCtrl:   authCtrl,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login handles GET /api/auth/apple: mint a state value, park it in a
// short-lived cookie and send the caller to the provider
func (h *AppleHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.appleSvc.Enabled() {
		writeError(w, h.logger, apperr.NotFound("apple_disabled", "Apple Sign-In is not available"))
		return
	}

	state, err := apple.GenerateState()
	if err != nil {
		writeError(w, h.logger, apperr.Internal(err))
		return
	}

	http.SetCookie(w, newStateCookie(state))

	http.Redirect(w, r, h.appleSvc.AuthCodeURL(state), http.StatusFound)
}

// Callback handles POST /api/auth/apple/callback (form_post): the state must
// match the parked cookie, then the code is exchanged and the id_token
// verified before a local session is issued
func (h *AppleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.appleSvc.Enabled() {
		writeError(w, h.logger, apperr.NotFound("apple_disabled", "Apple Sign-In is not available"))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, apperr.BadRequest("invalid_callback", "Malformed callback request"))
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.PostFormValue("state") {
		writeError(w, h.logger, apperr.BadRequest("state_mismatch", "Sign-in session expired, please try again"))
		return
	}
	clearStateCookie(w)

	code := r.PostFormValue("code")
	if code == "" {
		writeError(w, h.logger, apperr.BadRequest("missing_code", "The provider did not return an authorization code"))
		return
	}

	identity, err := h.appleSvc.Exchange(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).Warn("Apple code exchange failed")
		writeError(w, h.logger, apperr.Unauthorized())
		return
	}

	user, err := h.authCtrl.AppleLogin(identity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		writeError(w, h.logger, apperr.Internal(err))
		return
	}

	auth.SetSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// newStateCookie parks the state value for the provider round trip. The
// callback is a cross-site form_post, so the cookie must be SameSite=None;
// Lax cookies are only sent on top-level GET navigations and would never
// reach Callback.
func newStateCookie(state string) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(apple.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// clearStateCookie expires the one-time state cookie
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
