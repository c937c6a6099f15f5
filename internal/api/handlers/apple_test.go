package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCookieSurvivesCrossSitePost(t *testing.T) {
	cookie := newStateCookie("state-value")

	assert.Equal(t, stateCookie, cookie.Name)
	assert.Equal(t, "state-value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)

	// The provider posts the callback cross-site, so only SameSite=None
	// (which requires Secure) gets the cookie attached to that request
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.True(t, cookie.Secure)
}

func TestClearStateCookieExpires(t *testing.T) {
	rec := httptest.NewRecorder()
	clearStateCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, stateCookie, cookie.Name)
	assert.Negative(t, cookie.MaxAge)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.True(t, cookie.Secure)
}
