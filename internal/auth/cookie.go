package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the HTTP-only cookie carrying the auth token.
const CookieName = "auth_token"

const bearerPrefix = "Bearer "

// TokenFromRequest extracts the bearer token: the cookie wins, the
// Authorization header is the fallback for non-browser clients.
func TokenFromRequest(c echo.Context) (string, bool) {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) && len(header) > len(bearerPrefix) {
		return header[len(bearerPrefix):], true
	}
	return "", false
}

// SetCookie attaches the auth cookie to the response.
func SetCookie(c echo.Context, token string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie instructs the client to drop its stored token. The token
// itself stays valid until expiry; there is no server-side session to end.
func ClearCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
