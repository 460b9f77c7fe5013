// Package middleware holds the request interceptors shared across route
// groups.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plateful-app/plateful/internal/auth"
	"github.com/plateful-app/plateful/internal/store"
)

const userContextKey = "authenticated_user"

const lookupTimeout = 5 * time.Second

// RequireAuth is the authentication gate. It extracts the bearer token
// (cookie first, Authorization header as fallback), verifies it, and then
// re-reads the account by id so that every guarded handler sees the live
// record: deleted accounts and stale profiles are rejected or refreshed
// here, not 30 days later when the token expires.
//
// All failure modes produce the same 401 so callers cannot probe whether a
// token was missing, malformed, or expired.
func RequireAuth(issuer *auth.Issuer, users store.Users) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := auth.TokenFromRequest(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
			}

			claims, err := issuer.Parse(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
			defer cancel()

			u, err := users.ByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}

			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the account the gate attached to the request. It is
// only meaningful behind RequireAuth; elsewhere it returns nil.
func CurrentUser(c echo.Context) *store.User {
	u, _ := c.Get(userContextKey).(*store.User)
	return u
}
