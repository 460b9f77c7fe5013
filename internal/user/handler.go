// Package user implements profile editing, password change and account
// deletion for the authenticated account.
package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful-app/plateful/internal/auth"
	"github.com/plateful-app/plateful/internal/middleware"
	"github.com/plateful-app/plateful/internal/store"
	"github.com/plateful-app/plateful/internal/upload"
)

const dbTimeout = 5 * time.Second

type Handler struct {
	users   store.Users
	uploads upload.Store
	secure  bool
	log     *slog.Logger
}

func NewHandler(users store.Users, uploads upload.Store, secure bool, log *slog.Logger) *Handler {
	return &Handler{users: users, uploads: uploads, secure: secure, log: log}
}

// PUT /api/users/profile (multipart)
//
// Only fields present in the form are touched; an aboutMe field submitted as
// the empty string clears the bio.
func (h *Handler) UpdateProfile(c echo.Context) error {
	u := middleware.CurrentUser(c)

	var upd store.ProfileUpdate
	if name := c.FormValue("name"); name != "" {
		upd.Name = &name
	}
	if form, err := c.MultipartForm(); err == nil {
		if vals, ok := form.Value["aboutMe"]; ok && len(vals) > 0 {
			upd.AboutMe = &vals[0]
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if email := c.FormValue("email"); email != "" && email != u.Email {
		// Fast-path check; the unique index still backs the final UPDATE.
		if _, err := h.users.ByEmail(ctx, email); err == nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email already taken."})
		} else if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("profile email lookup failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during profile update."})
		}
		upd.Email = &email
	}

	if fh, err := c.FormFile("profilePicture"); err == nil {
		url, err := h.uploads.Save(ctx, fh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		upd.AvatarURL = &url
	}

	if upd.Name == nil && upd.Email == nil && upd.AboutMe == nil && upd.AvatarURL == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update."})
	}

	updated, err := h.users.UpdateProfile(ctx, u.ID, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
		case errors.Is(err, store.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email already taken."})
		}
		h.log.Error("profile update failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during profile update."})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": updated})
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PUT /api/users/password
func (h *Handler) UpdatePassword(c echo.Context) error {
	u := middleware.CurrentUser(c)

	req := new(UpdatePasswordRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Both current and new passwords are required"})
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 12 characters long."})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.CurrentPassword)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during password update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.users.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		h.log.Error("password update failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during password update"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password successfully changed"})
}

// DELETE /api/users/profile
//
// The cookie is cleared, and because the auth gate re-reads the account on
// every request, any token still held for this account stops working the
// moment the row is gone.
func (h *Handler) DeleteAccount(c echo.Context) error {
	u := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		h.log.Error("account deletion failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during account deletion"})
	}

	auth.ClearCookie(c, h.secure)
	return c.JSON(http.StatusOK, echo.Map{"message": "Account deleted successfully"})
}
