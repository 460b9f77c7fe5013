// Package favorite implements per-user recipe bookmarks.
package favorite

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plateful-app/plateful/internal/middleware"
	"github.com/plateful-app/plateful/internal/store"
)

const dbTimeout = 5 * time.Second

type Handler struct {
	favorites store.Favorites
	recipes   store.Recipes
	log       *slog.Logger
}

func NewHandler(favorites store.Favorites, recipes store.Recipes, log *slog.Logger) *Handler {
	return &Handler{favorites: favorites, recipes: recipes, log: log}
}

// POST /api/favorites/:title
func (h *Handler) Add(c echo.Context) error {
	u := middleware.CurrentUser(c)
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.recipes.ByTitle(ctx, title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Recipe not found"})
		}
		h.log.Error("favorite recipe lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add favorite"})
	}

	if err := h.favorites.Add(ctx, u.Email, title); err != nil {
		h.log.Error("add favorite failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add favorite"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Added to favorites"})
}

// GET /api/favorites
func (h *Handler) List(c echo.Context) error {
	u := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	recipes, err := h.favorites.Recipes(ctx, u.Email)
	if err != nil {
		h.log.Error("list favorites failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch favorites"})
	}
	return c.JSON(http.StatusOK, recipes)
}

// DELETE /api/favorites/:title
func (h *Handler) Remove(c echo.Context) error {
	u := middleware.CurrentUser(c)
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.favorites.Remove(ctx, u.Email, title); err != nil {
		h.log.Error("remove favorite failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to remove favorite"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Favorite removed"})
}

func decodeTitle(c echo.Context) string {
	raw := c.Param("title")
	if title, err := url.PathUnescape(raw); err == nil {
		return title
	}
	return raw
}
