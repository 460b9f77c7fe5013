// Package comment implements recipe comments and ratings.
package comment

import (
	"context"
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
	comments store.Comments
	log      *slog.Logger
}

func NewHandler(comments store.Comments, log *slog.Logger) *Handler {
	return &Handler{comments: comments, log: log}
}

type AddRequest struct {
	Rating  *float64 `json:"rating"`
	Comment string   `json:"comment"`
}

// POST /api/comments/:title
func (h *Handler) Add(c echo.Context) error {
	u := middleware.CurrentUser(c)
	title := decodeTitle(c)

	req := new(AddRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Comment == "" && req.Rating == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rating or comment is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cm := &store.Comment{
		RecipeTitle: title,
		AuthorEmail: u.Email,
		Rating:      req.Rating,
		Body:        req.Comment,
	}
	if err := h.comments.Add(ctx, cm); err != nil {
		h.log.Error("add comment failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add comment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment added", "comment": cm})
}

// GET /api/comments/:title
func (h *Handler) ForRecipe(c echo.Context) error {
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	comments, err := h.comments.ForRecipe(ctx, title)
	if err != nil {
		h.log.Error("list comments failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get comments"})
	}
	return c.JSON(http.StatusOK, comments)
}

func decodeTitle(c echo.Context) string {
	raw := c.Param("title")
	if title, err := url.PathUnescape(raw); err == nil {
		return title
	}
	return raw
}
