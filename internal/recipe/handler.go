// Package recipe implements the recipe CRUD surface.
package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plateful-app/plateful/internal/middleware"
	"github.com/plateful-app/plateful/internal/store"
	"github.com/plateful-app/plateful/internal/upload"
)

// MaxImages bounds how many images one recipe can carry.
const MaxImages = 3

const dbTimeout = 5 * time.Second

// Announcer queues the new-recipe announcement email. Satisfied by
// alerts.Client.
type Announcer interface {
	EnqueueRecipePublished(title, description string) error
}

type Handler struct {
	recipes store.Recipes
	uploads upload.Store
	alerts  Announcer
	log     *slog.Logger
}

func NewHandler(recipes store.Recipes, uploads upload.Store, alerts Announcer, log *slog.Logger) *Handler {
	return &Handler{recipes: recipes, uploads: uploads, alerts: alerts, log: log}
}

// GET /api/recipes
func (h *Handler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	recipes, err := h.recipes.List(ctx)
	if err != nil {
		h.log.Error("list recipes failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch recipes"})
	}
	return c.JSON(http.StatusOK, recipes)
}

// GET /api/recipes/featured
func (h *Handler) Featured(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	recipes, err := h.recipes.List(ctx)
	if err != nil {
		h.log.Error("featured recipes failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch featured recipes"})
	}
	return c.JSON(http.StatusOK, featuredPick(recipes, time.Now().Day()))
}

// featuredPick rotates through the catalog by day of month: four slots,
// wrapping around, so the homepage changes daily without any stored state.
func featuredPick(recipes []store.Recipe, day int) []store.Recipe {
	if len(recipes) == 0 {
		return []store.Recipe{}
	}
	start := day % len(recipes)
	featured := make([]store.Recipe, 0, 4)
	for i := 0; i < 4; i++ {
		featured = append(featured, recipes[(start+i)%len(recipes)])
	}
	return featured
}

// GET /api/recipes/:title
func (h *Handler) Get(c echo.Context) error {
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	r, err := h.recipes.ByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Recipe not found"})
		}
		h.log.Error("get recipe failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch recipe"})
	}
	return c.JSON(http.StatusOK, r)
}

// POST /api/recipes (multipart)
func (h *Handler) Create(c echo.Context) error {
	u := middleware.CurrentUser(c)

	title := c.FormValue("title")
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	}
	ingredients, err := parseJSONArray(c.FormValue("ingredients"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients must be a JSON array"})
	}
	steps, err := parseJSONArray(c.FormValue("steps"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "steps must be a JSON array"})
	}

	files, err := imageFiles(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least 1 image required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	images, err := h.saveImages(ctx, files)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	r := &store.Recipe{
		Title:       title,
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		WhyLove:     c.FormValue("whyLove"),
		Image:       images[0],
		Images:      images,
		Ingredients: ingredients,
		Steps:       steps,
		OwnerEmail:  u.Email,
	}
	if err := h.recipes.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "A recipe with this title already exists"})
		}
		h.log.Error("create recipe failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create recipe"})
	}

	// Announcement is best effort; a queue hiccup must not fail the create.
	if err := h.alerts.EnqueueRecipePublished(r.Title, r.Description); err != nil {
		h.log.Error("enqueue recipe announcement failed", "recipe", r.Title, "err", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Recipe created", "id": r.ID})
}

// PUT /api/recipes/:title (multipart)
func (h *Handler) Update(c echo.Context) error {
	u := middleware.CurrentUser(c)
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	existing, err := h.recipes.ByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Recipe not found"})
		}
		h.log.Error("update lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update recipe"})
	}
	if existing.OwnerEmail != u.Email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Not allowed (not owner)"})
	}

	newTitle := c.FormValue("title")
	if newTitle == "" {
		newTitle = existing.Title
	}
	ingredients, err := parseJSONArray(c.FormValue("ingredients"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients must be a JSON array"})
	}
	steps, err := parseJSONArray(c.FormValue("steps"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "steps must be a JSON array"})
	}

	files, err := imageFiles(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var images []string
	if len(files) > 0 {
		if images, err = h.saveImages(ctx, files); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	upd := store.RecipeUpdate{
		Title:       newTitle,
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		WhyLove:     c.FormValue("whyLove"),
		Ingredients: ingredients,
		Steps:       steps,
		Images:      images,
	}
	if err := h.recipes.Update(ctx, title, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Recipe not found"})
		}
		if errors.Is(err, store.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "A recipe with this title already exists"})
		}
		h.log.Error("update recipe failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update recipe"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Recipe updated"})
}

// DELETE /api/recipes/:title
func (h *Handler) Delete(c echo.Context) error {
	u := middleware.CurrentUser(c)
	title := decodeTitle(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	existing, err := h.recipes.ByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Recipe not found"})
		}
		h.log.Error("delete lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete recipe"})
	}
	if existing.OwnerEmail != u.Email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Not allowed (not owner)"})
	}

	if err := h.recipes.Delete(ctx, title); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("delete recipe failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete recipe"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Recipe deleted"})
}

func (h *Handler) saveImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		u, err := h.uploads.Save(ctx, fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func imageFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.New("invalid multipart form")
	}
	files := form.File["images"]
	if len(files) > MaxImages {
		return nil, errors.New("At most 3 images allowed")
	}
	return files, nil
}

// parseJSONArray validates a form field that must carry a JSON array; the
// empty field means an empty list.
func parseJSONArray(s string) (json.RawMessage, error) {
	if s == "" {
		return json.RawMessage("[]"), nil
	}
	var probe []json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}

// decodeTitle undoes the URL encoding of the :title path segment.
func decodeTitle(c echo.Context) string {
	raw := c.Param("title")
	if title, err := url.PathUnescape(raw); err == nil {
		return title
	}
	return raw
}
