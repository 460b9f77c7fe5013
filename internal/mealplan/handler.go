// Package mealplan implements the weekly meal planner grid.
package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plateful-app/plateful/internal/middleware"
	"github.com/plateful-app/plateful/internal/store"
)

const dbTimeout = 5 * time.Second

// emptyGrid is the default plan: three meal rows (breakfast, lunch, dinner)
// by seven days, every slot unset.
func emptyGrid() json.RawMessage {
	type cell struct {
		ID       *string `json:"id"`
		Name     string  `json:"name"`
		ImageURL *string `json:"imageUrl"`
	}
	row := make([]cell, 7)
	for i := range row {
		row[i] = cell{Name: "-"}
	}
	grid, _ := json.Marshal([][]cell{row, row, row})
	return grid
}

type Handler struct {
	plans store.MealPlans
	log   *slog.Logger
}

func NewHandler(plans store.MealPlans, log *slog.Logger) *Handler {
	return &Handler{plans: plans, log: log}
}

// GET /api/meal-plans/:weekStartDate
func (h *Handler) Get(c echo.Context) error {
	u := middleware.CurrentUser(c)

	week, err := ParseWeekStart(c.Param("weekStartDate"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid week start date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	meals, err := h.plans.Get(ctx, u.ID, week)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"meals": emptyGrid()})
		}
		h.log.Error("get meal plan failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch meal plan"})
	}
	return c.JSON(http.StatusOK, echo.Map{"meals": meals})
}

type SaveRequest struct {
	DateString string          `json:"dateString"`
	Meals      json.RawMessage `json:"meals"`
}

// PUT /api/meal-plans
func (h *Handler) Save(c echo.Context) error {
	u := middleware.CurrentUser(c)

	req := new(SaveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.DateString == "" || len(req.Meals) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing dateString or meals data."})
	}

	week, err := ParseWeekStart(req.DateString)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid week start date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	modified, upserted, err := h.plans.Upsert(ctx, u.ID, week, req.Meals)
	if err != nil {
		h.log.Error("save meal plan failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save meal plan"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Meal plan saved successfully",
		"modifiedCount": modified,
		"upsertedCount": upserted,
	})
}
