package mealplan

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful-app/plateful/internal/store"
)

type planKey struct {
	userID string
	week   time.Time
}

type fakeMealPlans struct {
	plans map[planKey]json.RawMessage
}

func newFakeMealPlans() *fakeMealPlans {
	return &fakeMealPlans{plans: map[planKey]json.RawMessage{}}
}

func (f *fakeMealPlans) Get(_ context.Context, userID string, weekStart time.Time) (json.RawMessage, error) {
	if meals, ok := f.plans[planKey{userID, weekStart}]; ok {
		return meals, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeMealPlans) Upsert(_ context.Context, userID string, weekStart time.Time, meals json.RawMessage) (int64, int64, error) {
	key := planKey{userID, weekStart}
	_, existed := f.plans[key]
	f.plans[key] = meals
	if existed {
		return 1, 0, nil
	}
	return 0, 1, nil
}

func newTestHandler(plans store.MealPlans) *Handler {
	return NewHandler(plans, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func getPlan(t *testing.T, h *Handler, week string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("weekStartDate")
	c.SetParamValues(week)
	c.Set("authenticated_user", &store.User{ID: "u-1", Email: "ada@x.com"})
	require.NoError(t, h.Get(c))
	return rec
}

func savePlan(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("authenticated_user", &store.User{ID: "u-1", Email: "ada@x.com"})
	require.NoError(t, h.Save(c))
	return rec
}

func TestGetUnknownWeekReturnsEmptyGrid(t *testing.T) {
	h := newTestHandler(newFakeMealPlans())

	rec := getPlan(t, h, "2025-03-12")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Meals [][]struct {
			ID   *string `json:"id"`
			Name string  `json:"name"`
		} `json:"meals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Meals, 3)
	for _, row := range resp.Meals {
		require.Len(t, row, 7)
		for _, cell := range row {
			assert.Nil(t, cell.ID)
			assert.Equal(t, "-", cell.Name)
		}
	}
}

func TestGetInvalidDate(t *testing.T) {
	h := newTestHandler(newFakeMealPlans())

	rec := getPlan(t, h, "not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid week start date")
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	plans := newFakeMealPlans()
	h := newTestHandler(plans)

	rec := savePlan(t, h, `{"dateString":"2025-03-12","meals":[["pancakes"]]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upsertedCount":1`)
	assert.Contains(t, rec.Body.String(), `"modifiedCount":0`)

	// Any day of the same week reads back the saved plan.
	rec = getPlan(t, h, "2025-03-16")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pancakes")
}

func TestSaveTwiceReportsModified(t *testing.T) {
	h := newTestHandler(newFakeMealPlans())

	savePlan(t, h, `{"dateString":"2025-03-12","meals":[["pancakes"]]}`)
	rec := savePlan(t, h, `{"dateString":"2025-03-13","meals":[["waffles"]]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"modifiedCount":1`)
	assert.Contains(t, rec.Body.String(), `"upsertedCount":0`)
}

func TestSaveMissingFields(t *testing.T) {
	h := newTestHandler(newFakeMealPlans())

	for name, body := range map[string]string{
		"no date":  `{"meals":[["x"]]}`,
		"no meals": `{"dateString":"2025-03-12"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := savePlan(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Missing dateString or meals data.")
		})
	}
}
