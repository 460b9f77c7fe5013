// Package newsletter implements subscription signup and the welcome email.
package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plateful-app/plateful/internal/store"
)

const dbTimeout = 5 * time.Second

// Welcomer queues the subscriber welcome email. Satisfied by alerts.Client.
type Welcomer interface {
	EnqueueNewsletterWelcome(email string) error
}

type Handler struct {
	newsletter store.Newsletter
	alerts     Welcomer
	log        *slog.Logger
}

func NewHandler(newsletter store.Newsletter, alerts Welcomer, log *slog.Logger) *Handler {
	return &Handler{newsletter: newsletter, alerts: alerts, log: log}
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

// POST /api/newsletter/subscribe
func (h *Handler) Subscribe(c echo.Context) error {
	req := new(SubscribeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.newsletter.Subscribe(ctx, req.Email); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This email is already subscribed."})
		}
		h.log.Error("subscribe failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Subscription failed"})
	}

	if err := h.alerts.EnqueueNewsletterWelcome(req.Email); err != nil {
		// Subscription is stored; the welcome email just did not queue.
		h.log.Error("enqueue welcome email failed", "to", req.Email, "err", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Subscribed successfully! Check your email."})
}
