// Package alerts sends outbound email through an asynq task queue so HTTP
// handlers never block on SMTP round-trips.
package alerts

import "time"

// Task type constants
const (
	TaskNewsletterWelcome = "email:newsletter_welcome"
	TaskRecipePublished   = "email:recipe_published"
)

// NewsletterWelcomePayload greets a new subscriber.
type NewsletterWelcomePayload struct {
	Email    string    `json:"email"`
	QueuedAt time.Time `json:"queued_at"`
}

// RecipePublishedPayload announces a new recipe. The worker resolves the
// subscriber list at send time, so subscribers added between publish and
// delivery are included and unsubscribed addresses are not.
type RecipePublishedPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	QueuedAt    time.Time `json:"queued_at"`
}
