package alerts

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const emailQueue = "emails"

// Client enqueues email tasks. It is safe for concurrent use by handlers.
type Client struct {
	inner *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{inner: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// EnqueueNewsletterWelcome schedules the welcome email for a new subscriber.
func (c *Client) EnqueueNewsletterWelcome(email string) error {
	payload := NewsletterWelcomePayload{Email: email, QueuedAt: time.Now()}
	b, _ := json.Marshal(payload)
	_, err := c.inner.Enqueue(asynq.NewTask(TaskNewsletterWelcome, b), asynq.Queue(emailQueue))
	return err
}

// EnqueueRecipePublished schedules the new-recipe announcement fan-out.
func (c *Client) EnqueueRecipePublished(title, description string) error {
	payload := RecipePublishedPayload{Title: title, Description: description, QueuedAt: time.Now()}
	b, _ := json.Marshal(payload)
	_, err := c.inner.Enqueue(asynq.NewTask(TaskRecipePublished, b), asynq.Queue(emailQueue))
	return err
}
