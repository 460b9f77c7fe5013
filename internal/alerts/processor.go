package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// SubscriberSource yields the current newsletter recipients. Implemented by
// the newsletter store.
type SubscriberSource interface {
	Subscribers(ctx context.Context) ([]string, error)
}

// Processor runs the in-process asynq worker that drains the email queue.
type Processor struct {
	server *asynq.Server
	mailer *Mailer
	subs   SubscriberSource
	log    *slog.Logger
}

func NewProcessor(redisAddr string, mailer *Mailer, subs SubscriberSource, log *slog.Logger) *Processor {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{emailQueue: 10},
		},
	)
	return &Processor{server: server, mailer: mailer, subs: subs, log: log}
}

// Start runs the worker loop in the background.
func (p *Processor) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNewsletterWelcome, p.handleNewsletterWelcome)
	mux.HandleFunc(TaskRecipePublished, p.handleRecipePublished)
	return p.server.Start(mux)
}

func (p *Processor) Shutdown() {
	p.server.Shutdown()
}

func (p *Processor) handleNewsletterWelcome(_ context.Context, t *asynq.Task) error {
	var payload NewsletterWelcomePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	err := p.mailer.Send(payload.Email,
		"Welcome to our Newsletter!",
		"<p>Thank you for subscribing to our recipe newsletter!</p>")
	if err != nil {
		p.log.Error("welcome email failed", "to", payload.Email, "err", err)
		return err
	}
	p.log.Info("welcome email sent", "to", payload.Email)
	return nil
}

func (p *Processor) handleRecipePublished(ctx context.Context, t *asynq.Task) error {
	var payload RecipePublishedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	emails, err := p.subs.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}

	subject := "New Recipe: " + payload.Title
	body := fmt.Sprintf("<h2>New Recipe Alert!</h2><h3>%s</h3><p>%s</p>",
		payload.Title, payload.Description)

	var failed int
	for _, to := range emails {
		if err := p.mailer.Send(to, subject, body); err != nil {
			p.log.Error("recipe announcement failed", "to", to, "err", err)
			failed++
		}
	}
	p.log.Info("recipe announcement sent", "recipe", payload.Title,
		"recipients", len(emails)-failed, "failed", failed)
	return nil
}
