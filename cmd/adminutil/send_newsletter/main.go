// Command send_newsletter re-enqueues the announcement email for an existing
// recipe, for when the original fan-out failed or a recipe deserves a second
// push.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/plateful-app/plateful/internal/alerts"
	"github.com/plateful-app/plateful/internal/config"
	"github.com/plateful-app/plateful/internal/db"
	"github.com/plateful-app/plateful/internal/store"
)

func main() {
	title := flag.String("title", "", "Title of the recipe to announce")
	flag.Parse()

	if *title == "" {
		log.Fatalf("usage: go run cmd/adminutil/send_newsletter/main.go -title \"Recipe Title\"")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	r, err := store.NewRecipes(pool).ByTitle(ctx, *title)
	if err != nil {
		log.Fatalf("no recipe found with title %q: %v", *title, err)
	}

	client := alerts.NewClient(cfg.RedisAddr)
	defer client.Close()

	if err := client.EnqueueRecipePublished(r.Title, r.Description); err != nil {
		log.Fatalf("enqueue announcement: %v", err)
	}

	fmt.Printf("Announcement for %q queued.\n", r.Title)
}
