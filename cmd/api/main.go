package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/plateful-app/plateful/internal/alerts"
	"github.com/plateful-app/plateful/internal/auth"
	"github.com/plateful-app/plateful/internal/comment"
	"github.com/plateful-app/plateful/internal/config"
	"github.com/plateful-app/plateful/internal/db"
	"github.com/plateful-app/plateful/internal/favorite"
	"github.com/plateful-app/plateful/internal/mealplan"
	appmw "github.com/plateful-app/plateful/internal/middleware"
	"github.com/plateful-app/plateful/internal/newsletter"
	"github.com/plateful-app/plateful/internal/recipe"
	"github.com/plateful-app/plateful/internal/store"
	"github.com/plateful-app/plateful/internal/upload"
	"github.com/plateful-app/plateful/internal/user"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	log.Info("connected to postgres, schema up to date")

	users := store.NewUsers(pool)
	recipes := store.NewRecipes(pool)
	favorites := store.NewFavorites(pool)
	comments := store.NewComments(pool)
	subscribers := store.NewNewsletter(pool)
	mealPlans := store.NewMealPlans(pool)

	var uploads upload.Store
	if cfg.Storage.Backend == "s3" {
		uploads, err = upload.NewS3Store(ctx, cfg.Storage)
	} else {
		uploads, err = upload.NewDiskStore(cfg.Storage.UploadDir)
	}
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	alertsClient := alerts.NewClient(cfg.RedisAddr)
	defer alertsClient.Close()

	// The email worker runs in-process. Without mail credentials the API
	// still serves; queued emails wait until a configured worker drains them.
	if mailer, err := alerts.NewMailer(cfg.Mail); err != nil {
		log.Warn("mailer not configured, email worker disabled", "err", err)
	} else {
		processor := alerts.NewProcessor(cfg.RedisAddr, mailer, subscribers, log)
		if err := processor.Start(); err != nil {
			log.Error("email worker start failed", "err", err)
			os.Exit(1)
		}
		defer processor.Shutdown()
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	secure := cfg.Production()

	authHandler := auth.NewHandler(users, issuer, secure, log)
	userHandler := user.NewHandler(users, uploads, secure, log)
	recipeHandler := recipe.NewHandler(recipes, uploads, alertsClient, log)
	favoriteHandler := favorite.NewHandler(favorites, recipes, log)
	commentHandler := comment.NewHandler(comments, log)
	newsletterHandler := newsletter.NewHandler(subscribers, alertsClient, log)
	mealPlanHandler := mealplan.NewHandler(mealPlans, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	if cfg.Storage.Backend == "disk" {
		e.Static("/uploads", cfg.Storage.UploadDir)
	}

	// Public auth routes
	authGroup := e.Group("/api/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/check", authHandler.Check)

	api := e.Group("/api")

	// Public reads
	api.GET("/recipes", recipeHandler.List)
	api.GET("/recipes/featured", recipeHandler.Featured)
	api.GET("/recipes/:title", recipeHandler.Get)
	api.GET("/comments/:title", commentHandler.ForRecipe)
	api.POST("/newsletter/subscribe", newsletterHandler.Subscribe)

	// Authenticated group
	g := api.Group("")
	g.Use(appmw.RequireAuth(issuer, users))

	g.POST("/recipes", recipeHandler.Create)
	g.PUT("/recipes/:title", recipeHandler.Update)
	g.DELETE("/recipes/:title", recipeHandler.Delete)

	g.POST("/favorites/:title", favoriteHandler.Add)
	g.GET("/favorites", favoriteHandler.List)
	g.DELETE("/favorites/:title", favoriteHandler.Remove)

	g.POST("/comments/:title", commentHandler.Add)

	g.PUT("/users/profile", userHandler.UpdateProfile)
	g.DELETE("/users/profile", userHandler.DeleteAccount)
	g.PUT("/users/password", userHandler.UpdatePassword)

	g.GET("/meal-plans/:weekStartDate", mealPlanHandler.Get)
	g.PUT("/meal-plans", mealPlanHandler.Save)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			stop()
		}
	}()
	log.Info("api server listening", "port", cfg.Port)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
