package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"Wishly/internal/api/middleware"
	"Wishly/internal/api/routes"
	"Wishly/internal/config"
	"Wishly/internal/core/auth"
	"Wishly/internal/core/items"
	"Wishly/internal/core/linkmeta"
	postgresRepo "Wishly/internal/db/postgres"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to database")

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}
	if err := goose.Up(db, "internal/db/migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Println("Migrations completed successfully")

	// ID-token verification against the identity provider
	verifier, err := auth.NewTokenVerifier(ctx, cfg.JWKSURL, cfg.TokenIssuer, cfg.TokenAudience, cfg.SkipTokenVerify)
	if err != nil {
		log.Fatal("Failed to initialize token verifier:", err)
	}
	if cfg.SkipTokenVerify {
		log.Println("WARNING: token signature verification disabled (AUTH_SKIP_VERIFY)")
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	// Enrichment pipeline
	enricher := linkmeta.NewService(
		linkmeta.WithAPIEndpoint(cfg.MetadataAPIEndpoint),
		linkmeta.WithProxyEndpoint(cfg.HTMLProxyEndpoint),
		linkmeta.WithCacheTTL(cfg.MetadataTTL),
		linkmeta.WithTimeout(cfg.ProviderTimeout),
	)

	// Item store and service
	itemRepo := postgresRepo.NewItemRepository(db)
	itemService := items.NewItemService(itemRepo, enricher)

	// Background sweep over items with missing or stale metadata
	sweeper := items.NewSweeper(itemService, cfg.SweepInterval, cfg.MetadataTTL, cfg.SweepBatchSize)
	go sweeper.Run(ctx)

	authMiddleware := middleware.NewAuthMiddleware(verifier, sessionStore)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r := chi.NewRouter()
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(rateLimiter.Middleware)

	r.Mount("/api/session", routes.SessionRoutes(verifier, sessionStore, enricher))
	r.Mount("/api/items", routes.ItemRoutes(itemService, enricher, authMiddleware))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	fmt.Printf("Wishly server starting on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
