package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nimbusapp/nimbus-api/internal/config"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/challenge"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/mail"
	transporthttp "github.com/nimbusapp/nimbus-api/internal/transport/http"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	identityClient := identity.NewClient(cfg)
	factory := identity.NewFactory(identityClient, cookies.AccessToken)

	mailer := mail.New(cfg)

	// Challenge store backend. The default holds the record client-side in a
	// signed cookie; the server-side backends keep only an opaque handle in
	// the cookie.
	var store challenge.Store
	switch cfg.ChallengeBackend {
	case "memory":
		store = challenge.NewMemoryStore()
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store = challenge.NewRedisStore(rdb)
	case "dynamo":
		client := challenge.NewDynamoClient(cfg)
		challenge.BootstrapDynamo(context.Background(), client, cfg.DynamoChallengeTable)
		store = challenge.NewDynamoStore(client, cfg.DynamoChallengeTable)
	default:
		cs, err := challenge.NewCookieStore(cfg.ChallengeSecret)
		if err != nil {
			log.Fatalf("challenge store: %v (set CHALLENGE_SECRET)", err)
		}
		store = cs
	}

	deps := &transporthttp.Deps{
		Identity:   identityClient,
		Factory:    factory,
		Mailer:     mailer,
		Challenges: store,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
