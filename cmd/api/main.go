package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Shrey-Sawant/Sonder/internal/config"
	"github.com/Shrey-Sawant/Sonder/internal/handler"
	"github.com/Shrey-Sawant/Sonder/internal/hub"
	"github.com/Shrey-Sawant/Sonder/internal/mail"
	authService "github.com/Shrey-Sawant/Sonder/internal/service/auth"
	chatService "github.com/Shrey-Sawant/Sonder/internal/service/chat"
	companionService "github.com/Shrey-Sawant/Sonder/internal/service/companion"
	ratingService "github.com/Shrey-Sawant/Sonder/internal/service/rating"
	scheduleService "github.com/Shrey-Sawant/Sonder/internal/service/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/store"
	"github.com/Shrey-Sawant/Sonder/internal/store/memory"
	"github.com/Shrey-Sawant/Sonder/internal/store/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dataStore := openStore(ctx, cfg.Database)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		log.Println("connected to Redis, cross-instance event fan-out enabled")
	} else {
		log.Println("REDIS_ADDR not set, live events delivered locally only")
	}

	liveHub := hub.New(redisClient)
	if redisClient != nil {
		go liveHub.SubscribeRedis(ctx)
	}

	mailer := mail.New(cfg.Mail)
	authSvc := authService.NewService(dataStore, mailer, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.OTPTTL)
	chatSvc := chatService.NewService(dataStore, dataStore, liveHub)
	scheduleSvc := scheduleService.NewService(dataStore)
	ratingSvc := ratingService.NewService(dataStore)

	var companionSvc *companionService.Service
	if cfg.AI.Enabled() {
		companionSvc, err = companionService.NewService(ctx, dataStore, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize companion service: %v", err)
			log.Println("continuing without AI companion")
		} else {
			log.Println("AI companion service initialized")
		}
	} else {
		log.Println("ARK credentials not configured, skipping AI companion")
	}

	router := handler.NewRouter(handler.Services{
		Store:     dataStore,
		Auth:      authSvc,
		Chat:      chatSvc,
		Schedule:  scheduleSvc,
		Rating:    ratingSvc,
		Companion: companionSvc,
		Hub:       liveHub,
	})

	startServer(ctx, cfg.Server, router)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) store.Store {
	if cfg.DSN == "" {
		log.Println("DB_DSN not set, using in-memory store (data is not persisted)")
		return memory.New()
	}

	pg, err := postgres.Open(cfg.DSN)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if err := pg.AutoMigrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("connected to Postgres, schema ready")
	return pg
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Sonder API listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
