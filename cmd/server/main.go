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

	"storefront/backend/internal/auth"
	"storefront/backend/internal/cache"
	"storefront/backend/internal/config"
	"storefront/backend/internal/httpapi"
	"storefront/backend/internal/kv"
	"storefront/backend/internal/service"
	"storefront/backend/internal/store"
	"storefront/backend/internal/store/memory"
	pgstore "storefront/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	sessionState := kv.Store(kv.NewMemory())
	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisKV := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisKV.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory session state and noop report cache", err)
		} else {
			sessionState = redisKV
			closers = append(closers, redisKV.Close)
			redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("session state and report cache: redis")
		}
	} else {
		log.Println("session state: in-memory, report cache: noop")
	}

	users := auth.NewService(sessionState, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	if cfg.SeedAdminEmail != "" {
		users.SeedAdmin(ctx, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword,
			[]string{"products", "orders", "reports"})
	}

	svc := service.New(repo, users, nil, reportCache, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
	api := httpapi.New(svc, users, httpapi.NewTokenIssuer(cfg.AuthSecret), cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("storefront backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.SeedAdminEmail != "" && len(cfg.SeedAdminPassword) < 12 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 12 characters when SEED_ADMIN_EMAIL is set")
	}
	return nil
}
