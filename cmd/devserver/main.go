// Command devserver runs an in-memory vehicle pass registry for local development.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gatepass-registry/gatepass/internal/adapters/httpapi"
	memidempotency "github.com/gatepass-registry/gatepass/internal/adapters/memory/idempotency"
	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
	platformclock "github.com/gatepass-registry/gatepass/internal/platform/clock"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
)

func main() {
	// A missing .env is fine; the environment may be set another way.
	_ = godotenv.Load()

	cfg, err := config.LoadDevServerConfigFromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("invalid devserver config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	clk := platformclock.NewSystemClock()

	api := httpapi.NewServer(httpapi.NewDirectory(), memidempotency.NewStore(clk, memidempotency.DefaultRetention), sessiontoken.New(cfg, clk), clk, logger)
	if err := api.SeedSuperAdmin(context.Background(), cfg.SeedMobile, cfg.SeedPassword); err != nil {
		log.Fatalf("seed super-admin: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("registry listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
