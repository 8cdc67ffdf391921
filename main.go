package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/keystore/config"
	"github.com/example/keystore/handlers"
	"github.com/example/keystore/services"
	"github.com/example/keystore/store"
	"github.com/labstack/echo/v4"
)

func main() {
	// 1. Load Config
	config.LoadConfig()
	cfg := config.AppConfig

	// 2. Open Store
	keyStore, err := store.Open(cfg.StoreDriver, cfg.DataFile, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open key store: %v", err)
	}
	defer keyStore.Close()

	// 3. Initialize Services
	keyService := services.NewKeyService(keyStore, cfg.KeyBytes)

	// 4. Initialize Handlers
	h := handlers.NewHandler(keyService, handlers.NewMessages(cfg.Locale))

	// 5. Setup Echo
	e := handlers.NewServer(h, cfg.Prefix)

	// 6. Start Server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, e, cfg.Addr, cfg.ShutdownTimeout); err != nil {
		// Returning instead of exiting runs the deferred store Close.
		log.Printf("Server failed: %v", err)
	}
}

// serve runs e on addr until ctx is done or the listener fails.
func serve(ctx context.Context, e *echo.Echo, addr string, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Println("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
