package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/time/rate"

	"presence-lab/infrastructure/ws"
	"presence-lab/internal"
	"presence-lab/moderation"
	"presence-lab/observability"
	"presence-lab/runtime"
	"presence-lab/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle and
// centralizes error reporting, so every defer executes before the process
// exits and main stays trivially testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(internal.SplitWords(config.CensoredWords), censoredChar)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	// 2. State machine wiring
	registry := runtime.NewRegistry()
	directory := runtime.NewDirectory()
	stats := observability.NewStats()
	gateway := runtime.NewChannelGateway(log, registry, directory, config.BufferSize)
	coordinator := runtime.NewCoordinator(log, registry, directory, gateway,
		moderator, stats, config.RemoveRoomMaxOccupancy)

	// 3. Supervised workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewEventFanout(log, registry, gateway.Envelopes(), config.SinkTimeout))
	sup.Add(workers.NewHeartbeat(log, stats, registry.Count, directory.Count, config.HeartbeatInterval))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 5. Transport
	wsServer := ws.NewServer(log, coordinator, ws.ServerConfig{
		SinkBufferSize:    config.ConnectionBufferSize,
		MessagesPerSecond: rate.Limit(config.MessagesPerSecond),
		Burst:             config.MessageBurst,
	})
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: wsServer.Handler()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting presence server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
