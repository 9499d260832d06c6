package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eclipse/server"
	"eclipse/server/application"
	"eclipse/server/auth"
	"eclipse/server/config"
	"eclipse/server/telemetry"
)

const serviceName = "eclipse-arena"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry error: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	resolver := auth.NewJWTResolver(cfg.TokenSecret)
	lobby := application.NewLobby(application.DefaultCatalog(), application.LobbyConfig{
		FinishedMatchTTL: cfg.FinishedMatchTTL,
		ReapInterval:     cfg.ReapInterval,
		QueueDedupe:      cfg.QueueDedupe,
	})
	go func() {
		if err := lobby.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "lobby error", "err", err)
		}
	}()

	handler := server.Route(resolver, lobby, cfg.IdleTimeout)
	s := server.NewServer(cfg.ListenAddr(), handler)

	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	slog.InfoContext(ctx, "server listening", "addr", cfg.ListenAddr())

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(ctx, "forced close failed", "error", err)
		}
	}
	slog.InfoContext(ctx, "server shutdown complete")
}
