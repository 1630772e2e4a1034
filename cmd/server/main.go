package main

import (
	"context"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/auth"
	"github.com/Tyrowin/roomsignal/internal/server"
	"github.com/Tyrowin/roomsignal/internal/signaling"
)

func main() {
	cfg := server.NewConfigFromEnv()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if verifier.Enabled() {
		logger.Info().Strs("moderator_roles", cfg.ModeratorRoles).Msg("token authentication enabled")
	} else {
		logger.Warn().Msg("JWT_SECRET not set; accepting anonymous connections and allowing any member to kick")
	}

	coord := signaling.NewCoordinator(
		signaling.WithLogger(logger.With().Str("component", "signaling").Logger()),
		signaling.WithAuthorizer(auth.NewAuthorizer(verifier, cfg.ModeratorRoles)),
		signaling.WithHistory(cfg.History.Capacity, cfg.History.Replay),
	)

	hub := server.NewHub(coord, logger.With().Str("component", "hub").Logger())
	go hub.Run()

	router := server.NewRouter(hub, *cfg, verifier, logger)
	httpServer := server.CreateServer(cfg.Port, router)

	go func() {
		if err := server.StartServer(httpServer, logger); err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
				defer cancel()
				return server.ShutdownServer(ctx, httpServer, logger)
			},
			"hub": func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
				defer cancel()
				return hub.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info().Int("exit_code", exitCode).Msg("server stopped")
	os.Exit(exitCode)
}
