package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/dk59mh974z-afk/open-podcast-lobby/internal/app"
	"github.com/dk59mh974z-afk/open-podcast-lobby/internal/app/directory"
	"github.com/dk59mh974z-afk/open-podcast-lobby/internal/app/httpapi"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/metrics"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/signaling"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/webrtc/ice"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	iceMode, iceServers := ice.LoadFromEnv(logger)

	reg := signaling.NewRegistry()

	var dir signaling.DirectoryStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, stop := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		stop()
		if err != nil {
			// The mirror is observability only; the lobby runs without it.
			logger.Warn("redis.unavailable", "addr", cfg.RedisAddr, "err", err)
		} else {
			store := directory.New(ctx, rdb, cfg.RedisPrefix, logger)
			if err := store.Reset(ctx); err != nil {
				logger.Warn("directory.reset", "err", err)
			}
			dir = store
			logger.Info("directory.enabled", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		}
	}

	hub := signaling.NewHub(reg, signaling.HubOptions{
		ICEServers: iceServers,
		ICEMode:    iceMode,
		Logger:     logger,
		Directory:  dir,
	})

	settings := httpapi.Settings{
		ICEMode:     iceMode,
		ICEServers:  iceServers,
		PublicWSURL: cfg.PublicWSURL,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.HTTPHandler())
	mux.Handle("/settings", httpapi.SettingsHandler(settings))
	mux.Handle("/debug/ice", httpapi.DebugICEHandler(settings))
	mux.Handle("/healthz", okHandler())
	mux.Handle("/readyz", okHandler())
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", httpapi.LandingHandler(cfg.StaticDir))

	corsWrap := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsWrap.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", cfg.Addr, "static", cfg.StaticDir, "ice_mode", iceMode, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.failed", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown.error", "err", err)
	}
	logger.Info("server.shutdown.complete")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
