package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/anreonyr/simphy/internal/auth"
	"github.com/anreonyr/simphy/internal/config"
	"github.com/anreonyr/simphy/internal/export"
	mw "github.com/anreonyr/simphy/internal/middleware"
	"github.com/anreonyr/simphy/internal/project"
	"github.com/anreonyr/simphy/internal/session"
	"github.com/anreonyr/simphy/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scenes, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open scene store", "error", err)
		os.Exit(1)
	}
	defer scenes.Close()

	if err := os.MkdirAll(cfg.SceneDir, 0o755); err != nil {
		slog.Error("create scene dir", "dir", cfg.SceneDir, "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	hub := session.NewHub(session.Options{
		Engine:       cfg.Engine(slog.Default()),
		TickInterval: cfg.TickInterval(),
		SceneDir:     cfg.SceneDir,
		Logger:       slog.Default(),
	})
	go hub.Run()

	sessionHandler := session.NewHandler(hub, authService, cfg.Origins())
	projectHandler := project.NewHandler(project.NewService(scenes, hub))
	exportHandler := export.NewHandler(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/sessions", sessionHandler.List).Methods("GET")
	api.HandleFunc("/sessions", sessionHandler.Create).Methods("POST")
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.Delete).Methods("DELETE")
	api.HandleFunc("/sessions/{sessionId}/export", exportHandler.Export).Methods("GET")
	api.HandleFunc("/sessions/{sessionId}/import", exportHandler.Import).Methods("POST")

	api.HandleFunc("/scenes", projectHandler.List).Methods("GET")
	api.HandleFunc("/scenes", projectHandler.Save).Methods("POST")
	api.HandleFunc("/scenes/{sceneId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/scenes/{sceneId}/open", projectHandler.Open).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/session/{sessionId}", sessionHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r), // wraps the router so preflights skip route matching
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop sessions first so viewers are disconnected
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "tickRate", cfg.TickRateHz, "sceneDir", cfg.SceneDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore uses Postgres when DATABASE_URL is set and the SQLite file
// otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		slog.Info("scene store", "driver", "postgres")
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	}
	slog.Info("scene store", "driver", "sqlite", "path", cfg.SQLitePath)
	return store.NewSQLite(cfg.SQLitePath)
}
