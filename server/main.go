// Package server wires storage, session management and the REST API into
// a runnable shareadmin server.
package server

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareadmin/pkg/api"
	"shareadmin/pkg/auth"
	"shareadmin/pkg/config"
	"shareadmin/pkg/logger"
	"shareadmin/pkg/storage"
)

// Main is the server entrypoint, invoked from cmd/shareadmind.
func Main() {
	addr := flag.String("addr", "", "listen address (overrides config)")
	configPath := flag.String("config", "", "config file path (optional)")
	dbType := flag.String("db-type", "", "database backend: sqlite or mysql (overrides config)")
	dbPath := flag.String("db-path", "", "sqlite file path or mysql DSN (overrides config)")
	maxSessions := flag.Int("max-sessions", 0, "max concurrent device sessions per user (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "log format: text or json")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logger.Get().ErrorWithErr("load configuration", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Address = *addr
	}
	if *dbType != "" {
		cfg.Database.Type = *dbType
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *maxSessions > 0 {
		cfg.Sessions.MaxPerUser = *maxSessions
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		logger.Get().ErrorWithErr("invalid configuration", err)
		os.Exit(1)
	}

	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	log := logger.Get()
	log.Info("server starting", "address", cfg.Address, "db", cfg.Database.Type)

	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		log.ErrorWithErr("open storage", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := auth.NewManager(store, cfg.Sessions.MaxPerUser)
	handler := api.NewHandler(sessions, store)
	if err := handler.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.ErrorWithErr("seed admin user", err)
		os.Exit(1)
	}

	// No WriteTimeout: the session event websocket holds connections open
	// indefinitely.
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           api.NewRouter(handler, sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Info("server is running", "address", cfg.Address)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.ErrorWithErr("shutdown", err)
		}
	case err := <-errChan:
		log.ErrorWithErr("server error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
