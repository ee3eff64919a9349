// Package main is the entry point for the catalog-summary HTTP server.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"catalog-summary/internal/app"
	"catalog-summary/internal/config"
	internaldb "catalog-summary/internal/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	dotEnvErr := config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if dotEnvErr != nil {
		logger.Warn("could not load .env", "error", dotEnvErr)
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// writeDB: single-connection pool for serialized writes.
	// readDB: small pool for concurrent inbox reads.
	pool, err := internaldb.Open(ctx, cfg.Notifications.DBPath, 4)
	if err != nil {
		return fmt.Errorf("open notification store: %w", err)
	}
	defer pool.Close() //nolint:errcheck

	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: pool.Write,
		ReadDB:  pool.Read,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	application.Start()
	defer application.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	tlsEnabled := cfg.TLSCertFile != ""
	if tlsEnabled {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening",
		"addr", cfg.ListenAddr,
		"tls", tlsEnabled,
		"catalog", cfg.Catalog.BaseURL,
		"try", exampleSummaryCommand(cfg.ListenAddr, tlsEnabled, cfg.Auth.Enabled()),
	)

	if tlsEnabled {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// exampleSummaryCommand returns a curl command that fetches a table summary
// from a server listening on listenAddr.
func exampleSummaryCommand(listenAddr string, tlsEnabled, authEnabled bool) string {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	auth := ""
	if authEnabled {
		auth = "-H 'Authorization: Bearer <jwt>' "
	}
	return fmt.Sprintf("curl %s'%s://%s/v1/summaries/tables/<fqn>?context=explore'", auth, scheme, dialHost(listenAddr))
}

// dialHost turns a listen address into a host:port a local client can dial.
func dialHost(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		addr = config.DefaultListenAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
