// Package main runs the classmart mock backend for local development. It
// serves the listing, photo, and telegram auth endpoints the client consumes
// from an in-memory store, so `cmart` can be exercised without the real
// marketplace backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donaldgifford/classmart/internal/api/handlers"
	"github.com/donaldgifford/classmart/pkg/logger"
)

var version = "dev"

type options struct {
	port      int
	basePath  string
	botToken  string
	seed      bool
	logLevel  string
	logFormat string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("mock-server", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.IntVar(&o.port, "port", 8000, "port to listen on")
	fs.StringVar(&o.basePath, "base-path", "/api/v1", "prefix for API routes")
	fs.StringVar(&o.botToken, "bot-token", os.Getenv("CLASSMART_BOT_TOKEN"),
		"bot token used to verify init data; empty trusts any init data")
	fs.BoolVar(&o.seed, "seed", true, "start with sample listings")
	fs.StringVar(&o.logLevel, "log-level", "debug", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: text, json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.port < 0 || o.port > 65535 {
		return nil, fmt.Errorf("invalid port %d", o.port)
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	log := logger.New(o.logLevel, o.logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o *options, log *slog.Logger) error {
	store := handlers.NewMemoryStore()
	if o.seed {
		n := handlers.Seed(store)
		log.Info("seeded store", "listings", n)
	}

	e := handlers.NewServer(handlers.ServerConfig{
		BasePath: o.basePath,
		BotToken: o.botToken,
		Version:  version,
		Store:    store,
		Logger:   log,
	})

	addr := fmt.Sprintf(":%d", o.port)
	log.Info("starting mock backend",
		"addr", addr,
		"base_path", o.basePath,
		"verify_init_data", o.botToken != "",
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down mock backend")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
