package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nyukimin/mcpchat/internal/infrastructure/toolserver"
	"github.com/Nyukimin/mcpchat/pkg/logger"
)

var version = "dev"

func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "listen address")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.Configure(*logLevel, "text")

	srv := &http.Server{
		Addr:              *addr,
		Handler:           toolserver.New(toolserver.NewStore(nil), version).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.InfoCF("toolserver", "listening", map[string]interface{}{"addr": *addr, "endpoint": "/mcp"})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorCF("toolserver", "server failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
