package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aulris16/space-invaders-alike/internal/config"
	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/server"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Config error: ", err)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address the relay listens on")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	srv := server.NewServer(store.NewMemory())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	logger.Log.Info("Starting room relay...")
	go func() {
		if err := srv.Start(cfg.Addr); err != nil {
			logger.Log.Fatal("Server failed to start: ", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("Shutdown incomplete")
	}
	logger.Log.Info("Done.")
}
