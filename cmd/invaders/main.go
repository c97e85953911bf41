package main

import (
	"context"
	"flag"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/Aulris16/space-invaders-alike/internal/config"
	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/session"
	"github.com/Aulris16/space-invaders-alike/internal/store"
	"github.com/Aulris16/space-invaders-alike/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Config error: ", err)
	}

	var logFile string
	flag.StringVar(&cfg.StoreURL, "store", cfg.StoreURL, "Relay websocket URL, e.g. ws://localhost:8080/ws (empty plays offline)")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 for random)")
	flag.IntVar(&cfg.TickRate, "tick", cfg.TickRate, "Frames per second")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log", "", "Write logs to this file (the terminal is taken by the game)")
	flag.Parse()

	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Log.Fatal("Cannot open log file: ", err)
		}
		defer f.Close()
		out = f
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, out)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	playerID := uuid.NewString()
	logger.Log.WithField("player", playerID).Infof("Using seed %d", seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, closeStore := openStore(ctx, cfg.StoreURL)
	defer closeStore()

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Log.Fatal("Terminal unavailable: ", err)
	}
	if err := screen.Init(); err != nil {
		logger.Log.Fatal("Terminal unavailable: ", err)
	}
	defer screen.Fini()

	app := tui.New(screen)
	ctrl := session.NewController(session.Options{
		Store:    docs,
		PlayerID: playerID,
		Rand:     rand.New(rand.NewSource(seed)),
	})
	loop := session.NewLoop(ctrl, cfg.TickRate, app.Input, app.Render)

	runCtx, cancel := context.WithCancel(ctx)
	go loop.Run(runCtx)

	app.Run(runCtx, loop)
	cancel()
	<-loop.Done()
}

// openStore dials the relay, or falls back to a private in-memory store
func openStore(ctx context.Context, url string) (store.Store, func()) {
	if url == "" {
		return store.NewMemory(), func() {}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := store.Dial(dialCtx, url)
	if err != nil {
		// Rooms will report the store as unavailable
		logger.Log.WithError(err).Warn("Playing without a relay")
		return nil, func() {}
	}
	return client, func() { client.Close() }
}
