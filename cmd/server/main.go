package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Ko-stant/maze-division-engine/internal/config"
	"github.com/Ko-stant/maze-division-engine/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	StartProfiling(cfg.Profiling)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	hub := ws.NewHub()
	runs := NewRunManager()
	metrics := NewPerformanceMetrics()
	service := NewMazeService(cfg.Maze, hub, runs, metrics, logger)
	handlers := NewHandlers(service, hub, runs, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           NewRouter(handlers, cfg.RateLimit),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Maze server listening on :%s (max %dx%d, budget %d)",
			cfg.Server.Port, cfg.Maze.MaxWidth, cfg.Maze.MaxHeight, cfg.Maze.MaxBudget)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down, cancelling %d runs", runs.Count())
		runs.CancelAll()
		hub.CloseAll("server shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	StartMetricsReporting(gctx, metrics, cfg.Server.MetricsInterval)

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	metrics.LogMetrics()
}
