package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"runtime"
	"sync"
	"time"

	"github.com/Ko-stant/maze-division-engine/internal/config"
)

// StartProfiling starts the pprof server on its own port
func StartProfiling(cfg config.ProfilingConfig) {
	if !cfg.Enabled {
		return
	}

	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	go func() {
		log.Printf("Starting pprof server on :%s", cfg.Port)
		log.Printf("CPU profile: http://localhost:%s/debug/pprof/profile", cfg.Port)
		log.Printf("Heap profile: http://localhost:%s/debug/pprof/heap", cfg.Port)
		log.Printf("Goroutine profile: http://localhost:%s/debug/pprof/goroutine", cfg.Port)

		if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
			log.Printf("pprof server failed: %v", err)
		}
	}()
}

// PerformanceMetrics holds generation tracking data
type PerformanceMetrics struct {
	mu              sync.Mutex
	RunsCompleted   int64
	RunsCancelled   int64
	RunsFailed      int64
	WallsDrawn      int64
	AvgRunTime      time.Duration
	PeakGoroutines  int
	PeakMemoryUsage uint64
	StartTime       time.Time
}

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		StartTime: time.Now(),
	}
}

// TrackRun records a run that produced a grid, cancelled or not
func (pm *PerformanceMetrics) TrackRun(duration time.Duration, walls int, cancelled bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.RunsCompleted++
	if cancelled {
		pm.RunsCancelled++
	}
	pm.WallsDrawn += int64(walls)
	// running average over completed runs
	pm.AvgRunTime = (pm.AvgRunTime*time.Duration(pm.RunsCompleted-1) + duration) / time.Duration(pm.RunsCompleted)
	pm.updateSystemMetrics()
}

// TrackFailure records a run aborted by an error
func (pm *PerformanceMetrics) TrackFailure() {
	pm.mu.Lock()
	pm.RunsFailed++
	pm.mu.Unlock()
}

func (pm *PerformanceMetrics) updateSystemMetrics() {
	goroutines := runtime.NumGoroutine()
	if goroutines > pm.PeakGoroutines {
		pm.PeakGoroutines = goroutines
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.Alloc > pm.PeakMemoryUsage {
		pm.PeakMemoryUsage = m.Alloc
	}
}

// LogMetrics logs current performance metrics
func (pm *PerformanceMetrics) LogMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	uptime := time.Since(pm.StartTime)
	log.Printf("=== Performance Metrics ===")
	log.Printf("Uptime: %v", uptime)
	log.Printf("Runs completed: %d (cancelled %d)", pm.RunsCompleted, pm.RunsCancelled)
	log.Printf("Runs failed: %d", pm.RunsFailed)
	log.Printf("Walls drawn: %d", pm.WallsDrawn)
	log.Printf("Average run time: %v", pm.AvgRunTime)
	log.Printf("Peak goroutines: %d", pm.PeakGoroutines)
	log.Printf("Peak memory usage: %d bytes", pm.PeakMemoryUsage)
}

// StartMetricsReporting logs metrics every interval until ctx is done
func StartMetricsReporting(ctx context.Context, metrics *PerformanceMetrics, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.LogMetrics()
			}
		}
	}()
}
