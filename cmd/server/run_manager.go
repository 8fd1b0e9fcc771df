package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunInfo tracks one in-flight generation run
type RunInfo struct {
	ID      string
	Started time.Time
	cancel  context.CancelFunc
}

// RunManager tracks in-flight runs so they can be cancelled individually or
// all at once on shutdown
type RunManager struct {
	runs  map[string]*RunInfo
	mutex sync.RWMutex
}

// NewRunManager creates a new run manager
func NewRunManager() *RunManager {
	return &RunManager{runs: make(map[string]*RunInfo)}
}

// Start registers a run and returns its id and a context cancelled by Cancel,
// CancelAll or cancellation of parent
func (rm *RunManager) Start(parent context.Context) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	info := &RunInfo{
		ID:      uuid.NewString(),
		Started: time.Now(),
		cancel:  cancel,
	}

	rm.mutex.Lock()
	rm.runs[info.ID] = info
	rm.mutex.Unlock()

	return info.ID, ctx
}

// Finish forgets a run and releases its context
func (rm *RunManager) Finish(id string) {
	rm.mutex.Lock()
	info, exists := rm.runs[id]
	delete(rm.runs, id)
	rm.mutex.Unlock()

	if exists {
		info.cancel()
	}
}

// Cancel stops a run; it reports whether the run was in flight
func (rm *RunManager) Cancel(id string) bool {
	rm.mutex.RLock()
	info, exists := rm.runs[id]
	rm.mutex.RUnlock()

	if exists {
		info.cancel()
	}
	return exists
}

// CancelAll stops every in-flight run
func (rm *RunManager) CancelAll() {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	for _, info := range rm.runs {
		info.cancel()
	}
}

// Count returns the number of in-flight runs
func (rm *RunManager) Count() int {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	return len(rm.runs)
}
