package main

import (
	"context"
	"sync/atomic"
)

// Broadcaster fans patches out to spectators
type Broadcaster interface {
	BroadcastJSON(ctx context.Context, v any) error
}

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...any)
}

// SequenceGenerator interface for sequence number generation
type SequenceGenerator interface {
	Next() uint64
}

type atomicSequence struct {
	n atomic.Uint64
}

func (s *atomicSequence) Next() uint64 {
	return s.n.Add(1)
}
