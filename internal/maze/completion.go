package maze

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// CompletionPolicy decides when a run's completion callback fires.
type CompletionPolicy int

const (
	// CompleteOnUnwind fires after the whole recursion tree has returned, so
	// the grid is final when the callback runs.
	CompleteOnUnwind CompletionPolicy = iota
	// CompleteOnFirstTerminal fires at the first terminal division anywhere in
	// the tree. Walls drawn after that point are not reflected in the Result.
	CompleteOnFirstTerminal
)

func (p CompletionPolicy) String() string {
	switch p {
	case CompleteOnUnwind:
		return "unwind"
	case CompleteOnFirstTerminal:
		return "first_terminal"
	}
	return fmt.Sprintf("CompletionPolicy(%d)", int(p))
}

// ParseCompletionPolicy accepts the String forms; empty means CompleteOnUnwind.
func ParseCompletionPolicy(s string) (CompletionPolicy, error) {
	switch s {
	case "", "unwind":
		return CompleteOnUnwind, nil
	case "first_terminal":
		return CompleteOnFirstTerminal, nil
	}
	return 0, errors.Errorf("unknown completion policy %q", s)
}

// Result is what the completion callback receives.
type Result struct {
	RunID      string
	Splits     int
	BudgetLeft int
	Cancelled  bool
	Fallbacks  int
}

// latch delivers one Result to the callback, once.
type latch struct {
	once sync.Once
	fn   func(Result)
}

func newLatch(fn func(Result)) *latch {
	return &latch{fn: fn}
}

func (l *latch) fire(r Result) {
	l.once.Do(func() {
		if l.fn != nil {
			l.fn(r)
		}
	})
}
