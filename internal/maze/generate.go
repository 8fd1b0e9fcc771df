package maze

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type options struct {
	rng       Rand
	policy    CompletionPolicy
	observer  func(Wall)
	stepDelay time.Duration
	logger    Logger
	runID     string
}

// Option configures a generation run.
type Option func(*options)

// WithRand injects the random source. Without it a time-seeded PCG is used.
func WithRand(r Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithSeed is WithRand(NewSeeded(seed)).
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rng = NewSeeded(seed) }
}

func WithCompletionPolicy(p CompletionPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithObserver registers a callback invoked after each wall is written.
func WithObserver(fn func(Wall)) Option {
	return func(o *options) { o.observer = fn }
}

// WithStepDelay suspends the run for d after each wall, or until the context
// is done.
func WithStepDelay(d time.Duration) Option {
	return func(o *options) { o.stepDelay = d }
}

func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = NewSeeded(uint64(time.Now().UnixNano()))
	}
	return o
}

// Generate builds a width x height maze allowing at most budget splits and
// returns the grid as written. onComplete is called exactly once.
//
// Size and budget are validated before any work. A cancelled ctx is not an
// error: the run resolves as complete with Result.Cancelled set.
func Generate(ctx context.Context, width, height, budget int, onComplete func(Result), opts ...Option) (*Grid, error) {
	if budget < 0 {
		return nil, errors.Wrapf(ErrInvalidBudget, "budget %d", budget)
	}
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	d, err := NewDivider(grid, budget, onComplete, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Run(ctx); err != nil {
		return grid, errors.WithMessagef(err, "generate %dx%d", width, height)
	}
	return grid, nil
}
