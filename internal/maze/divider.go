package maze

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Divider runs one recursive-division pass over a grid it exclusively owns.
// A Divider is single-use and not safe for concurrent calls.
type Divider struct {
	grid      *Grid
	rng       Rand
	budget    int
	policy    CompletionPolicy
	latch     *latch
	observer  func(Wall)
	stepDelay time.Duration
	logger    Logger
	runID     string

	splits    int
	fallbacks int
	cancelled bool
}

// NewDivider prepares a run over grid allowing at most budget splits.
func NewDivider(grid *Grid, budget int, onComplete func(Result), opts ...Option) (*Divider, error) {
	if budget < 0 {
		return nil, errors.Wrapf(ErrInvalidBudget, "budget %d", budget)
	}
	o := buildOptions(opts)
	return &Divider{
		grid:      grid,
		rng:       o.rng,
		budget:    budget,
		policy:    o.policy,
		latch:     newLatch(onComplete),
		observer:  o.observer,
		stepDelay: o.stepDelay,
		logger:    o.logger,
		runID:     o.runID,
	}, nil
}

// Run divides the whole grid and is the only entry point into a Divider.
// Completion fires exactly once whatever the outcome, including when an
// invariant error aborts the run.
func (d *Divider) Run(ctx context.Context) error {
	err := d.divide(ctx, RootChamber(d.grid))
	d.latch.fire(d.result())
	return err
}

// divide splits c with one wall and recurses into both halves, first child
// fully before the second.
func (d *Divider) divide(ctx context.Context, c Chamber) error {
	if d.terminal(ctx, c) {
		if d.policy == CompleteOnFirstTerminal {
			d.latch.fire(d.result())
		}
		return nil
	}

	wall, first, second, fellBack := split(c, d.rng)
	if fellBack {
		d.fallbacks++
		if d.logger != nil {
			d.logger.Printf("maze %s: no lattice position in chamber %v-%v, forced %s wall at %d", d.runID, c.Min, c.Max, wall.Orientation, wall.At)
		}
	}
	if err := checkChildren(c, first, second); err != nil {
		return err
	}
	if err := d.draw(wall); err != nil {
		return err
	}
	d.budget--
	d.splits++
	if d.observer != nil {
		d.observer(wall)
	}
	d.pause(ctx)

	if err := d.divide(ctx, first); err != nil {
		return err
	}
	return d.divide(ctx, second)
}

func (d *Divider) terminal(ctx context.Context, c Chamber) bool {
	if ctx.Err() != nil {
		d.cancelled = true
		return true
	}
	return d.budget <= 0 || !c.Splittable()
}

func (d *Divider) pause(ctx context.Context) {
	if d.stepDelay <= 0 {
		return
	}
	t := time.NewTimer(d.stepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func checkChildren(parent, first, second Chamber) error {
	if !parent.Contains(first) || !parent.Contains(second) {
		return errors.Wrapf(ErrInvariant, "children %v-%v / %v-%v escape parent %v-%v",
			first.Min, first.Max, second.Min, second.Max, parent.Min, parent.Max)
	}
	if first.InteriorOverlaps(second) {
		return errors.Wrapf(ErrInvariant, "children %v-%v and %v-%v overlap",
			first.Min, first.Max, second.Min, second.Max)
	}
	return nil
}

// draw blocks the span strictly between the wall's endpoints, except the
// passage. Endpoints must already be blocked; every written cell must be an
// open interior cell.
func (d *Divider) draw(w Wall) error {
	cells := w.Cells()
	for _, end := range []int{0, len(cells) - 1} {
		p := cells[end]
		blocked, err := d.grid.IsBlocked(p.X, p.Y)
		if err != nil {
			return err
		}
		if !blocked {
			return errors.Wrapf(ErrInvariant, "wall endpoint (%d,%d) is open", p.X, p.Y)
		}
	}
	for _, p := range cells[1 : len(cells)-1] {
		if d.grid.IsBorder(p.X, p.Y) {
			return errors.Wrapf(ErrInvariant, "wall cell (%d,%d) on border", p.X, p.Y)
		}
		blocked, err := d.grid.IsBlocked(p.X, p.Y)
		if err != nil {
			return err
		}
		if blocked {
			return errors.Wrapf(ErrInvariant, "wall cell (%d,%d) already blocked", p.X, p.Y)
		}
		if p == w.PassagePoint() {
			continue
		}
		if err := d.grid.SetBlocked(p.X, p.Y, true); err != nil {
			return err
		}
	}
	return nil
}

func (d *Divider) result() Result {
	return Result{
		RunID:      d.runID,
		Splits:     d.splits,
		BudgetLeft: d.budget,
		Cancelled:  d.cancelled,
		Fallbacks:  d.fallbacks,
	}
}
