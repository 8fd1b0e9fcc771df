package maze

import "github.com/pkg/errors"

var (
	// ErrInvalidSize is returned before any work when the grid has no room
	// for an interior chamber.
	ErrInvalidSize = errors.New("invalid grid size")
	// ErrInvalidBudget is returned for a negative recursion budget.
	ErrInvalidBudget = errors.New("invalid recursion budget")
	// ErrOutOfBounds reports a coordinate outside the grid. Seen from the
	// divider it means chamber bounds were computed wrong.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrInvariant reports a broken division invariant: overlapping child
	// chambers, a write onto the border or onto an existing wall.
	ErrInvariant = errors.New("division invariant violated")
)
