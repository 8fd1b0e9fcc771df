package maze

import "github.com/pkg/errors"

// MinSize is the smallest width or height that leaves an interior cell.
const MinSize = 3

// Grid owns the blocked/passable state of every cell, row-major.
// It is not safe for concurrent writers.
type Grid struct {
	width  int
	height int
	cells  []bool
}

// NewGrid allocates a width x height grid with a blocked outer ring and a
// passable interior.
func NewGrid(width, height int) (*Grid, error) {
	if width < MinSize || height < MinSize {
		return nil, errors.Wrapf(ErrInvalidSize, "%dx%d, need at least %dx%d", width, height, MinSize, MinSize)
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]bool, width*height),
	}
	for y := range height {
		for x := range width {
			if g.IsBorder(x, y) {
				g.cells[y*width+x] = true
			}
		}
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// IsBorder reports whether (x, y) lies on the outer ring.
func (g *Grid) IsBorder(x, y int) bool {
	return x == 0 || y == 0 || x == g.width-1 || y == g.height-1
}

func (g *Grid) SetBlocked(x, y int, blocked bool) error {
	if !g.inBounds(x, y) {
		return errors.Wrapf(ErrOutOfBounds, "set (%d,%d) on %dx%d grid", x, y, g.width, g.height)
	}
	g.cells[y*g.width+x] = blocked
	return nil
}

func (g *Grid) IsBlocked(x, y int) (bool, error) {
	if !g.inBounds(x, y) {
		return false, errors.Wrapf(ErrOutOfBounds, "read (%d,%d) on %dx%d grid", x, y, g.width, g.height)
	}
	return g.cells[y*g.width+x], nil
}

// Cells returns a row-major copy of the blocked flags.
func (g *Grid) Cells() []bool {
	out := make([]bool, len(g.cells))
	copy(out, g.cells)
	return out
}
