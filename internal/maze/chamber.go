package maze

import (
	"github.com/Ko-stant/maze-division-engine/internal/geometry"
)

// minInterior is the smallest interior extent, on both axes, that leaves a
// passable cell on each side of a new wall.
const minInterior = 3

// Chamber is a rectangle not yet subdivided. Min and Max are inclusive and lie
// on the walls that bound it; the cells strictly between them are its interior.
type Chamber struct {
	Min geometry.Point
	Max geometry.Point
}

// RootChamber spans the whole grid, bounded by the outer ring.
func RootChamber(g *Grid) Chamber {
	return Chamber{
		Min: geometry.Point{X: 0, Y: 0},
		Max: geometry.Point{X: g.Width() - 1, Y: g.Height() - 1},
	}
}

func (c Chamber) InteriorWidth() int  { return c.Max.X - c.Min.X - 1 }
func (c Chamber) InteriorHeight() int { return c.Max.Y - c.Min.Y - 1 }

// Splittable reports whether the interior is large enough on both axes.
func (c Chamber) Splittable() bool {
	return c.InteriorWidth() >= minInterior && c.InteriorHeight() >= minInterior
}

// Preferred returns the split orientation the chamber's shape asks for. A tall
// chamber is cut by a horizontal wall and a wide one by a vertical wall; a
// square chamber has no preference and ok is false.
func (c Chamber) Preferred() (o geometry.Orientation, ok bool) {
	w, h := c.InteriorWidth(), c.InteriorHeight()
	switch {
	case h > w:
		return geometry.Horizontal, true
	case w > h:
		return geometry.Vertical, true
	}
	return "", false
}

// Contains reports whether o lies within c, boundaries included.
func (c Chamber) Contains(o Chamber) bool {
	return o.Min.X >= c.Min.X && o.Min.Y >= c.Min.Y && o.Max.X <= c.Max.X && o.Max.Y <= c.Max.Y
}

// InteriorOverlaps reports whether the interiors of c and o share a cell.
// Chambers that only share a boundary line do not overlap.
func (c Chamber) InteriorOverlaps(o Chamber) bool {
	return c.Min.X+1 <= o.Max.X-1 && o.Min.X+1 <= c.Max.X-1 &&
		c.Min.Y+1 <= o.Max.Y-1 && o.Min.Y+1 <= c.Max.Y-1
}

// Wall is one dividing line. At is the fixed coordinate (y for a horizontal
// wall, x for a vertical one); From and To bound the span on the other axis and
// lie on the chamber boundary. Passage is the single span index left open.
type Wall struct {
	Orientation geometry.Orientation
	At          int
	From        int
	To          int
	Passage     int
}

func (w Wall) point(i int) geometry.Point {
	if w.Orientation == geometry.Horizontal {
		return geometry.Point{X: i, Y: w.At}
	}
	return geometry.Point{X: w.At, Y: i}
}

// PassagePoint is the grid cell left passable.
func (w Wall) PassagePoint() geometry.Point { return w.point(w.Passage) }

// Cells lists the span from endpoint to endpoint, passage included.
func (w Wall) Cells() []geometry.Point {
	out := make([]geometry.Point, 0, w.To-w.From+1)
	for i := w.From; i <= w.To; i++ {
		out = append(out, w.point(i))
	}
	return out
}
