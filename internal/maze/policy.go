package maze

import (
	"math/rand/v2"

	"github.com/Ko-stant/maze-division-engine/internal/geometry"
)

// Rand is the random source a run draws every choice from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewSeeded returns a PCG-backed source; equal seeds give equal mazes.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// chooseOrientation follows the chamber's shape and breaks ties on square
// chambers with a fair coin.
func chooseOrientation(c Chamber, r Rand) geometry.Orientation {
	if o, ok := c.Preferred(); ok {
		return o
	}
	if r.IntN(2) == 0 {
		return geometry.Horizontal
	}
	return geometry.Vertical
}

// latticePick draws uniformly from lo, lo+2, ... up to hi. When the range is
// empty it returns lo clamped to limit and ok is false.
func latticePick(r Rand, lo, hi, limit int) (v int, ok bool) {
	if lo > hi {
		return min(lo, limit), false
	}
	n := (hi-lo)/2 + 1
	return lo + 2*r.IntN(n), true
}

// placeWall picks the wall line and its passage inside c.
//
// Walls sit an even distance from the chamber origin and leave at least one
// interior cell on each side; passages sit an odd distance from the origin.
// Chamber origins are always even, so a wall endpoint can never land on an
// earlier passage and two parallel walls are never adjacent.
func placeWall(c Chamber, o geometry.Orientation, r Rand) (w Wall, fellBack bool) {
	lineMin, lineMax := c.Min.Y, c.Max.Y
	spanMin, spanMax := c.Min.X, c.Max.X
	if o == geometry.Vertical {
		lineMin, lineMax = c.Min.X, c.Max.X
		spanMin, spanMax = c.Min.Y, c.Max.Y
	}

	at, okLine := latticePick(r, lineMin+2, lineMax-2, lineMax-1)
	passage, okPassage := latticePick(r, spanMin+1, spanMax-1, spanMax-1)

	return Wall{
		Orientation: o,
		At:          at,
		From:        spanMin,
		To:          spanMax,
		Passage:     passage,
	}, !okLine || !okPassage
}

// split is the pure half of a division step: it decides the wall and returns
// the two chambers on either side of it without touching the grid.
func split(c Chamber, r Rand) (w Wall, first, second Chamber, fellBack bool) {
	o := chooseOrientation(c, r)
	w, fellBack = placeWall(c, o, r)
	first, second = c, c
	if o == geometry.Horizontal {
		first.Max.Y = w.At
		second.Min.Y = w.At
	} else {
		first.Max.X = w.At
		second.Min.X = w.At
	}
	return w, first, second, fellBack
}
