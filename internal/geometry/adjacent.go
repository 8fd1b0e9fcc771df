package geometry

// RegionsAcrossPassage closes the passage cell of a wall and reports the
// regions of the two cells it used to join. A wall with orientation Vertical
// joins its left and right neighbours, a Horizontal wall joins the cells above
// and below. The input slice is not modified.
func RegionsAcrossPassage(width, height int, blocked []bool, orientation Orientation, passage Point) (int, int) {
	closed := make([]bool, len(blocked))
	copy(closed, blocked)
	if idx := passage.Y*width + passage.X; idx >= 0 && idx < len(closed) {
		closed[idx] = true
	}
	rm := BuildRegionMap(width, height, closed)

	if orientation == Vertical {
		return rm.RegionOf(width, Point{X: passage.X - 1, Y: passage.Y}), rm.RegionOf(width, Point{X: passage.X + 1, Y: passage.Y})
	}
	return rm.RegionOf(width, Point{X: passage.X, Y: passage.Y - 1}), rm.RegionOf(width, Point{X: passage.X, Y: passage.Y + 1})
}
