package geometry

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Point is a cell coordinate on a row-major grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type RegionMap struct {
	TileRegionIDs []int
	RegionsCount  int
}

// RegionOf returns the region id of (x, y), or -1 for blocked or out-of-range cells.
func (rm RegionMap) RegionOf(width int, p Point) int {
	if p.X < 0 || p.X >= width || p.Y < 0 {
		return -1
	}
	idx := p.Y*width + p.X
	if idx >= len(rm.TileRegionIDs) {
		return -1
	}
	return rm.TileRegionIDs[idx]
}
