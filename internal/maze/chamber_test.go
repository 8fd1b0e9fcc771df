package maze

import (
	"testing"

	"github.com/Ko-stant/maze-division-engine/internal/geometry"
)

func chamber(minX, minY, maxX, maxY int) Chamber {
	return Chamber{Min: geometry.Point{X: minX, Y: minY}, Max: geometry.Point{X: maxX, Y: maxY}}
}

func TestChamber_Splittable(t *testing.T) {
	tests := []struct {
		c    Chamber
		want bool
	}{
		{chamber(0, 0, 4, 4), true},
		{chamber(0, 0, 3, 4), false},
		{chamber(0, 0, 4, 3), false},
		{chamber(2, 2, 10, 6), true},
		{chamber(0, 0, 2, 20), false},
	}
	for _, tt := range tests {
		if got := tt.c.Splittable(); got != tt.want {
			t.Errorf("%v-%v Splittable() = %v, want %v", tt.c.Min, tt.c.Max, got, tt.want)
		}
	}
}

func TestChamber_Preferred(t *testing.T) {
	if o, ok := chamber(0, 0, 4, 10).Preferred(); !ok || o != geometry.Horizontal {
		t.Fatalf("expected tall chamber to prefer a horizontal wall, got %q %v", o, ok)
	}
	if o, ok := chamber(0, 0, 10, 4).Preferred(); !ok || o != geometry.Vertical {
		t.Fatalf("expected wide chamber to prefer a vertical wall, got %q %v", o, ok)
	}
	if _, ok := chamber(0, 0, 6, 6).Preferred(); ok {
		t.Fatalf("expected square chamber to have no preference")
	}
}

func TestChamber_InteriorOverlaps(t *testing.T) {
	a := chamber(0, 0, 4, 8)
	b := chamber(4, 0, 8, 8)
	if a.InteriorOverlaps(b) || b.InteriorOverlaps(a) {
		t.Fatalf("chambers sharing a wall must not overlap")
	}
	c := chamber(2, 2, 6, 6)
	if !a.InteriorOverlaps(c) {
		t.Fatalf("expected overlapping interiors")
	}
	if !a.Contains(chamber(0, 0, 4, 2)) || a.Contains(c) {
		t.Fatalf("unexpected Contains result")
	}
}

func TestWall_CellsAndPassage(t *testing.T) {
	w := Wall{Orientation: geometry.Vertical, At: 2, From: 0, To: 4, Passage: 3}
	cells := w.Cells()
	if len(cells) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(cells))
	}
	if cells[0] != (geometry.Point{X: 2, Y: 0}) || cells[4] != (geometry.Point{X: 2, Y: 4}) {
		t.Fatalf("unexpected endpoints %v %v", cells[0], cells[4])
	}
	if w.PassagePoint() != (geometry.Point{X: 2, Y: 3}) {
		t.Fatalf("unexpected passage %v", w.PassagePoint())
	}
}
