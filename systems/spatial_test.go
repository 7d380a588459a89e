package systems

import (
	"math"
	"math/rand"
	"testing"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

func TestSpatialHashBuildPlacesEveryIndexOnce(t *testing.T) {
	for _, cellSize := range []float32{8, 10} {
		h := NewSpatialHash(100, 80, cellSize)
		rng := rand.New(rand.NewSource(1))

		const n = 500
		posX := make([]float32, n)
		posY := make([]float32, n)
		for i := range posX {
			// Some positions fall outside the world on purpose
			posX[i] = rng.Float32()*140 - 20
			posY[i] = rng.Float32()*120 - 20
		}
		posX[7] = float32(nan())
		posY[9] = float32(inf())

		h.Build(posX, posY, n)

		seen := make([]int, n)
		total := 0
		for cy := 0; cy < h.Rows(); cy++ {
			for cx := 0; cx < h.Cols(); cx++ {
				start, count := h.Cell(cx, cy)
				prev := -1
				for k := start; k < start+count; k++ {
					i := int(h.SortedIndices()[k])
					seen[i]++
					total++

					if gx, gy := h.CellOf(posX[i], posY[i]); gx != cx || gy != cy {
						t.Errorf("cell %v: particle %d in (%d,%d), maps to (%d,%d)", cellSize, i, cx, cy, gx, gy)
					}
					if i <= prev {
						t.Errorf("cell %v: indices out of order in (%d,%d)", cellSize, cx, cy)
					}
					prev = i

					if !sameFloat(h.SortedX[k], posX[i]) || !sameFloat(h.SortedY[k], posY[i]) {
						t.Errorf("snapshot mismatch for particle %d", i)
					}
				}
			}
		}

		if total != n {
			t.Errorf("cell %v: %d entries, want %d", cellSize, total, n)
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("cell %v: particle %d seen %d times", cellSize, i, c)
			}
		}
	}
}

func sameFloat(a, b float32) bool {
	if a != a && b != b {
		return true
	}
	return a == b
}

func TestSpatialHashCellOf(t *testing.T) {
	h := NewSpatialHash(100, 80, 8) // 13 x 10 cells
	if !h.UsesShift() {
		t.Fatal("cell size 8 should use the shift path")
	}
	if h.Cols() != 13 || h.Rows() != 10 {
		t.Fatalf("grid = %dx%d, want 13x10", h.Cols(), h.Rows())
	}

	tests := []struct {
		name   string
		x, y   float32
		cx, cy int
	}{
		{"origin", 0, 0, 0, 0},
		{"just below boundary", 7.999, 7.999, 0, 0},
		{"on boundary", 8, 16, 1, 2},
		{"interior", 50, 33, 6, 4},
		{"negative clamps low", -3, -100, 0, 0},
		{"far edge", 100, 80, 12, 9},
		{"past extent clamps high", 1e9, 500, 12, 9},
		{"nan", float32(nan()), 10, 0, 1},
		{"inf", float32(inf()), float32(-inf()), 12, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cx, cy := h.CellOf(tc.x, tc.y)
			if cx != tc.cx || cy != tc.cy {
				t.Errorf("CellOf(%v, %v) = (%d,%d), want (%d,%d)", tc.x, tc.y, cx, cy, tc.cx, tc.cy)
			}
		})
	}
}

func TestSpatialHashDivisionFallback(t *testing.T) {
	h := NewSpatialHash(100, 100, 10)
	if h.UsesShift() {
		t.Fatal("cell size 10 should not use the shift path")
	}
	if h.Cols() != 10 || h.Rows() != 10 {
		t.Fatalf("grid = %dx%d, want 10x10", h.Cols(), h.Rows())
	}
	if cx, cy := h.CellOf(25, 9.99); cx != 2 || cy != 0 {
		t.Errorf("CellOf(25, 9.99) = (%d,%d), want (2,0)", cx, cy)
	}
	if cx, cy := h.CellOf(100, 250); cx != 9 || cy != 9 {
		t.Errorf("CellOf(100, 250) = (%d,%d), want (9,9)", cx, cy)
	}
}

func TestSpatialHashCellOutOfRange(t *testing.T) {
	h := NewSpatialHash(64, 64, 8)
	h.Build([]float32{1, 2}, []float32{1, 2}, 2)

	for _, c := range [][2]int{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}} {
		if start, count := h.Cell(c[0], c[1]); start != 0 || count != 0 {
			t.Errorf("Cell(%d,%d) = (%d,%d), want (0,0)", c[0], c[1], start, count)
		}
	}
	if _, count := h.Cell(0, 0); count != 2 {
		t.Errorf("Cell(0,0) count = %d, want 2", count)
	}
}

func TestSpatialHashRebuild(t *testing.T) {
	h := NewSpatialHash(64, 64, 8)
	h.Build([]float32{1, 60}, []float32{1, 60}, 2)
	h.Build([]float32{60}, []float32{1}, 1)

	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	if _, count := h.Cell(0, 0); count != 0 {
		t.Errorf("stale entry in cell (0,0): count %d", count)
	}
	if _, count := h.Cell(7, 0); count != 1 {
		t.Errorf("cell (7,0) count = %d, want 1", count)
	}
}

func TestSpatialHashResize(t *testing.T) {
	h := NewSpatialHash(64, 64, 8)
	h.Resize(20, 9)
	if h.Cols() != 3 || h.Rows() != 2 {
		t.Errorf("after Resize grid = %dx%d, want 3x2", h.Cols(), h.Rows())
	}
	h.Build([]float32{19}, []float32{8.5}, 1)
	if _, count := h.Cell(2, 1); count != 1 {
		t.Errorf("cell (2,1) count = %d, want 1", count)
	}
}
