package systems

import (
	"math"
)

// SpatialHash is a uniform grid over the world, rebuilt from scratch every frame
// by a two-pass counting sort. It indexes particles but owns none of their data.
//
// After Build, the particles of cell c are
// sortedIndices[cellStart[c] : cellStart[c]+cellCount[c]], in ascending index
// order. SortedX/SortedY hold the positions captured at build time in the same
// order; workers read neighbour positions from this snapshot only.
type SpatialHash struct {
	cellSize float32
	invCell  float32 // 1 / cellSize, used when shift < 0
	shift    int     // log2(cellSize) when it is a power of two, else -1
	cols     int
	rows     int
	width    float32
	height   float32

	cellStart []uint32 // prefix sums, len cols*rows+1
	cellCount []uint32 // per-cell counts (write cursors during Build)
	cellOf    []int32  // cell of each particle, cached between the two passes

	sortedIndices []uint32
	SortedX       []float32
	SortedY       []float32
	count         int
}

// NewSpatialHash creates a hash covering worldW x worldH with square cells.
// Power-of-two cell sizes derive cell coordinates by shifting; any other size
// falls back to division.
func NewSpatialHash(worldW, worldH, cellSize float32) *SpatialHash {
	h := &SpatialHash{
		cellSize: cellSize,
		invCell:  1 / cellSize,
		shift:    powerOfTwoShift(cellSize),
	}
	h.Resize(worldW, worldH)
	return h
}

// powerOfTwoShift returns log2(size) for integral powers of two, otherwise -1.
func powerOfTwoShift(size float32) int {
	if size < 1 || size != float32(math.Trunc(float64(size))) {
		return -1
	}
	n := int(size)
	if n&(n-1) != 0 {
		return -1
	}
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}

// Resize changes the covered world extent. The next Build repopulates the grid.
func (h *SpatialHash) Resize(worldW, worldH float32) {
	h.width = worldW
	h.height = worldH
	h.cols = max(1, int(math.Ceil(float64(worldW/h.cellSize))))
	h.rows = max(1, int(math.Ceil(float64(worldH/h.cellSize))))

	cells := h.cols * h.rows
	h.cellStart = make([]uint32, cells+1)
	h.cellCount = make([]uint32, cells)
	h.count = 0
}

// UsesShift reports whether cell coordinates are derived by bit shifting.
func (h *SpatialHash) UsesShift() bool { return h.shift >= 0 }

func (h *SpatialHash) Cols() int               { return h.cols }
func (h *SpatialHash) Rows() int               { return h.rows }
func (h *SpatialHash) CellSize() float32       { return h.cellSize }
func (h *SpatialHash) Len() int                { return h.count }
func (h *SpatialHash) SortedIndices() []uint32 { return h.sortedIndices[:h.count] }

// coord maps one axis coordinate to a clamped cell coordinate.
// Non-finite and negative values land in cell 0, values past the extent in n-1.
func (h *SpatialHash) coord(v float32, n int) int {
	if !(v >= 0) {
		return 0
	}
	var c int
	if h.shift >= 0 {
		if v >= float32(n<<h.shift) {
			return n - 1
		}
		c = int(v) >> h.shift
	} else {
		f := v * h.invCell
		if f >= float32(n) {
			return n - 1
		}
		c = int(f)
	}
	if c >= n {
		c = n - 1
	}
	return c
}

// CellOf returns the clamped cell coordinates of a world position.
func (h *SpatialHash) CellOf(x, y float32) (cx, cy int) {
	return h.coord(x, h.cols), h.coord(y, h.rows)
}

// cellIndex returns the flat cell index for a world position.
func (h *SpatialHash) cellIndex(x, y float32) int {
	cx, cy := h.CellOf(x, y)
	return cy*h.cols + cx
}

// Build indexes the first count particles by cell.
func (h *SpatialHash) Build(posX, posY []float32, count int) {
	if cap(h.sortedIndices) < count {
		h.sortedIndices = make([]uint32, count)
		h.SortedX = make([]float32, count)
		h.SortedY = make([]float32, count)
		h.cellOf = make([]int32, count)
	}
	h.sortedIndices = h.sortedIndices[:count]
	h.SortedX = h.SortedX[:count]
	h.SortedY = h.SortedY[:count]
	h.cellOf = h.cellOf[:count]
	h.count = count

	// Pass 1: count particles per cell
	clear(h.cellCount)
	for i := 0; i < count; i++ {
		c := h.cellIndex(posX[i], posY[i])
		h.cellOf[i] = int32(c)
		h.cellCount[c]++
	}

	// Prefix sums; counters become write cursors
	var start uint32
	for c, n := range h.cellCount {
		h.cellStart[c] = start
		start += n
		h.cellCount[c] = 0
	}
	h.cellStart[len(h.cellCount)] = start

	// Pass 2: scatter indices and position snapshot
	for i := 0; i < count; i++ {
		c := h.cellOf[i]
		dst := h.cellStart[c] + h.cellCount[c]
		h.cellCount[c]++
		h.sortedIndices[dst] = uint32(i)
		h.SortedX[dst] = posX[i]
		h.SortedY[dst] = posY[i]
	}
}

// Cell returns the slot range of cell (cx, cy) in SortedIndices.
// Out-of-range coordinates yield an empty range.
func (h *SpatialHash) Cell(cx, cy int) (start, count uint32) {
	if cx < 0 || cx >= h.cols || cy < 0 || cy >= h.rows {
		return 0, 0
	}
	c := cy*h.cols + cx
	return h.cellStart[c], h.cellCount[c]
}
