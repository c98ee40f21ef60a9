// Package systems holds the per-cell rules: metabolism and motion, boundary
// and overlap resolution, division, predation, merging, plus the spatial
// broad phase and the adhesion relation.
package systems

import "math"

// gridEntry is one handle stored in a bucket with its position.
type gridEntry struct {
	h    int
	x, y float64
}

// SpatialGrid buckets integer handles by position for radius queries.
// Handles are opaque to the grid; callers typically use slice indices.
// Positions outside the covered rectangle are clamped into the edge buckets.
type SpatialGrid struct {
	cellSize   float64
	minX, minY float64
	cols, rows int
	cells      [][]gridEntry
}

// NewSpatialGrid creates a grid covering [minX, minX+width] x [minY, minY+height].
func NewSpatialGrid(minX, minY, width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]gridEntry, cols*rows)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		minX:     minX,
		minY:     minY,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear empties every bucket, keeping capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a handle at the given position.
func (g *SpatialGrid) Insert(h int, x, y float64) {
	col, row := g.col(x), g.row(y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], gridEntry{h: h, x: x, y: y})
}

// QueryRadiusInto appends to dst every handle whose stored position lies
// within radius of (x, y), and returns the extended slice.
// Reuse dst across calls to avoid allocations. Results are in bucket order.
func (g *SpatialGrid) QueryRadiusInto(dst []int, x, y, radius float64) []int {
	c0, c1 := g.col(x-radius), g.col(x+radius)
	r0, r1 := g.row(y-radius), g.row(y+radius)
	radiusSq := radius * radius

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, e := range g.cells[row*g.cols+col] {
				dx, dy := e.x-x, e.y-y
				if dx*dx+dy*dy <= radiusSq {
					dst = append(dst, e.h)
				}
			}
		}
	}
	return dst
}

func (g *SpatialGrid) col(x float64) int {
	return clampIndex((x-g.minX)/g.cellSize, g.cols)
}

func (g *SpatialGrid) row(y float64) int {
	return clampIndex((y-g.minY)/g.cellSize, g.rows)
}

func clampIndex(f float64, n int) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}
