package main

import "golang.org/x/exp/slices"

// PlatformCellSize is roughly one platform width
const PlatformCellSize = 100.0

// PlatformIndex is a fixed-size uniform grid over the static platform list.
// Cells hold platform indices; a platform spanning several cells is stored
// in each of them.
type PlatformIndex struct {
	platforms []Platform
	cols      int
	rows      int
	cells     [][]int
}

// NewPlatformIndex buckets every platform into the cells its rectangle covers
func NewPlatformIndex(w World, platforms []Platform) *PlatformIndex {
	cols := int(w.Width/PlatformCellSize) + 1
	rows := int(w.Height/PlatformCellSize) + 1
	idx := &PlatformIndex{
		platforms: platforms,
		cols:      cols,
		rows:      rows,
		cells:     make([][]int, cols*rows),
	}
	for i, p := range platforms {
		minCX, minCY, maxCX, maxCY := idx.span(p.X, p.Y, p.X+p.W, p.Y+p.H)
		for cy := minCY; cy <= maxCY; cy++ {
			for cx := minCX; cx <= maxCX; cx++ {
				c := cy*cols + cx
				idx.cells[c] = append(idx.cells[c], i)
			}
		}
	}
	return idx
}

func (g *PlatformIndex) span(x0, y0, x1, y1 float64) (minCX, minCY, maxCX, maxCY int) {
	clampCol := func(v int) int {
		if v < 0 {
			return 0
		}
		if v >= g.cols {
			return g.cols - 1
		}
		return v
	}
	clampRow := func(v int) int {
		if v < 0 {
			return 0
		}
		if v >= g.rows {
			return g.rows - 1
		}
		return v
	}
	return clampCol(int(x0 / PlatformCellSize)), clampRow(int(y0 / PlatformCellSize)),
		clampCol(int(x1 / PlatformCellSize)), clampRow(int(y1 / PlatformCellSize))
}

// QueryBuf appends the indices of platforms whose cells intersect the box
// to buf. Results are sorted ascending and deduplicated so callers keep
// list-order tie-breaking.
func (g *PlatformIndex) QueryBuf(r Rect, buf []int) []int {
	buf = buf[:0]
	if g == nil || len(g.cells) == 0 {
		return buf
	}
	minCX, minCY, maxCX, maxCY := g.span(r.X, r.Y, r.X+r.W, r.Y+r.H)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	slices.Sort(buf)
	return slices.Compact(buf)
}

// Platform returns the platform with list index i
func (g *PlatformIndex) Platform(i int) Platform {
	return g.platforms[i]
}

// Platforms returns the indexed list
func (g *PlatformIndex) Platforms() []Platform {
	return g.platforms
}
