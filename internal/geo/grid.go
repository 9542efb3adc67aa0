package geo

import "math"

// DefaultCellSizeDeg is the grid cell size. The 3×3 neighborhood probe is
// validated against this default; changing it requires re-checking that any
// rectangle overlapping a query point is reachable from the adjacent cells.
const DefaultCellSizeDeg = 1.0

// wrapSplitDelta keeps the eastern span of a wrap-split strictly below 180°
// so cell index ranges stay monotone in longitude.
const wrapSplitDelta = 1e-9

// CellKey addresses one cell of the equirectangular grid.
type CellKey struct {
	Row int
	Col int
}

// Grid is a hash-map spatial index over rectangle handles. Handles are
// indices into the owning dataset; the grid stores no geometry of its own
// beyond the per-handle rectangle used at insertion. The grid is rebuilt
// whenever its dataset is reloaded and is read-only during a run.
type Grid struct {
	cellDeg float64
	rows    int
	cols    int
	cells   map[CellKey][]int
}

// NewGrid creates an empty grid. A non-positive cell size falls back to the
// default 1°.
func NewGrid(cellDeg float64) *Grid {
	if cellDeg <= 0 {
		cellDeg = DefaultCellSizeDeg
	}
	return &Grid{
		cellDeg: cellDeg,
		rows:    int(math.Ceil(180 / cellDeg)),
		cols:    int(math.Ceil(360 / cellDeg)),
		cells:   make(map[CellKey][]int),
	}
}

// CellFor maps a point to its cell. Rows clamp to [0, rows-1] and columns to
// [0, cols-1] so polar and antimeridian edge values stay addressable.
func (g *Grid) CellFor(lat, lon float64) CellKey {
	row := int(math.Floor((lat + 90) / g.cellDeg))
	col := int(math.Floor((NormLon(lon) + 180) / g.cellDeg))
	return CellKey{Row: clamp(row, 0, g.rows-1), Col: clamp(col, 0, g.cols-1)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Insert indexes a rectangle handle into every cell its bounding box
// overlaps. A wrapped longitude interval is split into [a, 180−δ] and
// [−180, b] and inserted as two spans; the duplicate bucket entries this can
// produce are benign because queries short-circuit on the first hit.
func (g *Grid) Insert(handle int, r Rect) {
	a, b := NormLon(r.LonMin), NormLon(r.LonMax)
	if a <= b {
		g.insertSpan(handle, r.LatMin, r.LatMax, a, b)
		return
	}
	g.insertSpan(handle, r.LatMin, r.LatMax, a, 180-wrapSplitDelta)
	g.insertSpan(handle, r.LatMin, r.LatMax, -180, b)
}

func (g *Grid) insertSpan(handle int, latMin, latMax, lonMin, lonMax float64) {
	lo := g.CellFor(latMin, lonMin)
	hi := g.CellFor(latMax, lonMax)
	for row := lo.Row; row <= hi.Row; row++ {
		for col := lo.Col; col <= hi.Col; col++ {
			key := CellKey{Row: row, Col: col}
			g.cells[key] = append(g.cells[key], handle)
		}
	}
}

// Probe visits the handles bucketed in the 3×3 neighborhood around the
// point's cell, stopping early when visit returns true. The neighborhood
// covers floating-point drift at cell edges; rows clamp at the poles and
// columns wrap across the antimeridian. A handle indexed into several probed
// cells may be visited more than once; first-hit short-circuiting makes the
// duplicates harmless.
func (g *Grid) Probe(lat, lon float64, visit func(handle int) bool) bool {
	center := g.CellFor(lat, lon)
	for dr := -1; dr <= 1; dr++ {
		row := center.Row + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			col := (center.Col + dc + g.cols) % g.cols
			for _, h := range g.cells[CellKey{Row: row, Col: col}] {
				if visit(h) {
					return true
				}
			}
		}
	}
	return false
}

// CellCount returns the number of occupied cells, for diagnostics.
func (g *Grid) CellCount() int { return len(g.cells) }
