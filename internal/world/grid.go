package world

import (
	"math"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// DefaultCellSize is the side of a grid cell in world units.
const DefaultCellSize = 16.0

// CellKey is a grid cell index on the ground (X/Z) plane.
type CellKey struct {
	X, Z int32
}

// Grid is a spatial hash of bodies on the ground plane. Cells are created
// on demand and dropped when they empty, so the world is unbounded.
type Grid struct {
	size  float64
	cells map[CellKey][]model.Handle
	where map[model.Handle]CellKey
}

// NewGrid creates a grid. A non-positive size selects DefaultCellSize.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		size:  cellSize,
		cells: make(map[CellKey][]model.Handle),
		where: make(map[model.Handle]CellKey),
	}
}

// CellOf returns the cell containing p. Y is ignored.
func (g *Grid) CellOf(p model.Vec3) CellKey {
	return CellKey{X: g.index(p.X), Z: g.index(p.Z)}
}

// index clamps to the int32 range so far-off or infinite queries stay defined.
func (g *Grid) index(v float64) int32 {
	f := math.Floor(v / g.size)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// Insert adds h at p. Re-inserting moves it.
func (g *Grid) Insert(h model.Handle, p model.Vec3) {
	if _, ok := g.where[h]; ok {
		g.Move(h, p)
		return
	}
	k := g.CellOf(p)
	g.cells[k] = append(g.cells[k], h)
	g.where[h] = k
}

// Move updates h's cell if p is in a different one.
func (g *Grid) Move(h model.Handle, p model.Vec3) {
	old, ok := g.where[h]
	if !ok {
		return
	}
	k := g.CellOf(p)
	if k == old {
		return
	}
	g.removeFrom(old, h)
	g.cells[k] = append(g.cells[k], h)
	g.where[h] = k
}

// Remove deletes h from the grid.
func (g *Grid) Remove(h model.Handle) {
	k, ok := g.where[h]
	if !ok {
		return
	}
	g.removeFrom(k, h)
	delete(g.where, h)
}

func (g *Grid) removeFrom(k CellKey, h model.Handle) {
	cell := g.cells[k]
	for i, v := range cell {
		if v == h {
			cell = append(cell[:i], cell[i+1:]...)
			break
		}
	}
	if len(cell) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = cell
}

// Len returns the number of indexed handles.
func (g *Grid) Len() int { return len(g.where) }

// CellCount returns the number of occupied cells.
func (g *Grid) CellCount() int { return len(g.cells) }

// Query calls fn for every handle in cells overlapping the square of the
// given radius around p. Candidates still need an exact distance check.
// Visit order is unspecified.
func (g *Grid) Query(p model.Vec3, radius float64, fn func(model.Handle)) {
	if radius < 0 {
		return
	}
	lo := g.CellOf(model.Vec3{X: p.X - radius, Z: p.Z - radius})
	hi := g.CellOf(model.Vec3{X: p.X + radius, Z: p.Z + radius})

	span := (float64(hi.X) - float64(lo.X) + 1) * (float64(hi.Z) - float64(lo.Z) + 1)
	if span > float64(len(g.cells)) {
		// Wide query: scanning occupied cells is cheaper.
		for k, cell := range g.cells {
			if k.X < lo.X || k.X > hi.X || k.Z < lo.Z || k.Z > hi.Z {
				continue
			}
			for _, h := range cell {
				fn(h)
			}
		}
		return
	}

	for x := int64(lo.X); x <= int64(hi.X); x++ {
		for z := int64(lo.Z); z <= int64(hi.Z); z++ {
			for _, h := range g.cells[CellKey{X: int32(x), Z: int32(z)}] {
				fn(h)
			}
		}
	}
}
