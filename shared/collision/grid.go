package collision

import (
	"github.com/automoto/tmxworld/shared/tmx"
)

// Grid is the dense [level][row][col] flag array. It is read-only once
// built; a tile change produces a new Grid.
type Grid struct {
	Levels int
	Rows   int
	Cols   int

	cells []Flags
}

func NewGrid(levels, rows, cols int) *Grid {
	return &Grid{
		Levels: levels,
		Rows:   rows,
		Cols:   cols,
		cells:  make([]Flags, levels*rows*cols),
	}
}

func (g *Grid) Shape() (levels, rows, cols int) {
	return g.Levels, g.Rows, g.Cols
}

func (g *Grid) InBounds(level, row, col int) bool {
	return level >= 0 && level < g.Levels && row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Flags returns the flags of a cell. Cells outside the grid are Solid.
func (g *Grid) Flags(level, row, col int) Flags {
	if !g.InBounds(level, row, col) {
		return Solid
	}
	return g.cells[(level*g.Rows+row)*g.Cols+col]
}

func (g *Grid) IsSolid(level, row, col int) bool {
	return g.Flags(level, row, col)&Solid != 0
}

// Set overwrites a cell. It is meant for builders and tests; shared grids
// must not be written.
func (g *Grid) Set(level, row, col int, f Flags) error {
	if err := tmx.CheckIndex("set_flags", []int{level, row, col}, []int{g.Levels, g.Rows, g.Cols}); err != nil {
		return err
	}
	g.cells[(level*g.Rows+row)*g.Cols+col] = f
	return nil
}

// Level returns a copy of one level, row-major.
func (g *Grid) Level(level int) []Flags {
	if level < 0 || level >= g.Levels {
		return nil
	}
	n := g.Rows * g.Cols
	return append([]Flags(nil), g.cells[level*n:(level+1)*n]...)
}

// Stats summarizes a grid.
type Stats struct {
	Total        int
	Solid        int
	Flagged      int
	Empty        int
	SolidPercent float64
}

func (g *Grid) Stats() Stats {
	s := Stats{Total: len(g.cells)}
	for _, f := range g.cells {
		if f != 0 {
			s.Flagged++
		}
		if f&Solid != 0 {
			s.Solid++
		}
	}
	s.Empty = s.Total - s.Flagged
	if s.Total > 0 {
		s.SolidPercent = float64(s.Solid) / float64(s.Total) * 100
	}
	return s
}
