package leveldata

import (
	"fmt"

	"github.com/automoto/tmxworld/shared/tmx"
)

// Grid is the dense [level][row][col][sublayer] array of raw GIDs. Each level
// is stored as its own slab so levels can hold different sub-layer counts.
// Cells of one (level, row, col) are contiguous.
type Grid struct {
	Levels      int
	Rows        int
	Cols        int
	LevelOffset int

	Layers []LayerInfo

	subLayers []int
	slabStart []int
	cells     []tmx.GID
}

// NewGrid allocates an empty grid. subLayers holds the sub-layer count of
// each level index and must have levels entries.
func NewGrid(levels, rows, cols, levelOffset int, subLayers []int) (*Grid, error) {
	if levels < 1 || rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid grid shape %dx%dx%d", levels, rows, cols)
	}
	if len(subLayers) != levels {
		return nil, fmt.Errorf("%d sub-layer counts for %d levels", len(subLayers), levels)
	}

	g := &Grid{
		Levels:      levels,
		Rows:        rows,
		Cols:        cols,
		LevelOffset: levelOffset,
		subLayers:   append([]int(nil), subLayers...),
		slabStart:   make([]int, levels),
	}
	total := 0
	for l, n := range subLayers {
		if n < 0 {
			return nil, fmt.Errorf("level %d: negative sub-layer count %d", l, n)
		}
		g.slabStart[l] = total
		total += rows * cols * n
	}
	g.cells = make([]tmx.GID, total)
	return g, nil
}

// Shape returns the first three dimensions.
func (g *Grid) Shape() (levels, rows, cols int) {
	return g.Levels, g.Rows, g.Cols
}

// SubLayers returns the sub-layer count at a level index, or 0 outside the
// grid.
func (g *Grid) SubLayers(level int) int {
	if level < 0 || level >= g.Levels {
		return 0
	}
	return g.subLayers[level]
}

func (g *Grid) index(op string, level, row, col, sub int) (int, error) {
	if level < 0 || level >= g.Levels {
		return 0, &tmx.IndexError{Op: op, Index: []int{level, row, col, sub}, Bounds: []int{g.Levels, g.Rows, g.Cols, 0}}
	}
	n := g.subLayers[level]
	if err := tmx.CheckIndex(op, []int{level, row, col, sub}, []int{g.Levels, g.Rows, g.Cols, n}); err != nil {
		return 0, err
	}
	return g.slabStart[level] + (row*g.Cols+col)*n + sub, nil
}

// Tile returns the raw GID at a level index, flip flags included.
func (g *Grid) Tile(level, row, col, sub int) (tmx.GID, error) {
	i, err := g.index("get_tile", level, row, col, sub)
	if err != nil {
		return 0, err
	}
	return g.cells[i], nil
}

// SetTile writes a raw GID at a level index. Out-of-range coordinates are an
// IndexError; nothing is clamped.
func (g *Grid) SetTile(level, row, col, sub int, gid tmx.GID) error {
	i, err := g.index("set_tile", level, row, col, sub)
	if err != nil {
		return err
	}
	g.cells[i] = gid
	return nil
}

// Stack returns the sub-layer cells of one position, bottom first. The slice
// aliases the grid and is nil outside it.
func (g *Grid) Stack(level, row, col int) []tmx.GID {
	if level < 0 || level >= g.Levels || row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return nil
	}
	n := g.subLayers[level]
	start := g.slabStart[level] + (row*g.Cols+col)*n
	return g.cells[start : start+n : start+n]
}

// LevelIndex maps an authored height level to its index.
func (g *Grid) LevelIndex(height int) (int, bool) {
	idx := height + g.LevelOffset
	return idx, idx >= 0 && idx < g.Levels
}

// HeightLevel maps a level index back to the authored height level.
func (g *Grid) HeightLevel(index int) int {
	return index - g.LevelOffset
}

// Layer looks up a layer by its path name.
func (g *Grid) Layer(name string) (LayerInfo, bool) {
	for _, info := range g.Layers {
		if info.Name == name {
			return info, true
		}
	}
	return LayerInfo{}, false
}

func (g *Grid) LayerNames() []string {
	names := make([]string, len(g.Layers))
	for i, info := range g.Layers {
		names[i] = info.Name
	}
	return names
}

func (g *Grid) LayerLevels() []int {
	levels := make([]int, len(g.Layers))
	for i, info := range g.Layers {
		levels[i] = info.Level
	}
	return levels
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	c.Layers = append([]LayerInfo(nil), g.Layers...)
	c.subLayers = append([]int(nil), g.subLayers...)
	c.slabStart = append([]int(nil), g.slabStart...)
	c.cells = append([]tmx.GID(nil), g.cells...)
	return &c
}

// SyncDocument copies the grid back into the document's tile layers. doc
// must be the document the grid was built from. A layer is grown to the grid
// extent when a non-empty cell lies outside its own size.
func (g *Grid) SyncDocument(doc *tmx.Document) error {
	paths := doc.TileLayers()
	if len(paths) != len(g.Layers) {
		return fmt.Errorf("document has %d tile layers, grid has %d", len(paths), len(g.Layers))
	}
	for i, lp := range paths {
		info := g.Layers[i]
		if lp.Path != info.Name {
			return fmt.Errorf("tile layer %d is %q in the document, %q in the grid", i, lp.Path, info.Name)
		}
		layer := lp.Layer
		if g.overflows(info) {
			growLayer(layer, g.Rows, g.Cols)
			g.Layers[i].Width, g.Layers[i].Height = layer.Width, layer.Height
		}
		for row := 0; row < layer.Height; row++ {
			for col := 0; col < layer.Width; col++ {
				layer.Tiles[row*layer.Width+col] = g.Stack(info.LevelIndex, row, col)[info.SubLayer]
			}
		}
	}
	return nil
}

func (g *Grid) overflows(info LayerInfo) bool {
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if row < info.Height && col < info.Width {
				continue
			}
			if g.Stack(info.LevelIndex, row, col)[info.SubLayer] != 0 {
				return true
			}
		}
	}
	return false
}

func growLayer(l *tmx.Layer, rows, cols int) {
	tiles := make([]tmx.GID, rows*cols)
	for row := 0; row < l.Height; row++ {
		copy(tiles[row*cols:row*cols+l.Width], l.Tiles[row*l.Width:(row+1)*l.Width])
	}
	l.Width, l.Height, l.Tiles = cols, rows, tiles
}
