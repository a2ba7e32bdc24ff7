package collision

import (
	"fmt"

	"github.com/automoto/tmxworld/shared/tmx"
)

// TileGrid is the read side of a multi-level tile grid.
type TileGrid interface {
	Shape() (levels, rows, cols int)
	// Stack returns the sub-layer GIDs of one cell.
	Stack(level, row, col int) []tmx.GID
}

// Diagnostic reports tile data that could not be resolved. It never stops a
// build.
type Diagnostic struct {
	Level    int
	Row      int
	Col      int
	SubLayer int
	GID      tmx.GID
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("level %d row %d col %d sublayer %d: gid %d: %s",
		d.Level, d.Row, d.Col, d.SubLayer, d.GID.Base(), d.Msg)
}

// Build ORs the flags of every populated sub-layer into one flag per cell.
// A GID outside every tileset contributes nothing and is reported as a
// Diagnostic.
func Build(tiles TileGrid, tilesets []*tmx.Tileset, table FlagTable) (*Grid, []Diagnostic) {
	if table == nil {
		table = DefaultFlagTable()
	}
	levels, rows, cols := tiles.Shape()
	g := NewGrid(levels, rows, cols)

	type lookup struct {
		flags Flags
		known bool
	}
	cache := make(map[tmx.GID]lookup)
	resolve := func(base tmx.GID) lookup {
		if hit, ok := cache[base]; ok {
			return hit
		}
		var res lookup
		for _, ts := range tilesets {
			if !ts.Contains(base) {
				continue
			}
			res.known = true
			if tile, ok := ts.Tile(ts.LocalID(base)); ok {
				res.flags = table.TileFlags(tile.Properties)
			}
			break
		}
		cache[base] = res
		return res
	}

	var diags []Diagnostic
	i := 0
	for l := 0; l < levels; l++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				var f Flags
				for sub, gid := range tiles.Stack(l, r, c) {
					base := gid.Base()
					if base == 0 {
						continue
					}
					res := resolve(base)
					if !res.known {
						diags = append(diags, Diagnostic{Level: l, Row: r, Col: c, SubLayer: sub, GID: gid, Msg: "no tileset owns this gid"})
						continue
					}
					f |= res.flags
				}
				g.cells[i] = f
				i++
			}
		}
	}
	return g, diags
}
