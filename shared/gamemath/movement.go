package gamemath

import (
	"math"

	"github.com/automoto/tmxworld/shared/collision"
)

// Box is an axis-aligned bounding volume centered on a position. Width and
// Depth are in tiles, Height in levels.
type Box struct {
	Width  float64
	Depth  float64
	Height float64
}

// DefaultBox is a character a little under one level tall.
var DefaultBox = Box{Width: 0.5, Depth: 0.5, Height: 0.85}

// Resolver answers occupancy and movement queries against a collision grid.
// Positions are in pixels on the map plane; z is a level index. It never
// writes the grid and may be shared between goroutines.
type Resolver struct {
	Grid       *collision.Grid
	TileWidth  float64
	TileHeight float64
}

func NewResolver(grid *collision.Grid, tileWidth, tileHeight int) Resolver {
	return Resolver{Grid: grid, TileWidth: float64(tileWidth), TileHeight: float64(tileHeight)}
}

// Footprint returns the inclusive cell range covered by box at (x, y). The
// right and bottom edges are open, so a box ending exactly on a tile
// boundary does not reach into the next tile.
func (r Resolver) Footprint(x, y float64, box Box) (minRow, maxRow, minCol, maxCol int) {
	halfW := box.Width * r.TileWidth / 2
	halfD := box.Depth * r.TileHeight / 2
	minCol, maxCol = span(x-halfW, x+halfW, r.TileWidth)
	minRow, maxRow = span(y-halfD, y+halfD, r.TileHeight)
	return minRow, maxRow, minCol, maxCol
}

func span(lo, hi, size float64) (first, last int) {
	first = int(math.Floor(lo / size))
	last = int(math.Ceil(hi/size)) - 1
	if last < first {
		last = first
	}
	return first, last
}

// Levels returns the level indices a box at z overlaps: floor(z) and
// floor(z+height). Both are equal for a box inside one level.
func (r Resolver) Levels(z float64, box Box) (low, high int) {
	return int(math.Floor(z)), int(math.Floor(z + box.Height))
}

// CanOccupy reports whether box fits at (x, y, z). Any covered cell that is
// solid, or outside the map's rows and columns, blocks. Every cell under the
// footprint is tested, not just the four corners, so a box wider than a tile
// cannot straddle a one-tile wall. Levels above or below the grid hold nothing.
func (r Resolver) CanOccupy(x, y, z float64, box Box) bool {
	if r.Grid == nil || r.TileWidth <= 0 || r.TileHeight <= 0 {
		return false
	}
	minRow, maxRow, minCol, maxCol := r.Footprint(x, y, box)
	if minRow < 0 || minCol < 0 || maxRow >= r.Grid.Rows || maxCol >= r.Grid.Cols {
		return false
	}

	low, high := r.Levels(z, box)
	for level := low; level <= high; level++ {
		if level < 0 || level >= r.Grid.Levels {
			continue
		}
		for row := minRow; row <= maxRow; row++ {
			for col := minCol; col <= maxCol; col++ {
				if r.Grid.IsSolid(level, row, col) {
					return false
				}
			}
		}
	}
	return true
}

// ResolveMovement returns the position after trying to move by (dx, dy).
// Each axis is tested on its own against the starting position, so a blocked
// axis does not stop the other one and the box slides along walls.
func (r Resolver) ResolveMovement(x, y, z, dx, dy float64, box Box) (newX, newY float64) {
	newX, newY = x, y
	if dx != 0 && r.CanOccupy(x+dx, y, z, box) {
		newX = x + dx
	}
	if dy != 0 && r.CanOccupy(x, y+dy, z, box) {
		newY = y + dy
	}
	return newX, newY
}

// CanChangeLevel validates a discrete move to level newZ. The target must be
// inside the grid and free.
func (r Resolver) CanChangeLevel(x, y, newZ float64, box Box) bool {
	if r.Grid == nil || newZ < 0 || newZ >= float64(r.Grid.Levels) {
		return false
	}
	return r.CanOccupy(x, y, newZ, box)
}
