package leveldata

import (
	"fmt"
	"math"

	"github.com/automoto/tmxworld/shared/tmx"
)

// Limits on what Build will allocate. Documents past them are rejected as
// malformed.
const (
	MaxLevels = 4096
	MaxCells  = 1 << 26
)

// Build flattens every tile layer of doc into a Grid. Layers are taken in
// document order with groups expanded; that order is the sub-layer order
// within each height level. Layers without a height level property sit on
// level 0. Layers smaller than the grid are zero-padded.
func Build(doc *tmx.Document) (*Grid, error) {
	paths := doc.TileLayers()

	levels := make([]int, len(paths))
	minLevel, maxLevel := 0, 0
	rows, cols := doc.Height, doc.Width
	for i, lp := range paths {
		level, _, err := lp.Layer.HeightLevel()
		if err != nil {
			return nil, fmt.Errorf("layer %q height level: %w", lp.Path, err)
		}
		if len(lp.Layer.Tiles) != lp.Layer.Width*lp.Layer.Height {
			return nil, fmt.Errorf("layer %q: %d cells for %dx%d: %w",
				lp.Path, len(lp.Layer.Tiles), lp.Layer.Width, lp.Layer.Height, tmx.ErrFormat)
		}
		levels[i] = level
		if i == 0 || level < minLevel {
			minLevel = level
		}
		if i == 0 || level > maxLevel {
			maxLevel = level
		}
		rows = max(rows, lp.Layer.Height)
		cols = max(cols, lp.Layer.Width)
	}

	if err := checkExtent(minLevel, maxLevel, rows, cols, len(paths)); err != nil {
		return nil, err
	}

	offset := -minLevel
	subLayers := make([]int, maxLevel-minLevel+1)
	infos := make([]LayerInfo, len(paths))
	for i, lp := range paths {
		idx := levels[i] + offset
		infos[i] = LayerInfo{
			Name:       lp.Path,
			Level:      levels[i],
			LevelIndex: idx,
			SubLayer:   subLayers[idx],
			Width:      lp.Layer.Width,
			Height:     lp.Layer.Height,
		}
		subLayers[idx]++
	}

	g, err := NewGrid(len(subLayers), rows, cols, offset, subLayers)
	if err != nil {
		return nil, err
	}
	g.Layers = infos

	for i, lp := range paths {
		info := infos[i]
		l := lp.Layer
		for row := 0; row < l.Height; row++ {
			for col := 0; col < l.Width; col++ {
				gid := l.Tiles[row*l.Width+col]
				if gid == 0 {
					continue
				}
				if err := g.SetTile(info.LevelIndex, row, col, info.SubLayer, gid); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// checkExtent bounds the grid before anything is allocated. The level span is
// computed with wrapping arithmetic, so overflow shows up as a negative span.
func checkExtent(minLevel, maxLevel, rows, cols, layers int) error {
	span := maxLevel - minLevel
	if minLevel == math.MinInt || span < 0 || span >= MaxLevels {
		return &tmx.FormatError{Msg: fmt.Sprintf("height levels %d..%d span more than %d levels", minLevel, maxLevel, MaxLevels)}
	}
	if rows < 0 || cols < 0 {
		return &tmx.FormatError{Msg: fmt.Sprintf("negative map size %dx%d", cols, rows)}
	}
	if cols > 0 && rows > MaxCells/cols {
		return &tmx.FormatError{Msg: fmt.Sprintf("map size %dx%d exceeds %d cells", cols, rows, MaxCells)}
	}
	if cells := rows * cols; layers > 0 && cells > MaxCells/layers {
		return &tmx.FormatError{Msg: fmt.Sprintf("%d layers of %dx%d exceed %d cells", layers, cols, rows, MaxCells)}
	}
	return nil
}
