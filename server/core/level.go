package core

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/solarlune/resolv"

	"github.com/automoto/tmxworld/shared/collision"
	"github.com/automoto/tmxworld/shared/leveldata"
	"github.com/automoto/tmxworld/tags"
)

// flagTags maps collision bits to the resolv tags objects carry.
var flagTags = []struct {
	flag collision.Flags
	tag  string
}{
	{collision.Solid, tags.ResolvSolid},
	{collision.Water, tags.ResolvWater},
	{collision.Ladder, tags.ResolvLadder},
	{collision.Damage, tags.ResolvDamage},
	{collision.Slow, tags.ResolvSlow},
	{collision.OneWay, tags.ResolvOneWay},
}

// FlagTags returns the resolv tags for the known bits set in f.
func FlagTags(f collision.Flags) []string {
	var out []string
	for _, ft := range flagTags {
		if f.Has(ft.flag) {
			out = append(out, ft.tag)
		}
	}
	return out
}

// ServerLevel holds one height level's collision as a resolv space, for
// broad-phase consumers that want shapes instead of cells.
type ServerLevel struct {
	Space       *resolv.Space
	Level       int
	SpawnPoints []leveldata.SpawnPoint
	MapWidth    int
	MapHeight   int
	Cells       int
}

// NewServerLevel builds a resolv.Space with one tile-sized object per
// flagged cell of grid at the given level index.
func NewServerLevel(grid *collision.Grid, level, tileWidth, tileHeight int, spawns []leveldata.SpawnPoint) *ServerLevel {
	w, h := grid.Cols*tileWidth, grid.Rows*tileHeight
	space := resolv.NewSpace(w, h, tileWidth, tileHeight)
	tw, th := float64(tileWidth), float64(tileHeight)

	cells := 0
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			t := FlagTags(grid.Flags(level, row, col))
			if len(t) == 0 {
				continue
			}
			obj := resolv.NewObject(float64(col)*tw, float64(row)*th, tw, th, t...)
			obj.SetShape(resolv.NewRectangle(0, 0, tw, th))
			space.Add(obj)
			cells++
		}
	}

	var own []leveldata.SpawnPoint
	for _, sp := range spawns {
		if sp.Level == level {
			own = append(own, sp)
		}
	}

	return &ServerLevel{
		Space:       space,
		Level:       level,
		SpawnPoints: own,
		MapWidth:    w,
		MapHeight:   h,
		Cells:       cells,
	}
}

// NewServerLevels exports every level of lvl. Spawn points are matched by
// level index.
func NewServerLevels(lvl *leveldata.Level) []*ServerLevel {
	doc := lvl.Document
	spawns := make([]leveldata.SpawnPoint, len(lvl.Spawns))
	for i, sp := range lvl.Spawns {
		sp.Level += lvl.Grid.LevelOffset
		spawns[i] = sp
	}

	out := make([]*ServerLevel, lvl.Collision.Levels)
	for l := range out {
		out[l] = NewServerLevel(lvl.Collision, l, doc.TileWidth, doc.TileHeight, spawns)
	}
	return out
}

// LoadAllWorlds loads all .tmx levels from the levels directory under
// assetsDir, returning a map of World keyed by stem name plus a sorted name
// list.
func LoadAllWorlds(assetsDir string, opts Options) (map[string]*World, []string, error) {
	return loadAllWorlds(os.DirFS(assetsDir), "levels", opts)
}

func loadAllWorlds(fsys fs.FS, dir string, opts Options) (map[string]*World, []string, error) {
	levels, names, err := leveldata.LoadAllLevels(fsys, dir, opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("load all levels: %w", err)
	}

	worlds := make(map[string]*World, len(names))
	for _, name := range names {
		worlds[name] = NewWorld(levels[name], opts)
	}
	return worlds, names, nil
}
