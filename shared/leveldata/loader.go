package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/automoto/tmxworld/shared/collision"
	"github.com/automoto/tmxworld/shared/tmx"
)

// SpawnGroup is the object group whose objects are all spawn points. Objects
// of type "spawn" count in any group.
const SpawnGroup = "PlayerSpawn"

// Options configures LoadLevel and LoadAllLevels.
type Options struct {
	Flags  collision.FlagTable
	Logger *zap.Logger
	// SkipImageCheck loads maps whose tileset images are missing.
	SkipImageCheck bool
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Level is a loaded map: the document it came from and the grids derived
// from it. A Level is not safe for concurrent mutation.
type Level struct {
	Name        string
	Path        string
	Document    *tmx.Document
	Grid        *Grid
	Collision   *collision.Grid
	Diagnostics []collision.Diagnostic
	Spawns      []SpawnPoint

	flags collision.FlagTable
	log   *zap.Logger
}

// LoadLevel parses a TMX file and builds its tile and collision grids. It
// takes an fs.FS so callers can pass embed.FS or os.DirFS. Either every
// stage succeeds or no Level is returned.
func LoadLevel(fsys fs.FS, tmxPath string, opts Options) (*Level, error) {
	log := opts.logger()

	doc, err := tmx.Load(fsys, tmxPath, tmx.WithLogger(log), tmx.WithImageCheck(!opts.SkipImageCheck))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	return NewLevel(doc, opts)
}

// NewLevel builds the grids of an already parsed document.
func NewLevel(doc *tmx.Document, opts Options) (*Level, error) {
	log := opts.logger()

	grid, err := Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build grid %s: %w", doc.Path, err)
	}
	spawns, err := spawnPoints(doc)
	if err != nil {
		return nil, fmt.Errorf("spawn points %s: %w", doc.Path, err)
	}

	lvl := &Level{
		Name:     strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path)),
		Path:     doc.Path,
		Document: doc,
		Grid:     grid,
		Spawns:   spawns,
		flags:    opts.Flags,
		log:      log,
	}
	lvl.rebuild()

	stats := lvl.Collision.Stats()
	log.Info("level loaded",
		zap.String("path", doc.Path),
		zap.Int("levels", grid.Levels),
		zap.Int("rows", grid.Rows),
		zap.Int("cols", grid.Cols),
		zap.Int("levelOffset", grid.LevelOffset),
		zap.Int("layers", len(grid.Layers)),
		zap.Float64("solidPercent", stats.SolidPercent))
	return lvl, nil
}

func (l *Level) rebuild() {
	l.Collision, l.Diagnostics = collision.Build(l.Grid, l.Document.Tilesets, l.flags)
	for _, d := range l.Diagnostics {
		l.log.Warn("collision data", zap.String("level", l.Name), zap.Stringer("diagnostic", d))
	}
}

// SetTile writes a GID into the grid and the source layer, then rebuilds the
// collision grid from scratch. level is a level index.
func (l *Level) SetTile(level, row, col, sub int, gid tmx.GID) error {
	if err := l.Grid.SetTile(level, row, col, sub, gid); err != nil {
		return err
	}
	l.writeThrough(level, row, col, sub, gid)
	l.rebuild()
	return nil
}

func (l *Level) writeThrough(level, row, col, sub int, gid tmx.GID) {
	paths := l.Document.TileLayers()
	for i, info := range l.Grid.Layers {
		if info.LevelIndex != level || info.SubLayer != sub || i >= len(paths) {
			continue
		}
		layer := paths[i].Layer
		if row >= layer.Height || col >= layer.Width {
			growLayer(layer, l.Grid.Rows, l.Grid.Cols)
			l.Grid.Layers[i].Width, l.Grid.Layers[i].Height = layer.Width, layer.Height
		}
		_ = layer.SetTileAt(col, row, gid)
		return
	}
}

// Save writes the document with every grid edit applied.
func (l *Level) Save(path string, opts tmx.EncodeOptions) error {
	if err := l.Grid.SyncDocument(l.Document); err != nil {
		return fmt.Errorf("sync %s: %w", l.Name, err)
	}
	if err := tmx.SaveFile(path, l.Document, opts); err != nil {
		return err
	}
	return nil
}

func spawnPoints(doc *tmx.Document) ([]SpawnPoint, error) {
	var spawns []SpawnPoint
	for _, og := range doc.FlattenLayers() {
		if og.Kind != tmx.ObjectGroupKind {
			continue
		}
		level, _, err := og.HeightLevel()
		if err != nil {
			return nil, fmt.Errorf("object group %q: %w", og.Name, err)
		}
		for _, o := range og.Objects {
			if og.Name != SpawnGroup && o.Type != "spawn" {
				continue
			}
			spawns = append(spawns, SpawnPoint{
				Name:  o.Name,
				X:     o.X,
				Y:     o.Y,
				Level: level,
				Index: o.Properties.GetInt("spawnIndex"),
			})
		}
	}

	// Sort spawns left-to-right for consistent assignment
	sort.SliceStable(spawns, func(i, j int) bool {
		return spawns[i].X < spawns[j].X
	})
	return spawns, nil
}

// LoadAllLevels discovers all .tmx files in levelsDir within fsys, loads each,
// and returns a map keyed by stem name plus a sorted list of names.
func LoadAllLevels(fsys fs.FS, levelsDir string, opts Options) (map[string]*Level, []string, error) {
	pattern := levelsDir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", levelsDir)
	}

	levels := make(map[string]*Level, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		lvl, err := LoadLevel(fsys, path, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		levels[lvl.Name] = lvl
		names = append(names, lvl.Name)
	}

	sort.Strings(names)
	return levels, names, nil
}
