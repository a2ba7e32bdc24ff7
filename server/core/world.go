package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/automoto/tmxworld/shared/collision"
	"github.com/automoto/tmxworld/shared/gamemath"
	"github.com/automoto/tmxworld/shared/leveldata"
	"github.com/automoto/tmxworld/shared/tmx"
)

var (
	ErrBlocked  = errors.New("position blocked")
	ErrNoBody   = errors.New("no such body")
	ErrNoSource = errors.New("world has no source file")
)

// Options configures a World.
type Options struct {
	Box      gamemath.Box
	Friction float64
	MaxSpeed float64
	// SubSteps is how many movement steps run per Step call.
	SubSteps int
	Level    leveldata.Options
	Logger   *zap.Logger
	// FlagSource, when set, supplies the flag table on every load and
	// reload, replacing Level.Flags.
	FlagSource func() (collision.FlagTable, error)
}

func DefaultOptions() Options {
	return Options{
		Box:      gamemath.DefaultBox,
		Friction: 0.5,
		MaxSpeed: 6,
		SubSteps: 1,
	}
}

// World owns a loaded level and everything derived from it. Queries take
// the read lock; SetTile, Reload, Save and Step take the write lock, so edits
// are serialized and readers never see a half-built collision grid.
type World struct {
	mu sync.RWMutex

	fsys fs.FS
	path string

	level    *leveldata.Level
	resolver gamemath.Resolver
	spaces   []*ServerLevel

	ecs  donburi.World
	opts Options
	log  *zap.Logger
}

// NewWorld wraps an already loaded level.
func NewWorld(lvl *leveldata.Level, opts Options) *World {
	if opts.Box == (gamemath.Box{}) {
		opts.Box = gamemath.DefaultBox
	}
	if opts.SubSteps < 1 {
		opts.SubSteps = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Level.Logger == nil {
		opts.Level.Logger = log
	}

	w := &World{
		ecs:  donburi.NewWorld(),
		opts: opts,
		log:  log,
	}
	w.install(lvl)
	return w
}

// LoadWorld loads tmxPath from fsys. The source is remembered for Reload.
func LoadWorld(fsys fs.FS, tmxPath string, opts Options) (*World, error) {
	if opts.Level.Logger == nil {
		opts.Level.Logger = opts.Logger
	}
	levelOpts, err := opts.levelOptions()
	if err != nil {
		return nil, err
	}
	lvl, err := leveldata.LoadLevel(fsys, tmxPath, levelOpts)
	if err != nil {
		return nil, err
	}
	opts.Level = levelOpts
	w := NewWorld(lvl, opts)
	w.fsys, w.path = fsys, tmxPath
	return w, nil
}

// levelOptions returns Level with the flag table re-read from FlagSource.
func (o Options) levelOptions() (leveldata.Options, error) {
	lo := o.Level
	if o.FlagSource == nil {
		return lo, nil
	}
	flags, err := o.FlagSource()
	if err != nil {
		return lo, fmt.Errorf("flag table: %w", err)
	}
	lo.Flags = flags
	return lo, nil
}

// install swaps in lvl and rebuilds derived state. Caller holds the write
// lock or owns w exclusively.
func (w *World) install(lvl *leveldata.Level) {
	w.level = lvl
	w.refresh()
}

func (w *World) refresh() {
	doc := w.level.Document
	w.resolver = gamemath.NewResolver(w.level.Collision, doc.TileWidth, doc.TileHeight)
	w.spaces = NewServerLevels(w.level)
	w.attachBodies()
}

func (w *World) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Name
}

// Shape returns the level, row and column counts.
func (w *World) Shape() (levels, rows, cols int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Grid.Shape()
}

// TileSize returns the map's tile size in pixels.
func (w *World) TileSize() (width, height int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Document.TileWidth, w.level.Document.TileHeight
}

func (w *World) GetTile(level, row, col, sub int) (tmx.GID, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Grid.Tile(level, row, col, sub)
}

func (w *World) IsSolid(level, row, col int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Collision.IsSolid(level, row, col)
}

func (w *World) GetFlags(level, row, col int) collision.Flags {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Collision.Flags(level, row, col)
}

func (w *World) CanOccupy(x, y, z float64, box gamemath.Box) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resolver.CanOccupy(x, y, z, box)
}

func (w *World) ResolveMovement(x, y, z, dx, dy float64, box gamemath.Box) (float64, float64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resolver.ResolveMovement(x, y, z, dx, dy, box)
}

func (w *World) CanChangeLevel(x, y, newZ float64, box gamemath.Box) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resolver.CanChangeLevel(x, y, newZ, box)
}

// GetLayerByName returns the first layer named name at any depth of the
// document's layer tree.
func (w *World) GetLayerByName(name string) (*tmx.Layer, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Document.LayerByName(name)
}

// LayerInfo returns where a tile layer sits in the grid. Layers inside
// groups are named by their "group/child" path.
func (w *World) LayerInfo(path string) (leveldata.LayerInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Grid.Layer(path)
}

// Diagnostics returns the non-fatal problems found by the last collision
// build.
func (w *World) Diagnostics() []collision.Diagnostic {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]collision.Diagnostic(nil), w.level.Diagnostics...)
}

func (w *World) Stats() collision.Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level.Collision.Stats()
}

func (w *World) Spawns() []leveldata.SpawnPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]leveldata.SpawnPoint(nil), w.level.Spawns...)
}

// Space returns the resolv export of a level index, or nil.
func (w *World) Space(level int) *ServerLevel {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if level < 0 || level >= len(w.spaces) {
		return nil
	}
	return w.spaces[level]
}

// SetTile writes gid and rebuilds collision, the resolver and the resolv
// spaces before releasing the lock.
func (w *World) SetTile(level, row, col, sub int, gid tmx.GID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.level.SetTile(level, row, col, sub, gid); err != nil {
		return err
	}
	w.refresh()
	w.log.Debug("tile set",
		zap.Int("level", level), zap.Int("row", row), zap.Int("col", col),
		zap.Int("sub", sub), zap.Uint32("gid", uint32(gid)))
	return nil
}

// Reload reads the world's source again and replaces the level in one step.
// On error the current level stays in place.
func (w *World) Reload() error {
	w.mu.RLock()
	fsys, path := w.fsys, w.path
	w.mu.RUnlock()
	if fsys == nil {
		return ErrNoSource
	}
	return w.ReloadFrom(fsys, path)
}

// ReloadFrom loads tmxPath from fsys and makes it the world's source. The
// flag table is read again when the world has a FlagSource.
func (w *World) ReloadFrom(fsys fs.FS, tmxPath string) error {
	w.mu.RLock()
	opts := w.opts
	w.mu.RUnlock()

	levelOpts, err := opts.levelOptions()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	lvl, err := leveldata.LoadLevel(fsys, tmxPath, levelOpts)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.fsys, w.path = fsys, tmxPath
	w.opts.Level = levelOpts
	w.install(lvl)
	w.log.Info("world reloaded", zap.String("path", tmxPath))
	return nil
}

// SourceFiles returns the map and its external tilesets as paths inside the
// world's file system, or nil when the world has no source.
func (w *World) SourceFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.fsys == nil {
		return nil
	}
	files := []string{w.path}
	for _, ts := range w.level.Document.Tilesets {
		if ts.Source != "" {
			files = append(files, path.Join(path.Dir(w.path), ts.Source))
		}
	}
	return files
}

// Save writes the level, edits included, to path.
func (w *World) Save(path string, opts tmx.EncodeOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.level.Save(path, opts)
}
