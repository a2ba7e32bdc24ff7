package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/automoto/tmxworld/assets"
	"github.com/automoto/tmxworld/config"
	"github.com/automoto/tmxworld/server/core"
	"github.com/automoto/tmxworld/shared/leveldata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config file (empty = defaults)")
	mapPath := flag.String("map", "", "TMX map to serve (overrides config)")
	tickRate := flag.Int("tickrate", 0, "World tick rate in steps per second (overrides config)")
	watch := flag.Bool("watch", false, "Reload the map when it or its tilesets change")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *mapPath != "" {
		cfg.World.Map = *mapPath
	}
	if *tickRate > 0 {
		cfg.Server.TickRate = *tickRate
	}
	if *watch {
		cfg.Server.Watch = true
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	encodeOpts, err := cfg.EncodeOptions()
	if err != nil {
		return err
	}

	fsys, name := assets.FS(), assets.DefaultLevel
	root := ""
	if cfg.World.Map != "" {
		if fsys, root, name, err = openRoot(cfg.World.Map); err != nil {
			return err
		}
	} else if cfg.Server.Watch {
		log.Warn("the embedded level cannot be watched")
		cfg.Server.Watch = false
	}
	world, err := core.LoadWorld(fsys, name, core.Options{
		Box:        cfg.Box(),
		Friction:   cfg.Movement.Friction,
		MaxSpeed:   cfg.Movement.MaxSpeed,
		SubSteps:   cfg.Movement.SubSteps,
		Logger:     log,
		FlagSource: cfg.FlagTable,
		Level: leveldata.Options{
			Logger:         log,
			SkipImageCheck: cfg.World.SkipImageCheck,
		},
	})
	if err != nil {
		return err
	}

	stats := world.Stats()
	levels, rows, cols := world.Shape()
	log.Info("world ready",
		zap.String("map", name),
		zap.Int("levels", levels), zap.Int("rows", rows), zap.Int("cols", cols),
		zap.Int("solid", stats.Solid), zap.Int("diagnostics", len(world.Diagnostics())))

	for i := range world.Spawns() {
		if _, err := world.SpawnAt(fmt.Sprintf("spawn-%d", i), i); err != nil {
			log.Warn("spawn point blocked", zap.Int("index", i), zap.Error(err))
		}
	}

	loop := core.NewGameLoop(world, cfg.Server.TickRate, log)
	go loop.Run()

	var watcher *core.Watcher
	if cfg.Server.Watch {
		dirs := watchDirs(root, world.SourceFiles(), cfg.World.FlagTable)
		watcher, err = core.NewWatcher(dirs...)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		go reloadOnChange(watcher, world, func() []string {
			return watchDirs(root, world.SourceFiles(), cfg.World.FlagTable)
		}, log)
		log.Info("watching for map changes", zap.Strings("dirs", dirs))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", zap.String("signal", sig.String()))

	loop.Stop()
	if watcher != nil {
		_ = watcher.Close()
	}
	if cfg.Server.SavePath != "" {
		if err := world.Save(cfg.Server.SavePath, encodeOpts); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		log.Info("world saved", zap.String("path", cfg.Server.SavePath))
	}
	return nil
}

// reloadOnChange reloads the world on every change and starts watching any
// tileset directory the reloaded map newly references.
func reloadOnChange(w *core.Watcher, world *core.World, dirs func() []string, log *zap.Logger) {
	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if err := world.Reload(); err != nil {
				log.Error("reload failed, keeping current map", zap.String("changed", name), zap.Error(err))
				continue
			}
			log.Info("map reloaded", zap.String("changed", name))
			for _, dir := range dirs() {
				if err := w.Add(dir); err != nil {
					log.Warn("cannot watch tileset directory", zap.String("dir", dir), zap.Error(err))
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// openRoot returns a filesystem rooted at the volume holding path, so maps
// may reference tilesets anywhere on disk through "../" paths.
func openRoot(path string) (fsys fs.FS, root, name string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", "", fmt.Errorf("resolve %s: %w", path, err)
	}
	root = filepath.VolumeName(abs) + string(filepath.Separator)
	name = filepath.ToSlash(strings.TrimPrefix(abs, root))
	return os.DirFS(root), root, name, nil
}

// watchDirs maps the world's source files back to OS directories under root,
// plus the flag table's directory.
func watchDirs(root string, sources []string, flagTable string) []string {
	var dirs []string
	for _, src := range sources {
		dirs = append(dirs, filepath.Dir(filepath.Join(root, filepath.FromSlash(src))))
	}
	if flagTable != "" {
		dirs = append(dirs, filepath.Dir(flagTable))
	}
	return uniq(dirs)
}

func uniq(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, d := range dirs {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
