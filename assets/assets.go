// Package assets embeds the sample levels that ship with the server.
package assets

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/automoto/tmxworld/shared/leveldata"
)

// DefaultLevel is the embedded level served when no map is configured.
const DefaultLevel = "levels/courtyard.tmx"

//go:embed all:levels
var assetFS embed.FS

// FS returns the embedded asset tree. Level files live under levels/.
func FS() fs.FS {
	return assetFS
}

// LoadLevels loads every embedded level, keyed by stem name.
func LoadLevels(opts leveldata.Options) (map[string]*leveldata.Level, []string, error) {
	return leveldata.LoadAllLevels(assetFS, "levels", opts)
}

// MustLoadLevel loads one embedded level and panics if it is broken. The
// embedded files are fixed at build time, so a failure is a programming
// error.
func MustLoadLevel(levelPath string, opts leveldata.Options) *leveldata.Level {
	lvl, err := leveldata.LoadLevel(assetFS, levelPath, opts)
	if err != nil {
		panic(fmt.Sprintf("embedded level %s: %v", levelPath, err))
	}
	return lvl
}
