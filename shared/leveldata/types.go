// Package leveldata turns parsed TMX documents into the dense multi-level
// tile grid shared by the server world and tools. It has no dependencies on
// donburi or resolv.
package leveldata

// LayerInfo records where one tile layer landed in the Grid.
type LayerInfo struct {
	// Name is the layer's path, with enclosing group names joined by "/".
	Name       string
	Level      int // height level as authored
	LevelIndex int // Level + Grid.LevelOffset
	SubLayer   int
	Width      int
	Height     int
}

// SpawnPoint represents an entity spawn location in pixels.
type SpawnPoint struct {
	Name  string
	X, Y  float64
	Level int
	Index int
}
