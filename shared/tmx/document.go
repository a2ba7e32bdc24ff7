package tmx

import "sort"

// Document is a parsed TMX map.
type Document struct {
	// Path is the location the document was loaded from; external tilesets
	// resolve relative to it.
	Path string

	Version         string
	TiledVersion    string
	Class           string
	Orientation     string
	RenderOrder     string
	Width           int
	Height          int
	TileWidth       int
	TileHeight      int
	HexSideLength   int
	StaggerAxis     string
	StaggerIndex    string
	Infinite        bool
	BackgroundColor string
	NextLayerID     int
	NextObjectID    int

	Properties Properties
	Tilesets   []*Tileset
	Layers     []*Layer
}

// NewDocument returns an empty orthogonal, right-down map.
func NewDocument(width, height, tileWidth, tileHeight int) *Document {
	return &Document{
		Version:      "1.10",
		Orientation:  "orthogonal",
		RenderOrder:  "right-down",
		Width:        width,
		Height:       height,
		TileWidth:    tileWidth,
		TileHeight:   tileHeight,
		NextLayerID:  1,
		NextObjectID: 1,
	}
}

// AddTileset appends ts. A zero FirstGID is assigned the first id after the
// highest range already claimed.
func (d *Document) AddTileset(ts *Tileset) {
	if ts.FirstGID == 0 {
		next := uint32(1)
		for _, other := range d.Tilesets {
			if end := other.FirstGID + uint32(other.TileCount); end > next {
				next = end
			}
		}
		ts.FirstGID = next
	}
	d.Tilesets = append(d.Tilesets, ts)
}

// AddLayer appends l at the top level and assigns it a fresh id when it has
// none.
func (d *Document) AddLayer(l *Layer) {
	d.assignIDs(l)
	d.Layers = append(d.Layers, l)
}

func (d *Document) assignIDs(l *Layer) {
	if l.ID == 0 {
		if d.NextLayerID < 1 {
			d.NextLayerID = 1
		}
		l.ID = d.NextLayerID
		d.NextLayerID++
	}
	for _, o := range l.Objects {
		if o.ID == 0 {
			if d.NextObjectID < 1 {
				d.NextObjectID = 1
			}
			o.ID = d.NextObjectID
			d.NextObjectID++
		}
	}
	for _, child := range l.Layers {
		d.assignIDs(child)
	}
}

// TilesetFor returns the tileset whose range contains the base id of gid.
func (d *Document) TilesetFor(gid GID) (*Tileset, bool) {
	base := gid.Base()
	if base == 0 {
		return nil, false
	}
	for _, ts := range d.Tilesets {
		if ts.Contains(base) {
			return ts, true
		}
	}
	return nil, false
}

// ValidateTilesets rejects tilesets that claim gid 0 or overlap another
// tileset's range.
func (d *Document) ValidateTilesets() error {
	sorted := make([]*Tileset, len(d.Tilesets))
	copy(sorted, d.Tilesets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FirstGID < sorted[j].FirstGID })

	for i, ts := range sorted {
		if ts.FirstGID == 0 {
			return formatErrorf("tileset %q has firstgid 0", ts.Name)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.FirstGID+uint32(prev.TileCount) > ts.FirstGID {
			return formatErrorf("tileset %q [%d,%d) overlaps tileset %q starting at %d",
				prev.Name, prev.FirstGID, prev.FirstGID+uint32(prev.TileCount), ts.Name, ts.FirstGID)
		}
	}
	return nil
}

// LayerByName searches the layer tree depth-first in document order. A group
// is matched before its children.
func (d *Document) LayerByName(name string) (*Layer, bool) {
	return findLayer(d.Layers, name)
}

func findLayer(layers []*Layer, name string) (*Layer, bool) {
	for _, l := range layers {
		if l.Name == name {
			return l, true
		}
		if l.Kind == GroupKind {
			if found, ok := findLayer(l.Layers, name); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// FlattenLayers returns every tile layer and object group in document order,
// expanding groups. Groups themselves are not returned.
func (d *Document) FlattenLayers() []*Layer {
	var out []*Layer
	var walk func([]*Layer)
	walk = func(layers []*Layer) {
		for _, l := range layers {
			if l.Kind == GroupKind {
				walk(l.Layers)
				continue
			}
			out = append(out, l)
		}
	}
	walk(d.Layers)
	return out
}

// LayerPath pairs a layer with its slash-joined name inside enclosing groups.
type LayerPath struct {
	Path  string
	Layer *Layer
}

// TileLayers returns every tile layer in document order with its group path.
func (d *Document) TileLayers() []LayerPath {
	var out []LayerPath
	var walk func(prefix string, layers []*Layer)
	walk = func(prefix string, layers []*Layer) {
		for _, l := range layers {
			name := l.Name
			if prefix != "" {
				name = prefix + "/" + l.Name
			}
			switch l.Kind {
			case TileLayerKind:
				out = append(out, LayerPath{Path: name, Layer: l})
			case GroupKind:
				walk(name, l.Layers)
			}
		}
	}
	walk("", d.Layers)
	return out
}

// Image references a picture file relative to the document or tileset that
// declares it.
type Image struct {
	Source string
	Format string
	Trans  string
	Width  int
	Height int
}

// Frame is one step of a tile animation.
type Frame struct {
	TileID   uint32
	Duration int
}

// Tile is per-tile metadata inside a tileset. Most tiles have none.
type Tile struct {
	ID          uint32
	Type        string
	Probability float64
	Image       *Image
	Animation   []Frame
	Properties  Properties
}

// Tileset maps a gid range onto local tile ids.
type Tileset struct {
	FirstGID uint32
	// Source is the external TSX reference exactly as written in the map;
	// empty for embedded tilesets.
	Source string

	Name        string
	Class       string
	TileWidth   int
	TileHeight  int
	Spacing     int
	Margin      int
	TileCount   int
	Columns     int
	TileOffsetX int
	TileOffsetY int
	Image       *Image
	Properties  Properties
	Tiles       map[uint32]*Tile
}

func (ts *Tileset) Contains(gid GID) bool {
	base := uint32(gid.Base())
	return base >= ts.FirstGID && base < ts.FirstGID+uint32(ts.TileCount)
}

// LocalID returns gid - firstgid. The caller checks Contains first.
func (ts *Tileset) LocalID(gid GID) uint32 {
	return uint32(gid.Base()) - ts.FirstGID
}

// Tile returns the metadata of a local tile, if any was declared.
func (ts *Tileset) Tile(id uint32) (*Tile, bool) {
	t, ok := ts.Tiles[id]
	return t, ok
}

// IsCollection reports whether every tile carries its own image.
func (ts *Tileset) IsCollection() bool {
	return ts.Image == nil
}

// normalizeTileCount fills a missing tilecount from the image grid, or from
// the highest declared tile id in a collection.
func (ts *Tileset) normalizeTileCount() {
	if ts.TileCount > 0 {
		return
	}
	if ts.Image != nil && ts.TileWidth > 0 && ts.TileHeight > 0 {
		cols := (ts.Image.Width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
		rows := (ts.Image.Height - 2*ts.Margin + ts.Spacing) / (ts.TileHeight + ts.Spacing)
		if cols > 0 && rows > 0 {
			if ts.Columns == 0 {
				ts.Columns = cols
			}
			ts.TileCount = cols * rows
			return
		}
	}
	for id := range ts.Tiles {
		if int(id)+1 > ts.TileCount {
			ts.TileCount = int(id) + 1
		}
	}
}

func sortedTileIDs(ts *Tileset) []uint32 {
	ids := make([]uint32, 0, len(ts.Tiles))
	for id := range ts.Tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
