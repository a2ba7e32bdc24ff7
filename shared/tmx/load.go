package tmx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// LoadOption configures Load, LoadFile and Decode.
type LoadOption func(*loader)

// WithFileSystem resolves the map, external tilesets and images inside fsys
// instead of the operating system's file system.
func WithFileSystem(fsys fs.FS) LoadOption {
	return func(l *loader) { l.fsys = fsys }
}

func WithLogger(log *zap.Logger) LoadOption {
	return func(l *loader) { l.log = log }
}

// WithImageCheck controls whether tileset images must exist. It is on by
// default, and a missing image is a ResourceNotFoundError. Images are only
// stat'ed, never decoded.
func WithImageCheck(on bool) LoadOption {
	return func(l *loader) { l.checkImages = on }
}

type loader struct {
	fsys        fs.FS
	log         *zap.Logger
	checkImages bool
}

func newLoader(opts []LoadOption) *loader {
	l := &loader{log: zap.NewNop(), checkImages: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the map at name inside fsys. External tilesets are resolved
// relative to the map before Load returns.
func Load(fsys fs.FS, name string, opts ...LoadOption) (*Document, error) {
	return LoadFile(name, append(opts, WithFileSystem(fsys))...)
}

// LoadFile reads the map at name, from the OS file system unless
// WithFileSystem is given.
func LoadFile(name string, opts ...LoadOption) (*Document, error) {
	l := newLoader(opts)
	raw, err := l.read(name, "")
	if err != nil {
		return nil, err
	}
	doc, err := l.decode(raw, name)
	if err != nil {
		return nil, withPath(err, name)
	}
	return doc, nil
}

// Decode parses a map from r. External tilesets resolve against the working
// directory, or the root of the WithFileSystem file system.
func Decode(r io.Reader, opts ...LoadOption) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return newLoader(opts).decode(raw, "")
}

func withPath(err error, name string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = name
	}
	return err
}

func (l *loader) join(base, rel string) string {
	if l.fsys != nil {
		return path.Join(path.Dir(base), rel)
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(base), rel)
}

func (l *loader) read(name, referrer string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if l.fsys != nil {
		raw, err = fs.ReadFile(l.fsys, name)
	} else {
		raw, err = os.ReadFile(name)
	}
	if err == nil {
		return raw, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return nil, &ResourceNotFoundError{Path: name, Referrer: referrer, Err: err}
	}
	return nil, fmt.Errorf("read %s: %w", name, err)
}

func (l *loader) exists(name, referrer string) error {
	var err error
	if l.fsys != nil {
		_, err = fs.Stat(l.fsys, name)
	} else {
		_, err = os.Stat(name)
	}
	if err != nil {
		return &ResourceNotFoundError{Path: name, Referrer: referrer, Err: err}
	}
	return nil
}

func (l *loader) decode(raw []byte, name string) (*Document, error) {
	var xm xmlMap
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&xm); err != nil {
		return nil, &FormatError{Msg: "malformed map", Err: err}
	}
	if xm.Infinite != 0 {
		return nil, formatErrorf("infinite maps are not supported")
	}

	doc := &Document{
		Path:            name,
		Version:         xm.Version,
		TiledVersion:    xm.TiledVersion,
		Class:           xm.Class,
		Orientation:     xm.Orientation,
		RenderOrder:     xm.RenderOrder,
		Width:           xm.Width,
		Height:          xm.Height,
		TileWidth:       xm.TileWidth,
		TileHeight:      xm.TileHeight,
		HexSideLength:   xm.HexSideLength,
		StaggerAxis:     xm.StaggerAxis,
		StaggerIndex:    xm.StaggerIndex,
		BackgroundColor: xm.BackgroundColor,
		NextLayerID:     xm.NextLayerID,
		NextObjectID:    xm.NextObjectID,
	}
	if doc.Width < 0 || doc.Height < 0 {
		return nil, formatErrorf("negative map size %dx%d", doc.Width, doc.Height)
	}

	var err error
	if doc.Properties, err = decodeProperties(xm.Properties); err != nil {
		return nil, fmt.Errorf("map properties: %w", err)
	}

	for i := range xm.Tilesets {
		ts, err := l.tileset(&xm.Tilesets[i], name)
		if err != nil {
			return nil, err
		}
		doc.Tilesets = append(doc.Tilesets, ts)
	}
	if err := doc.ValidateTilesets(); err != nil {
		return nil, err
	}

	if doc.Layers, err = l.layers(xm.Layers); err != nil {
		return nil, err
	}

	l.log.Debug("map decoded",
		zap.String("path", name),
		zap.Int("width", doc.Width),
		zap.Int("height", doc.Height),
		zap.Int("tilesets", len(doc.Tilesets)),
		zap.Int("layers", len(doc.Layers)))
	return doc, nil
}

func (l *loader) tileset(ref *xmlTileset, mapPath string) (*Tileset, error) {
	if ref.FirstGID == 0 {
		return nil, formatErrorf("tileset %q without firstgid", ref.Name+ref.Source)
	}

	xt := ref
	base := mapPath
	if ref.Source != "" {
		base = l.join(mapPath, ref.Source)
		raw, err := l.read(base, mapPath)
		if err != nil {
			return nil, err
		}
		var ext xmlTileset
		if err := xml.Unmarshal(raw, &ext); err != nil {
			return nil, &FormatError{Path: base, Msg: "malformed tileset", Err: err}
		}
		xt = &ext
		l.log.Debug("external tileset resolved", zap.String("source", ref.Source), zap.String("path", base))
	}

	ts := &Tileset{
		FirstGID:   ref.FirstGID,
		Source:     ref.Source,
		Name:       xt.Name,
		Class:      xt.Class,
		TileWidth:  xt.TileWidth,
		TileHeight: xt.TileHeight,
		Spacing:    xt.Spacing,
		Margin:     xt.Margin,
		TileCount:  xt.TileCount,
		Columns:    xt.Columns,
		Tiles:      make(map[uint32]*Tile, len(xt.Tiles)),
	}
	if xt.TileOffset != nil {
		ts.TileOffsetX, ts.TileOffsetY = xt.TileOffset.X, xt.TileOffset.Y
	}

	var err error
	if ts.Properties, err = decodeProperties(xt.Properties); err != nil {
		return nil, fmt.Errorf("tileset %q properties: %w", ts.Name, err)
	}
	if ts.Image, err = l.image(xt.Image, base); err != nil {
		return nil, err
	}

	for _, xtile := range xt.Tiles {
		t := &Tile{
			ID:          xtile.ID,
			Type:        xtile.Type,
			Probability: xtile.Probability,
		}
		if t.Type == "" {
			t.Type = xtile.Class
		}
		if t.Properties, err = decodeProperties(xtile.Properties); err != nil {
			return nil, fmt.Errorf("tileset %q tile %d: %w", ts.Name, t.ID, err)
		}
		if t.Image, err = l.image(xtile.Image, base); err != nil {
			return nil, err
		}
		if xtile.Animation != nil {
			for _, f := range xtile.Animation.Frames {
				t.Animation = append(t.Animation, Frame{TileID: f.TileID, Duration: f.Duration})
			}
		}
		ts.Tiles[t.ID] = t
	}

	ts.normalizeTileCount()
	for id := range ts.Tiles {
		if int(id) >= ts.TileCount {
			return nil, formatErrorf("tileset %q: tile id %d outside tilecount %d", ts.Name, id, ts.TileCount)
		}
	}
	return ts, nil
}

func (l *loader) image(xi *xmlImage, owner string) (*Image, error) {
	if xi == nil {
		return nil, nil
	}
	img := &Image{
		Source: xi.Source,
		Format: xi.Format,
		Trans:  xi.Trans,
		Width:  xi.Width,
		Height: xi.Height,
	}
	if l.checkImages && img.Source != "" {
		if err := l.exists(l.join(owner, img.Source), owner); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (l *loader) layers(raw []xmlLayer) ([]*Layer, error) {
	var out []*Layer
	for i := range raw {
		xl := &raw[i]
		var layer *Layer
		switch xl.XMLName.Local {
		case "layer":
			layer = newLayer(TileLayerKind, xl.Name)
			if err := l.tileData(layer, xl); err != nil {
				return nil, err
			}
		case "objectgroup":
			layer = newLayer(ObjectGroupKind, xl.Name)
			layer.Color = xl.Color
			layer.DrawOrder = xl.DrawOrder
			for j := range xl.Objects {
				o, err := decodeObject(&xl.Objects[j])
				if err != nil {
					return nil, fmt.Errorf("objectgroup %q: %w", xl.Name, err)
				}
				layer.Objects = append(layer.Objects, o)
			}
		case "group":
			layer = newLayer(GroupKind, xl.Name)
			children, err := l.layers(xl.Layers)
			if err != nil {
				return nil, err
			}
			layer.Layers = children
		case "imagelayer":
			l.log.Debug("image layer skipped", zap.String("name", xl.Name))
			continue
		default:
			continue
		}

		layer.ID = xl.ID
		layer.Class = xl.Class
		layer.TintColor = xl.TintColor
		layer.OffsetX, layer.OffsetY = xl.OffsetX, xl.OffsetY
		if xl.Visible != nil {
			layer.Visible = *xl.Visible != 0
		}
		if xl.Opacity != nil {
			layer.Opacity = *xl.Opacity
		}
		if xl.ParallaxX != nil {
			layer.ParallaxX = *xl.ParallaxX
		}
		if xl.ParallaxY != nil {
			layer.ParallaxY = *xl.ParallaxY
		}
		var err error
		if layer.Properties, err = decodeProperties(xl.Properties); err != nil {
			return nil, fmt.Errorf("%s %q: %w", layer.Kind, layer.Name, err)
		}
		out = append(out, layer)
	}
	return out, nil
}

func (l *loader) tileData(layer *Layer, xl *xmlLayer) error {
	layer.Width, layer.Height = xl.Width, xl.Height
	if xl.Width < 0 || xl.Height < 0 {
		return formatErrorf("layer %q: negative size %dx%d", xl.Name, xl.Width, xl.Height)
	}
	want := xl.Width * xl.Height
	if xl.Data == nil {
		if want != 0 {
			return formatErrorf("layer %q has no data", xl.Name)
		}
		return nil
	}
	if len(xl.Data.Chunks) > 0 {
		return formatErrorf("layer %q: chunked data is not supported", xl.Name)
	}

	enc, err := ParseEncoding(xl.Data.Encoding)
	if err != nil {
		return fmt.Errorf("layer %q: %w", xl.Name, err)
	}
	comp, err := ParseCompression(xl.Data.Compression)
	if err != nil {
		return fmt.Errorf("layer %q: %w", xl.Name, err)
	}

	p := Payload{Encoding: enc, Compression: comp, Text: xl.Data.Text}
	if enc == EncodingXML {
		p.Tiles = make([]GID, len(xl.Data.Tiles))
		for i, t := range xl.Data.Tiles {
			p.Tiles[i] = GID(t.GID)
		}
	}
	tiles, err := DecodeData(p)
	if err != nil {
		return fmt.Errorf("layer %q: %w", xl.Name, err)
	}
	if len(tiles) != want {
		return formatErrorf("layer %q: %d cells, want %dx%d", xl.Name, len(tiles), xl.Width, xl.Height)
	}

	layer.Tiles = tiles
	layer.Encoding = enc
	layer.Compression = comp
	return nil
}

func decodeObject(xo *xmlObject) (*Object, error) {
	o := &Object{
		ID:       xo.ID,
		Name:     xo.Name,
		Type:     xo.Type,
		X:        xo.X,
		Y:        xo.Y,
		Width:    xo.Width,
		Height:   xo.Height,
		Rotation: xo.Rotation,
		GID:      GID(xo.GID),
		Visible:  xo.Visible == nil || *xo.Visible != 0,
		Ellipse:  xo.Ellipse != nil,
		Point:    xo.Point != nil,
	}
	if o.Type == "" {
		o.Type = xo.Class
	}

	var err error
	if xo.Polygon != nil {
		if o.Polygon, err = parsePoints(xo.Polygon.Points); err != nil {
			return nil, err
		}
	}
	if xo.Polyline != nil {
		if o.Polyline, err = parsePoints(xo.Polyline.Points); err != nil {
			return nil, err
		}
	}
	if o.Properties, err = decodeProperties(xo.Properties); err != nil {
		return nil, fmt.Errorf("object %d: %w", o.ID, err)
	}
	return o, nil
}
