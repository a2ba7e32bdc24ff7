package tmx

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// EncodeOptions selects the tile payload format written by Encode.
type EncodeOptions struct {
	Encoding    Encoding
	Compression Compression
	// KeepLayerEncoding writes each tile layer the way it was loaded and
	// ignores Encoding and Compression for layers that have one recorded.
	KeepLayerEncoding bool
}

// DefaultEncodeOptions matches what the Tiled editor writes by default.
var DefaultEncodeOptions = EncodeOptions{Encoding: EncodingCSV}

// Encode writes doc as TMX. External tilesets are written back as references;
// use WriteTileset to write their content.
func Encode(w io.Writer, doc *Document, opts EncodeOptions) error {
	if err := checkCombination(opts.Encoding, opts.Compression); err != nil {
		return err
	}
	if err := doc.ValidateTilesets(); err != nil {
		return err
	}

	xm := xmlMap{
		Version:         doc.Version,
		TiledVersion:    doc.TiledVersion,
		Class:           doc.Class,
		Orientation:     doc.Orientation,
		RenderOrder:     doc.RenderOrder,
		Width:           doc.Width,
		Height:          doc.Height,
		TileWidth:       doc.TileWidth,
		TileHeight:      doc.TileHeight,
		HexSideLength:   doc.HexSideLength,
		StaggerAxis:     doc.StaggerAxis,
		StaggerIndex:    doc.StaggerIndex,
		BackgroundColor: doc.BackgroundColor,
		NextLayerID:     doc.NextLayerID,
		NextObjectID:    doc.NextObjectID,
		Properties:      encodeProperties(doc.Properties),
	}
	for _, ts := range doc.Tilesets {
		if ts.Source != "" {
			xm.Tilesets = append(xm.Tilesets, xmlTileset{FirstGID: ts.FirstGID, Source: ts.Source})
			continue
		}
		xt := encodeTileset(ts)
		xt.FirstGID = ts.FirstGID
		xm.Tilesets = append(xm.Tilesets, xt)
	}

	var err error
	if xm.Layers, err = encodeLayers(doc.Layers, opts); err != nil {
		return err
	}
	return writeXML(w, xm)
}

// SaveFile encodes doc to a file at name, replacing it.
func SaveFile(name string, doc *Document, opts EncodeOptions) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := Encode(f, doc, opts); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

// WriteTileset writes ts as a standalone TSX document.
func WriteTileset(w io.Writer, ts *Tileset) error {
	xt := encodeTileset(ts)
	xt.Version = "1.10"
	return writeXML(w, xt)
}

func writeXML(w io.Writer, v any) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", " ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeTileset(ts *Tileset) xmlTileset {
	xt := xmlTileset{
		Name:       ts.Name,
		Class:      ts.Class,
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		Spacing:    ts.Spacing,
		Margin:     ts.Margin,
		TileCount:  ts.TileCount,
		Columns:    ts.Columns,
		Properties: encodeProperties(ts.Properties),
		Image:      encodeImage(ts.Image),
	}
	if ts.TileOffsetX != 0 || ts.TileOffsetY != 0 {
		xt.TileOffset = &xmlTileOffset{X: ts.TileOffsetX, Y: ts.TileOffsetY}
	}
	for _, id := range sortedTileIDs(ts) {
		t := ts.Tiles[id]
		xtile := xmlTile{
			ID:          t.ID,
			Type:        t.Type,
			Probability: t.Probability,
			Properties:  encodeProperties(t.Properties),
			Image:       encodeImage(t.Image),
		}
		if len(t.Animation) > 0 {
			xtile.Animation = &xmlAnimation{}
			for _, f := range t.Animation {
				xtile.Animation.Frames = append(xtile.Animation.Frames, xmlFrame{TileID: f.TileID, Duration: f.Duration})
			}
		}
		xt.Tiles = append(xt.Tiles, xtile)
	}
	return xt
}

func encodeImage(img *Image) *xmlImage {
	if img == nil {
		return nil
	}
	return &xmlImage{
		Source: img.Source,
		Format: img.Format,
		Trans:  img.Trans,
		Width:  img.Width,
		Height: img.Height,
	}
}

func encodeLayers(layers []*Layer, opts EncodeOptions) ([]xmlLayer, error) {
	out := make([]xmlLayer, 0, len(layers))
	for _, l := range layers {
		xl := xmlLayer{
			XMLName:    xml.Name{Local: l.Kind.String()},
			ID:         l.ID,
			Name:       l.Name,
			Class:      l.Class,
			TintColor:  l.TintColor,
			OffsetX:    l.OffsetX,
			OffsetY:    l.OffsetY,
			Properties: encodeProperties(l.Properties),
		}
		if !l.Visible {
			hidden := 0
			xl.Visible = &hidden
		}
		if l.Opacity != 1 {
			opacity := l.Opacity
			xl.Opacity = &opacity
		}
		if l.ParallaxX != 1 {
			px := l.ParallaxX
			xl.ParallaxX = &px
		}
		if l.ParallaxY != 1 {
			py := l.ParallaxY
			xl.ParallaxY = &py
		}

		switch l.Kind {
		case TileLayerKind:
			data, err := encodeTileData(l, opts)
			if err != nil {
				return nil, fmt.Errorf("layer %q: %w", l.Name, err)
			}
			xl.Width, xl.Height = l.Width, l.Height
			xl.Data = data
		case ObjectGroupKind:
			xl.Color = l.Color
			xl.DrawOrder = l.DrawOrder
			for _, o := range l.Objects {
				xl.Objects = append(xl.Objects, encodeObject(o))
			}
		case GroupKind:
			children, err := encodeLayers(l.Layers, opts)
			if err != nil {
				return nil, err
			}
			xl.Layers = children
		default:
			return nil, formatErrorf("layer %q has unknown kind %d", l.Name, int(l.Kind))
		}
		out = append(out, xl)
	}
	return out, nil
}

func encodeTileData(l *Layer, opts EncodeOptions) (*xmlData, error) {
	if len(l.Tiles) != l.Width*l.Height {
		return nil, formatErrorf("%d cells, want %dx%d", len(l.Tiles), l.Width, l.Height)
	}
	enc, comp := opts.Encoding, opts.Compression
	if opts.KeepLayerEncoding && (l.Encoding != EncodingXML || l.Compression != CompressionNone) {
		enc, comp = l.Encoding, l.Compression
	}

	p, err := EncodeData(l.Tiles, enc, comp, l.Width)
	if err != nil {
		return nil, err
	}
	data := &xmlData{
		Encoding:    string(p.Encoding),
		Compression: string(p.Compression),
		Text:        p.Text,
	}
	if p.Encoding == EncodingXML {
		data.Tiles = make([]xmlDataTile, len(p.Tiles))
		for i, g := range p.Tiles {
			data.Tiles[i] = xmlDataTile{GID: uint32(g)}
		}
	}
	return data, nil
}

func encodeObject(o *Object) xmlObject {
	xo := xmlObject{
		ID:         o.ID,
		Name:       o.Name,
		Type:       o.Type,
		GID:        uint32(o.GID),
		X:          o.X,
		Y:          o.Y,
		Width:      o.Width,
		Height:     o.Height,
		Rotation:   o.Rotation,
		Properties: encodeProperties(o.Properties),
	}
	if !o.Visible {
		hidden := 0
		xo.Visible = &hidden
	}
	if o.Ellipse {
		xo.Ellipse = &xmlMarker{}
	}
	if o.Point {
		xo.Point = &xmlMarker{}
	}
	if o.Polygon != nil {
		xo.Polygon = &xmlPoints{Points: formatPoints(o.Polygon)}
	}
	if o.Polyline != nil {
		xo.Polyline = &xmlPoints{Points: formatPoints(o.Polyline)}
	}
	return xo
}
