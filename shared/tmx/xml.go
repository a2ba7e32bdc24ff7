package tmx

import (
	"encoding/xml"
	"strings"
)

// On-disk shapes. Document types are converted to and from these in load.go
// and save.go so the public model stays free of struct tags.

type xmlMap struct {
	XMLName         xml.Name       `xml:"map"`
	Version         string         `xml:"version,attr,omitempty"`
	TiledVersion    string         `xml:"tiledversion,attr,omitempty"`
	Class           string         `xml:"class,attr,omitempty"`
	Orientation     string         `xml:"orientation,attr"`
	RenderOrder     string         `xml:"renderorder,attr,omitempty"`
	Width           int            `xml:"width,attr"`
	Height          int            `xml:"height,attr"`
	TileWidth       int            `xml:"tilewidth,attr"`
	TileHeight      int            `xml:"tileheight,attr"`
	HexSideLength   int            `xml:"hexsidelength,attr,omitempty"`
	StaggerAxis     string         `xml:"staggeraxis,attr,omitempty"`
	StaggerIndex    string         `xml:"staggerindex,attr,omitempty"`
	Infinite        int            `xml:"infinite,attr"`
	BackgroundColor string         `xml:"backgroundcolor,attr,omitempty"`
	NextLayerID     int            `xml:"nextlayerid,attr,omitempty"`
	NextObjectID    int            `xml:"nextobjectid,attr,omitempty"`
	Properties      *xmlProperties `xml:"properties"`
	Tilesets        []xmlTileset   `xml:"tileset"`
	Layers          []xmlLayer     `xml:",any"`
}

type xmlTileset struct {
	XMLName      xml.Name       `xml:"tileset"`
	FirstGID     uint32         `xml:"firstgid,attr,omitempty"`
	Source       string         `xml:"source,attr,omitempty"`
	Version      string         `xml:"version,attr,omitempty"`
	TiledVersion string         `xml:"tiledversion,attr,omitempty"`
	Name         string         `xml:"name,attr,omitempty"`
	Class        string         `xml:"class,attr,omitempty"`
	TileWidth    int            `xml:"tilewidth,attr,omitempty"`
	TileHeight   int            `xml:"tileheight,attr,omitempty"`
	Spacing      int            `xml:"spacing,attr,omitempty"`
	Margin       int            `xml:"margin,attr,omitempty"`
	TileCount    int            `xml:"tilecount,attr,omitempty"`
	Columns      int            `xml:"columns,attr,omitempty"`
	TileOffset   *xmlTileOffset `xml:"tileoffset"`
	Properties   *xmlProperties `xml:"properties"`
	Image        *xmlImage      `xml:"image"`
	Tiles        []xmlTile      `xml:"tile"`
}

type xmlTileOffset struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type xmlImage struct {
	Source string `xml:"source,attr"`
	Format string `xml:"format,attr,omitempty"`
	Trans  string `xml:"trans,attr,omitempty"`
	Width  int    `xml:"width,attr,omitempty"`
	Height int    `xml:"height,attr,omitempty"`
}

type xmlTile struct {
	ID          uint32         `xml:"id,attr"`
	Type        string         `xml:"type,attr,omitempty"`
	Class       string         `xml:"class,attr,omitempty"`
	Probability float64        `xml:"probability,attr,omitempty"`
	Properties  *xmlProperties `xml:"properties"`
	Image       *xmlImage      `xml:"image"`
	Animation   *xmlAnimation  `xml:"animation"`
}

type xmlAnimation struct {
	Frames []xmlFrame `xml:"frame"`
}

type xmlFrame struct {
	TileID   uint32 `xml:"tileid,attr"`
	Duration int    `xml:"duration,attr"`
}

// xmlLayer covers layer, objectgroup, group and imagelayer; XMLName tells
// them apart. Children of a group arrive through the ",any" field in
// document order.
type xmlLayer struct {
	XMLName    xml.Name
	ID         int            `xml:"id,attr,omitempty"`
	Name       string         `xml:"name,attr"`
	Class      string         `xml:"class,attr,omitempty"`
	Width      int            `xml:"width,attr,omitempty"`
	Height     int            `xml:"height,attr,omitempty"`
	Color      string         `xml:"color,attr,omitempty"`
	TintColor  string         `xml:"tintcolor,attr,omitempty"`
	Visible    *int           `xml:"visible,attr,omitempty"`
	Opacity    *float64       `xml:"opacity,attr,omitempty"`
	OffsetX    float64        `xml:"offsetx,attr,omitempty"`
	OffsetY    float64        `xml:"offsety,attr,omitempty"`
	ParallaxX  *float64       `xml:"parallaxx,attr,omitempty"`
	ParallaxY  *float64       `xml:"parallaxy,attr,omitempty"`
	DrawOrder  string         `xml:"draworder,attr,omitempty"`
	Properties *xmlProperties `xml:"properties"`
	Data       *xmlData       `xml:"data"`
	Objects    []xmlObject    `xml:"object"`
	Layers     []xmlLayer     `xml:",any"`
}

type xmlData struct {
	Encoding    string        `xml:"encoding,attr,omitempty"`
	Compression string        `xml:"compression,attr,omitempty"`
	Tiles       []xmlDataTile `xml:"tile"`
	Chunks      []xmlChunk    `xml:"chunk"`
	Text        string        `xml:",chardata"`
}

type xmlDataTile struct {
	GID uint32 `xml:"gid,attr,omitempty"`
}

type xmlChunk struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type xmlObject struct {
	ID         int            `xml:"id,attr,omitempty"`
	Name       string         `xml:"name,attr,omitempty"`
	Type       string         `xml:"type,attr,omitempty"`
	Class      string         `xml:"class,attr,omitempty"`
	GID        uint32         `xml:"gid,attr,omitempty"`
	X          float64        `xml:"x,attr"`
	Y          float64        `xml:"y,attr"`
	Width      float64        `xml:"width,attr,omitempty"`
	Height     float64        `xml:"height,attr,omitempty"`
	Rotation   float64        `xml:"rotation,attr,omitempty"`
	Visible    *int           `xml:"visible,attr,omitempty"`
	Properties *xmlProperties `xml:"properties"`
	Ellipse    *xmlMarker     `xml:"ellipse"`
	Point      *xmlMarker     `xml:"point"`
	Polygon    *xmlPoints     `xml:"polygon"`
	Polyline   *xmlPoints     `xml:"polyline"`
}

type xmlMarker struct{}

type xmlPoints struct {
	Points string `xml:"points,attr"`
}

type xmlProperties struct {
	Properties []xmlProperty `xml:"property"`
}

// Multi-line string values are stored as element text instead of the value
// attribute.
type xmlProperty struct {
	Name         string  `xml:"name,attr"`
	Type         string  `xml:"type,attr,omitempty"`
	PropertyType string  `xml:"propertytype,attr,omitempty"`
	Value        *string `xml:"value,attr,omitempty"`
	Text         string  `xml:",chardata"`
}

func decodeProperties(xp *xmlProperties) (Properties, error) {
	if xp == nil {
		return nil, nil
	}
	props := make(Properties, 0, len(xp.Properties))
	for _, raw := range xp.Properties {
		literal := raw.Text
		if raw.Value != nil {
			literal = *raw.Value
		}
		p, err := ParseProperty(raw.Name, raw.Type, literal)
		if err != nil {
			return nil, err
		}
		p.PropertyType = raw.PropertyType
		props.Set(p)
	}
	return props, nil
}

func encodeProperties(props Properties) *xmlProperties {
	if len(props) == 0 {
		return nil
	}
	xp := &xmlProperties{Properties: make([]xmlProperty, len(props))}
	for i, p := range props {
		raw := xmlProperty{Name: p.Name, PropertyType: p.PropertyType}
		if p.Type != StringProperty {
			raw.Type = string(p.Type)
		}
		literal := p.Literal()
		if strings.Contains(literal, "\n") {
			raw.Text = literal
		} else {
			raw.Value = &literal
		}
		xp.Properties[i] = raw
	}
	return xp
}
