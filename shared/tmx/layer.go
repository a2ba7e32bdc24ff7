package tmx

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

type LayerKind int

const (
	TileLayerKind LayerKind = iota
	ObjectGroupKind
	GroupKind
)

func (k LayerKind) String() string {
	switch k {
	case TileLayerKind:
		return "layer"
	case ObjectGroupKind:
		return "objectgroup"
	case GroupKind:
		return "group"
	}
	return "LayerKind(" + strconv.Itoa(int(k)) + ")"
}

// HeightLevelKeys are the property names read as a layer's height level, in
// lookup order.
var HeightLevelKeys = []string{"Z", "z", "level"}

// Layer is a node of the layer tree. Kind selects which of the variant fields
// are in use.
type Layer struct {
	Kind LayerKind

	ID         int
	Name       string
	Class      string
	Visible    bool
	Opacity    float64
	OffsetX    float64
	OffsetY    float64
	ParallaxX  float64
	ParallaxY  float64
	TintColor  string
	Properties Properties

	// Tile layers. Tiles is row-major, Width*Height long, flip flags kept.
	// Encoding and Compression record how the payload was stored on load.
	Width       int
	Height      int
	Tiles       []GID
	Encoding    Encoding
	Compression Compression

	// Object groups.
	Color     string
	DrawOrder string
	Objects   []*Object

	// Groups.
	Layers []*Layer
}

func newLayer(kind LayerKind, name string) *Layer {
	return &Layer{
		Kind:      kind,
		Name:      name,
		Visible:   true,
		Opacity:   1,
		ParallaxX: 1,
		ParallaxY: 1,
	}
}

// NewTileLayer returns a zero-filled tile layer of w x h cells.
func NewTileLayer(name string, w, h int) *Layer {
	l := newLayer(TileLayerKind, name)
	l.Width = w
	l.Height = h
	l.Tiles = make([]GID, w*h)
	return l
}

func NewObjectGroup(name string, objects ...*Object) *Layer {
	l := newLayer(ObjectGroupKind, name)
	l.Objects = objects
	return l
}

func NewGroup(name string, children ...*Layer) *Layer {
	l := newLayer(GroupKind, name)
	l.Layers = children
	return l
}

func (l *Layer) TileAt(col, row int) (GID, error) {
	if err := l.checkCell("TileAt", col, row); err != nil {
		return 0, err
	}
	return l.Tiles[row*l.Width+col], nil
}

func (l *Layer) SetTileAt(col, row int, gid GID) error {
	if err := l.checkCell("SetTileAt", col, row); err != nil {
		return err
	}
	l.Tiles[row*l.Width+col] = gid
	return nil
}

func (l *Layer) checkCell(op string, col, row int) error {
	if l.Kind != TileLayerKind {
		return formatErrorf("%s on %s %q", op, l.Kind, l.Name)
	}
	return CheckIndex(op, []int{col, row}, []int{l.Width, l.Height})
}

// HeightLevel returns the layer's height level property. ok is false when
// none of HeightLevelKeys is present. Floats are truncated toward zero and
// strings are parsed as integers with an optional base prefix.
func (l *Layer) HeightLevel() (level int, ok bool, err error) {
	for _, key := range HeightLevelKeys {
		p, found := l.Properties.Get(key)
		if !found {
			continue
		}
		switch p.Type {
		case IntProperty:
			return int(p.Int), true, nil
		case FloatProperty:
			if math.IsNaN(p.Float) || math.IsInf(p.Float, 0) {
				return 0, true, &PropertyTypeError{Name: key, Type: string(p.Type), Value: p.Literal(), Err: errors.New("not a finite level")}
			}
			return int(p.Float), true, nil
		case StringProperty:
			v, perr := strconv.ParseInt(strings.TrimSpace(p.String), 0, 64)
			if perr != nil {
				return 0, true, &PropertyTypeError{Name: key, Type: string(p.Type), Value: p.String, Err: perr}
			}
			return int(v), true, nil
		default:
			return 0, true, &PropertyTypeError{Name: key, Type: string(p.Type), Value: p.Literal(), Err: errors.New("height level must be int, float or string")}
		}
	}
	return 0, false, nil
}

// Point is a vertex of a polygon or polyline, relative to its object.
type Point struct {
	X, Y float64
}

// Object is one entry of an object group.
type Object struct {
	ID       int
	Name     string
	Type     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	// GID is set for tile objects; flip flags are kept.
	GID      GID
	Visible  bool
	Ellipse  bool
	Point    bool
	Polygon  []Point
	Polyline []Point

	Properties Properties
}

func NewObject(name string, x, y, w, h float64) *Object {
	return &Object{Name: name, X: x, Y: y, Width: w, Height: h, Visible: true}
}

func parsePoints(s string) ([]Point, error) {
	var pts []Point
	for _, pair := range strings.Fields(s) {
		xs, ys, found := strings.Cut(pair, ",")
		if !found {
			return nil, formatErrorf("malformed point %q", pair)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, &FormatError{Msg: "point x", Err: err}
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, &FormatError{Msg: "point y", Err: err}
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts, nil
}

func formatPoints(pts []Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
