package tmx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PropertyType is the type tag carried by every custom property.
type PropertyType string

const (
	StringProperty PropertyType = "string"
	IntProperty    PropertyType = "int"
	FloatProperty  PropertyType = "float"
	BoolProperty   PropertyType = "bool"
	ColorProperty  PropertyType = "color"
	FileProperty   PropertyType = "file"
	ObjectProperty PropertyType = "object"
)

// ParsePropertyType maps a type attribute to its tag. An absent attribute
// means string.
func ParsePropertyType(s string) (PropertyType, bool) {
	switch PropertyType(s) {
	case "", StringProperty:
		return StringProperty, true
	case IntProperty, FloatProperty, BoolProperty, ColorProperty, FileProperty, ObjectProperty:
		return PropertyType(s), true
	}
	return "", false
}

// Color is an ARGB color. The zero value is the unset color, written as an
// empty literal.
type Color struct {
	A, R, G, B uint8
	set        bool
}

func NewColor(a, r, g, b uint8) Color {
	return Color{A: a, R: r, G: g, B: b, set: true}
}

func (c Color) IsSet() bool { return c.set }

// String renders #AARRGGBB, or "" for the unset color.
func (c Color) String() string {
	if !c.set {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}

var errColorLiteral = errors.New("want #AARRGGBB or #RRGGBB")

// ParseColor accepts #AARRGGBB, #RRGGBB (opaque) and the same forms without
// the leading '#'. The empty literal yields the unset color.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return Color{}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, errColorLiteral
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, errColorLiteral
	}
	if len(hex) == 6 {
		v |= 0xff000000
	}
	return NewColor(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Property is a closed union over the supported value types. Only the field
// matching Type is meaningful.
type Property struct {
	Name string
	Type PropertyType
	// PropertyType names a custom enum type for string and int values.
	PropertyType string

	String string // string, file
	Int    int64
	Float  float64
	Bool   bool
	Color  Color
	Object uint32 // 0 is no object, written as ""
}

func StringProp(name, v string) Property {
	return Property{Name: name, Type: StringProperty, String: v}
}

func IntProp(name string, v int64) Property {
	return Property{Name: name, Type: IntProperty, Int: v}
}

func FloatProp(name string, v float64) Property {
	return Property{Name: name, Type: FloatProperty, Float: v}
}

func BoolProp(name string, v bool) Property {
	return Property{Name: name, Type: BoolProperty, Bool: v}
}

func ColorProp(name string, v Color) Property {
	return Property{Name: name, Type: ColorProperty, Color: v}
}

func FileProp(name, path string) Property {
	return Property{Name: name, Type: FileProperty, String: path}
}

func ObjectProp(name string, id uint32) Property {
	return Property{Name: name, Type: ObjectProperty, Object: id}
}

// ParseProperty interprets a raw literal under the given type tag.
func ParseProperty(name, typ, literal string) (Property, error) {
	t, ok := ParsePropertyType(typ)
	if !ok {
		return Property{}, &PropertyTypeError{Name: name, Type: typ, Value: literal, Err: errors.New("unknown type tag")}
	}
	p := Property{Name: name, Type: t}
	fail := func(err error) (Property, error) {
		return Property{}, &PropertyTypeError{Name: name, Type: string(t), Value: literal, Err: err}
	}

	switch t {
	case StringProperty, FileProperty:
		p.String = literal
	case IntProperty:
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return fail(err)
		}
		p.Int = v
	case FloatProperty:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fail(err)
		}
		p.Float = v
	case BoolProperty:
		switch literal {
		case "true":
			p.Bool = true
		case "false":
		default:
			return fail(errors.New(`want "true" or "false"`))
		}
	case ColorProperty:
		c, err := ParseColor(literal)
		if err != nil {
			return fail(err)
		}
		p.Color = c
	case ObjectProperty:
		if literal == "" {
			break
		}
		v, err := strconv.ParseUint(literal, 10, 32)
		if err != nil {
			return fail(err)
		}
		p.Object = uint32(v)
	}
	return p, nil
}

// Literal renders the value in the grammar of its type tag.
func (p Property) Literal() string {
	switch p.Type {
	case IntProperty:
		return strconv.FormatInt(p.Int, 10)
	case FloatProperty:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	case BoolProperty:
		return strconv.FormatBool(p.Bool)
	case ColorProperty:
		return p.Color.String()
	case ObjectProperty:
		if p.Object == 0 {
			return ""
		}
		return strconv.FormatUint(uint64(p.Object), 10)
	}
	return p.String
}

// Value returns the typed payload as an interface value, for display.
func (p Property) Value() any {
	switch p.Type {
	case IntProperty:
		return p.Int
	case FloatProperty:
		return p.Float
	case BoolProperty:
		return p.Bool
	case ColorProperty:
		return p.Color
	case ObjectProperty:
		return p.Object
	}
	return p.String
}

// Properties keeps document order; names are unique.
type Properties []Property

func (ps Properties) Get(name string) (Property, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (ps Properties) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// GetString returns the value of a string or file property, or "".
func (ps Properties) GetString(name string) string {
	p, ok := ps.Get(name)
	if !ok || (p.Type != StringProperty && p.Type != FileProperty) {
		return ""
	}
	return p.String
}

func (ps Properties) GetInt(name string) int {
	p, ok := ps.Get(name)
	if !ok || p.Type != IntProperty {
		return 0
	}
	return int(p.Int)
}

func (ps Properties) GetFloat(name string) float64 {
	p, ok := ps.Get(name)
	if !ok {
		return 0
	}
	switch p.Type {
	case FloatProperty:
		return p.Float
	case IntProperty:
		return float64(p.Int)
	}
	return 0
}

func (ps Properties) GetBool(name string) bool {
	p, ok := ps.Get(name)
	return ok && p.Type == BoolProperty && p.Bool
}

func (ps Properties) GetColor(name string) Color {
	p, ok := ps.Get(name)
	if !ok || p.Type != ColorProperty {
		return Color{}
	}
	return p.Color
}

// Set replaces the property with the same name, or appends it.
func (ps *Properties) Set(p Property) {
	for i := range *ps {
		if (*ps)[i].Name == p.Name {
			(*ps)[i] = p
			return
		}
	}
	*ps = append(*ps, p)
}
