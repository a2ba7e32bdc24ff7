package tmx

import (
	"errors"
	"testing"
)

func TestParseProperty(t *testing.T) {
	tests := []struct {
		typ, literal string
		check        func(Property) bool
	}{
		{"", "hello", func(p Property) bool { return p.Type == StringProperty && p.String == "hello" }},
		{"string", "", func(p Property) bool { return p.String == "" }},
		{"int", "-12", func(p Property) bool { return p.Int == -12 }},
		{"float", "2.5", func(p Property) bool { return p.Float == 2.5 }},
		{"bool", "true", func(p Property) bool { return p.Bool }},
		{"bool", "false", func(p Property) bool { return p.Type == BoolProperty && !p.Bool }},
		{"color", "#80ff0000", func(p Property) bool { return p.Color == NewColor(0x80, 0xff, 0, 0) }},
		{"color", "#00ff00", func(p Property) bool { return p.Color == NewColor(0xff, 0, 0xff, 0) }},
		{"color", "", func(p Property) bool { return !p.Color.IsSet() }},
		{"file", "../tiles/a.png", func(p Property) bool { return p.String == "../tiles/a.png" }},
		{"object", "12", func(p Property) bool { return p.Object == 12 }},
		{"object", "", func(p Property) bool { return p.Object == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"="+tt.literal, func(t *testing.T) {
			p, err := ParseProperty("p", tt.typ, tt.literal)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !tt.check(p) {
				t.Fatalf("unexpected value %+v", p)
			}
			again, err := ParseProperty("p", string(p.Type), p.Literal())
			if err != nil {
				t.Fatalf("reparse %q: %v", p.Literal(), err)
			}
			if again != p {
				t.Errorf("literal round trip: got %+v, want %+v", again, p)
			}
		})
	}
}

func TestParsePropertyRejectsMalformedLiterals(t *testing.T) {
	tests := []struct{ typ, literal string }{
		{"bool", "True"},
		{"bool", "1"},
		{"bool", ""},
		{"int", "1.5"},
		{"int", "0x10"},
		{"int", ""},
		{"float", "one"},
		{"color", "#12345"},
		{"color", "#gg000000"},
		{"object", "-1"},
		{"class", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"="+tt.literal, func(t *testing.T) {
			_, err := ParseProperty("solid", tt.typ, tt.literal)
			if !errors.Is(err, ErrPropertyType) {
				t.Fatalf("got %v, want a property type error", err)
			}
			var pe *PropertyTypeError
			if !errors.As(err, &pe) || pe.Name != "solid" {
				t.Errorf("error does not name the property: %v", err)
			}
		})
	}
}

func TestObjectReferenceLiteral(t *testing.T) {
	tests := []struct {
		literal string
		want    string
	}{
		{"", ""},
		{"0", ""},
		{"7", "7"},
	}

	for _, tt := range tests {
		t.Run("object="+tt.literal, func(t *testing.T) {
			p, err := ParseProperty("target", "object", tt.literal)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := p.Literal(); got != tt.want {
				t.Errorf("Literal() = %q, want %q", got, tt.want)
			}
			again, err := ParseProperty("target", "object", p.Literal())
			if err != nil || again.Object != p.Object {
				t.Errorf("reparse = %d, %v; want %d", again.Object, err, p.Object)
			}
		})
	}
}

func TestPropertiesAccessors(t *testing.T) {
	var props Properties
	props.Set(BoolProp("solid", true))
	props.Set(IntProp("flags", 6))
	props.Set(FloatProp("speed", 0.5))
	props.Set(StringProp("kind", "wall"))
	props.Set(BoolProp("solid", false))

	if len(props) != 4 {
		t.Fatalf("Set should replace by name, got %d properties", len(props))
	}
	if props.GetBool("solid") {
		t.Error("solid should have been replaced with false")
	}
	if props.GetInt("flags") != 6 {
		t.Errorf("GetInt(flags) = %d", props.GetInt("flags"))
	}
	if props.GetFloat("flags") != 6 || props.GetFloat("speed") != 0.5 {
		t.Error("GetFloat should read int and float properties")
	}
	if props.GetString("kind") != "wall" || props.GetString("flags") != "" {
		t.Error("GetString should only read string properties")
	}
	if props.Has("missing") {
		t.Error("Has(missing) = true")
	}
}

func TestHeightLevel(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
		level int
		ok    bool
		err   bool
	}{
		{"absent", nil, 0, false, false},
		{"int Z", Properties{IntProp("Z", -1)}, -1, true, false},
		{"lowercase z", Properties{IntProp("z", 2)}, 2, true, false},
		{"level", Properties{IntProp("level", 3)}, 3, true, false},
		{"Z wins over level", Properties{IntProp("level", 3), IntProp("Z", 1)}, 1, true, false},
		{"float truncates", Properties{FloatProp("z", -1.7)}, -1, true, false},
		{"string decimal", Properties{StringProp("Z", "4")}, 4, true, false},
		{"string hex", Properties{StringProp("Z", "0x10")}, 16, true, false},
		{"string garbage", Properties{StringProp("Z", "up")}, 0, true, true},
		{"bool", Properties{BoolProp("Z", true)}, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewTileLayer("l", 1, 1)
			l.Properties = tt.props
			level, ok, err := l.HeightLevel()
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if tt.err {
				if !errors.Is(err, ErrPropertyType) {
					t.Errorf("got %v, want a property type error", err)
				}
				return
			}
			if level != tt.level || ok != tt.ok {
				t.Errorf("got (%d, %v), want (%d, %v)", level, ok, tt.level, tt.ok)
			}
		})
	}
}
