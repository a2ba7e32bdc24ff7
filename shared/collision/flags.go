// Package collision derives the per-cell flag grid from a tile grid and the
// tile metadata of its tilesets.
package collision

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/automoto/tmxworld/shared/tmx"
)

// Flags is the bit field stored per cell. Only Solid blocks movement.
type Flags uint16

const (
	Solid Flags = 1 << iota
	Water
	Ladder
	Damage
	Slow
	OneWay
)

// FlagsProperty is the int tile property whose value is OR-ed in as raw bits.
const FlagsProperty = "flags"

func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, e := range DefaultFlagTable().entries() {
		if f&e.flag != 0 {
			parts = append(parts, e.name)
			f &^= e.flag
		}
	}
	if f != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint16(f)))
	}
	return strings.Join(parts, "|")
}

// FlagTable maps bool tile property names to the bit they set.
type FlagTable map[string]Flags

func DefaultFlagTable() FlagTable {
	return FlagTable{
		"solid":  Solid,
		"water":  Water,
		"ladder": Ladder,
		"damage": Damage,
		"slow":   Slow,
		"oneway": OneWay,
	}
}

type tableEntry struct {
	name string
	flag Flags
}

func (t FlagTable) entries() []tableEntry {
	out := make([]tableEntry, 0, len(t))
	for name, f := range t {
		out = append(out, tableEntry{name, f})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].flag != out[j].flag {
			return out[i].flag < out[j].flag
		}
		return out[i].name < out[j].name
	})
	return out
}

// TileFlags combines the flags a tile's properties contribute. Properties
// that are absent, false, or not in the table contribute nothing.
func (t FlagTable) TileFlags(props tmx.Properties) Flags {
	var f Flags
	for _, p := range props {
		switch p.Type {
		case tmx.BoolProperty:
			if p.Bool {
				f |= t[p.Name]
			}
		case tmx.IntProperty:
			if p.Name == FlagsProperty {
				f |= Flags(uint16(p.Int))
			}
		}
	}
	return f
}

type flagTableFile struct {
	// Bits maps a property name to a bit position in [0, 16).
	Bits map[string]uint `yaml:"bits"`
	// Extend keeps the default table and adds Bits on top.
	Extend bool `yaml:"extend"`
}

// LoadFlagTable reads a YAML flag table:
//
//	extend: true
//	bits:
//	  lava: 6
//	  ice: 7
func LoadFlagTable(r io.Reader) (FlagTable, error) {
	var file flagTableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return DefaultFlagTable(), nil
		}
		return nil, fmt.Errorf("decode flag table: %w", err)
	}

	table := FlagTable{}
	if file.Extend {
		table = DefaultFlagTable()
	}
	for name, bit := range file.Bits {
		if bit >= 16 {
			return nil, fmt.Errorf("flag %q: bit %d out of range [0,16)", name, bit)
		}
		table[name] = Flags(1) << bit
	}
	return table, nil
}

// ReadFlagTable loads a YAML flag table from disk.
func ReadFlagTable(path string) (FlagTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flag table: %w", err)
	}
	defer f.Close()
	return LoadFlagTable(f)
}
