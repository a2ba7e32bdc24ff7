package tmx

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

const groundTSX = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="ground" tilewidth="32" tileheight="32" tilecount="4" columns="2">
 <image source="ground.png" width="64" height="64"/>
 <tile id="1" type="wall">
  <properties>
   <property name="solid" type="bool" value="true"/>
  </properties>
 </tile>
 <tile id="2">
  <properties>
   <property name="water" type="bool" value="true"/>
   <property name="note">first line
second line</property>
  </properties>
 </tile>
</tileset>
`

const testTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="3" height="2" tilewidth="32" tileheight="32" infinite="0" nextlayerid="6" nextobjectid="2">
 <properties>
  <property name="title" value="test"/>
  <property name="tint" type="color" value="#ff102030"/>
 </properties>
 <tileset firstgid="1" source="../tilesets/ground.tsx"/>
 <tileset firstgid="5" name="props" tilewidth="32" tileheight="32" tilecount="2" columns="0">
  <tile id="0"><image source="crate.png" width="32" height="32"/></tile>
  <tile id="1"><image source="barrel.png" width="32" height="32"/></tile>
 </tileset>
 <layer id="1" name="floor" width="3" height="2">
  <data encoding="csv">
1,1,1,
1,2,3
</data>
 </layer>
 <group id="2" name="upper">
  <properties>
   <property name="unused" type="int" value="7"/>
  </properties>
  <layer id="3" name="bridge" width="3" height="2" visible="0" opacity="0.5">
   <properties>
    <property name="Z" type="int" value="1"/>
   </properties>
   <data>
    <tile gid="2147483650"/><tile/><tile gid="5"/>
    <tile/><tile/><tile gid="6"/>
   </data>
  </layer>
 </group>
 <objectgroup id="4" name="spawns" color="#a0a0a4">
  <object id="1" name="p1" type="spawn" x="48" y="16" width="16" height="16">
   <properties>
    <property name="spawnIndex" type="int" value="0"/>
   </properties>
  </object>
  <object id="2" x="0" y="0">
   <polygon points="0,0 32,0 32,32"/>
  </object>
 </objectgroup>
 <imagelayer id="5" name="sky"><image source="sky.png"/></imagelayer>
</map>
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"maps/test.tmx":       {Data: []byte(testTMX)},
		"tilesets/ground.tsx": {Data: []byte(groundTSX)},
		"tilesets/ground.png": {Data: []byte("png")},
		"maps/crate.png":      {Data: []byte("png")},
		"maps/barrel.png":     {Data: []byte("png")},
	}
}

func TestLoad(t *testing.T) {
	doc, err := Load(testFS(), "maps/test.tmx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if doc.Width != 3 || doc.Height != 2 || doc.TileWidth != 32 {
		t.Fatalf("unexpected map header %+v", doc)
	}
	if doc.Properties.GetString("title") != "test" {
		t.Errorf("map property title = %q", doc.Properties.GetString("title"))
	}
	if c := doc.Properties.GetColor("tint"); c != NewColor(0xff, 0x10, 0x20, 0x30) {
		t.Errorf("map property tint = %v", c)
	}

	if len(doc.Tilesets) != 2 {
		t.Fatalf("got %d tilesets, want 2", len(doc.Tilesets))
	}
	ground := doc.Tilesets[0]
	if ground.Source != "../tilesets/ground.tsx" || ground.Name != "ground" || ground.TileCount != 4 {
		t.Errorf("external tileset not resolved: %+v", ground)
	}
	if tile, ok := ground.Tile(1); !ok || !tile.Properties.GetBool("solid") || tile.Type != "wall" {
		t.Errorf("tile 1 metadata lost: %+v", tile)
	}
	if tile, _ := ground.Tile(2); tile.Properties.GetString("note") != "first line\nsecond line" {
		t.Errorf("multi-line property = %q", tile.Properties.GetString("note"))
	}
	props := doc.Tilesets[1]
	if !props.IsCollection() || props.Tiles[1].Image.Source != "barrel.png" {
		t.Errorf("collection tileset decoded wrong: %+v", props)
	}

	ts, ok := doc.TilesetFor(6 | FlipVertical)
	if !ok || ts != props || ts.LocalID(6) != 1 {
		t.Errorf("TilesetFor(6) = %v, %v", ts, ok)
	}
	if _, ok := doc.TilesetFor(7); ok {
		t.Error("gid 7 is past every tileset")
	}

	bridge, ok := doc.LayerByName("bridge")
	if !ok {
		t.Fatal("bridge layer not found inside group")
	}
	if bridge.Visible || bridge.Opacity != 0.5 {
		t.Errorf("bridge visibility = %v opacity = %v", bridge.Visible, bridge.Opacity)
	}
	gid, err := bridge.TileAt(0, 0)
	if err != nil {
		t.Fatalf("TileAt: %v", err)
	}
	if gid.Base() != 2 || !gid.HorizontalFlip() {
		t.Errorf("flipped gid decoded as %#x", uint32(gid))
	}
	if level, ok, _ := bridge.HeightLevel(); !ok || level != 1 {
		t.Errorf("bridge height level = %d, %v", level, ok)
	}

	var paths []string
	for _, lp := range doc.TileLayers() {
		paths = append(paths, lp.Path)
	}
	if got := strings.Join(paths, ","); got != "floor,upper/bridge" {
		t.Errorf("tile layer paths = %s", got)
	}
	if got := len(doc.FlattenLayers()); got != 3 {
		t.Errorf("FlattenLayers returned %d layers, want 3", got)
	}

	spawns, _ := doc.LayerByName("spawns")
	if len(spawns.Objects) != 2 || spawns.Objects[0].Properties.GetInt("spawnIndex") != 0 || spawns.Objects[0].Type != "spawn" {
		t.Errorf("objects decoded wrong: %+v", spawns.Objects)
	}
	if poly := spawns.Objects[1].Polygon; len(poly) != 3 || poly[2] != (Point{32, 32}) {
		t.Errorf("polygon = %v", poly)
	}
	if _, ok := doc.LayerByName("sky"); ok {
		t.Error("image layers should be skipped")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(fstest.MapFS)
		target  error
		mention string
	}{
		{
			name:    "missing external tileset",
			mutate:  func(fsys fstest.MapFS) { delete(fsys, "tilesets/ground.tsx") },
			target:  ErrResourceNotFound,
			mention: "tilesets/ground.tsx",
		},
		{
			name: "bad bool literal",
			mutate: func(fsys fstest.MapFS) {
				fsys["tilesets/ground.tsx"].Data = []byte(strings.Replace(groundTSX, `value="true"`, `value="yes"`, 1))
			},
			target:  ErrPropertyType,
			mention: "solid",
		},
		{
			name: "unknown compression",
			mutate: func(fsys fstest.MapFS) {
				fsys["maps/test.tmx"].Data = []byte(strings.Replace(testTMX, `encoding="csv"`, `encoding="base64" compression="lzma"`, 1))
			},
			target:  ErrFormat,
			mention: "lzma",
		},
		{
			name: "data length mismatch",
			mutate: func(fsys fstest.MapFS) {
				fsys["maps/test.tmx"].Data = []byte(strings.Replace(testTMX, "1,2,3\n", "1,2\n", 1))
			},
			target:  ErrFormat,
			mention: "floor",
		},
		{
			name: "malformed markup",
			mutate: func(fsys fstest.MapFS) {
				fsys["maps/test.tmx"].Data = []byte(testTMX[:200])
			},
			target:  ErrFormat,
			mention: "maps/test.tmx",
		},
		{
			name: "overlapping tilesets",
			mutate: func(fsys fstest.MapFS) {
				fsys["maps/test.tmx"].Data = []byte(strings.Replace(testTMX, `firstgid="5"`, `firstgid="4"`, 1))
			},
			target:  ErrFormat,
			mention: "overlaps",
		},
		{
			name: "infinite map",
			mutate: func(fsys fstest.MapFS) {
				fsys["maps/test.tmx"].Data = []byte(strings.Replace(testTMX, `infinite="0"`, `infinite="1"`, 1))
			},
			target:  ErrFormat,
			mention: "infinite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS()
			tt.mutate(fsys)
			doc, err := Load(fsys, "maps/test.tmx")
			if doc != nil {
				t.Error("a failed load must not return a document")
			}
			if !errors.Is(err, tt.target) {
				t.Fatalf("got %v, want %v", err, tt.target)
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error %q does not mention %q", err, tt.mention)
			}
		})
	}
}

func TestLoadMissingMap(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "nowhere.tmx")
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("got %v, want a resource not found error", err)
	}
}

func TestImageCheck(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"collection tile image", "maps/crate.png"},
		{"external tileset image", "tilesets/ground.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS()
			delete(fsys, tt.missing)
			_, err := Load(fsys, "maps/test.tmx")
			if !errors.Is(err, ErrResourceNotFound) {
				t.Fatalf("got %v, want a resource not found error", err)
			}
			var rnf *ResourceNotFoundError
			if !errors.As(err, &rnf) || rnf.Path != tt.missing {
				t.Errorf("error %v does not name %s", err, tt.missing)
			}
			if _, err := Load(fsys, "maps/test.tmx", WithImageCheck(false)); err != nil {
				t.Errorf("check off, got %v", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src, err := Load(testFS(), "maps/test.tmx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []EncodeOptions{
		{Encoding: EncodingXML},
		{Encoding: EncodingCSV},
		{Encoding: EncodingBase64},
		{Encoding: EncodingBase64, Compression: CompressionZlib},
		{Encoding: EncodingBase64, Compression: CompressionGzip},
		{Encoding: EncodingBase64, Compression: CompressionZstd},
		{KeepLayerEncoding: true},
	}

	for _, opts := range tests {
		t.Run(string(opts.Encoding)+"/"+string(opts.Compression), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, opts); err != nil {
				t.Fatalf("encode: %v", err)
			}
			fsys := testFS()
			fsys["maps/test.tmx"].Data = buf.Bytes()
			got, err := Load(fsys, "maps/test.tmx")
			if err != nil {
				t.Fatalf("reload: %v\n%s", err, buf.String())
			}

			want := src.TileLayers()
			have := got.TileLayers()
			if len(have) != len(want) {
				t.Fatalf("got %d tile layers, want %d", len(have), len(want))
			}
			for i := range want {
				if have[i].Path != want[i].Path {
					t.Errorf("layer %d path = %s, want %s", i, have[i].Path, want[i].Path)
				}
				for j, g := range want[i].Layer.Tiles {
					if have[i].Layer.Tiles[j] != g {
						t.Errorf("%s cell %d = %#x, want %#x", want[i].Path, j, uint32(have[i].Layer.Tiles[j]), uint32(g))
					}
				}
			}

			if got.Tilesets[0].Source != "../tilesets/ground.tsx" {
				t.Errorf("external tileset reference lost")
			}
			if c := got.Properties.GetColor("tint"); c != src.Properties.GetColor("tint") {
				t.Errorf("color property = %v", c)
			}
			if p, _ := got.LayerByName("upper"); p.Properties[0].Type != IntProperty {
				t.Errorf("group property type tag lost: %+v", p.Properties)
			}
			bridge, _ := got.LayerByName("bridge")
			if bridge.Visible || bridge.Opacity != 0.5 {
				t.Errorf("bridge visibility lost")
			}
		})
	}
}

func TestEncodeRejectsCompressedCSV(t *testing.T) {
	doc := NewDocument(1, 1, 16, 16)
	doc.AddLayer(NewTileLayer("a", 1, 1))
	err := Encode(&bytes.Buffer{}, doc, EncodeOptions{Encoding: EncodingCSV, Compression: CompressionGzip})
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want a format error", err)
	}
}

func TestWriteTileset(t *testing.T) {
	doc, err := Load(testFS(), "maps/test.tmx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteTileset(&buf, doc.Tilesets[0]); err != nil {
		t.Fatalf("write: %v", err)
	}

	fsys := testFS()
	fsys["tilesets/ground.tsx"].Data = buf.Bytes()
	again, err := Load(fsys, "maps/test.tmx")
	if err != nil {
		t.Fatalf("reload with rewritten tileset: %v\n%s", err, buf.String())
	}
	tile, ok := again.Tilesets[0].Tile(1)
	if !ok || !tile.Properties.GetBool("solid") {
		t.Errorf("solid flag lost through WriteTileset")
	}
	if strings.Contains(buf.String(), "firstgid") {
		t.Errorf("standalone tileset must not carry firstgid:\n%s", buf.String())
	}
}

func TestNewDocumentAssignsIDs(t *testing.T) {
	doc := NewDocument(4, 4, 32, 32)
	doc.AddTileset(&Tileset{Name: "a", TileCount: 10})
	doc.AddTileset(&Tileset{Name: "b", TileCount: 3})
	if doc.Tilesets[1].FirstGID != 11 {
		t.Errorf("second tileset firstgid = %d, want 11", doc.Tilesets[1].FirstGID)
	}

	ground := NewTileLayer("ground", 4, 4)
	doc.AddLayer(NewGroup("g", ground, NewObjectGroup("objs", NewObject("o", 0, 0, 1, 1))))
	if ground.ID == 0 || doc.Layers[0].ID == ground.ID {
		t.Errorf("layer ids not assigned: group %d, ground %d", doc.Layers[0].ID, ground.ID)
	}
	if doc.Layers[0].Layers[1].Objects[0].ID != 1 {
		t.Errorf("object id not assigned")
	}

	if err := ground.SetTileAt(4, 0, 1); !errors.Is(err, ErrIndex) {
		t.Errorf("SetTileAt out of range: got %v", err)
	}
	if err := ground.SetTileAt(3, 3, 12|FlipVertical); err != nil {
		t.Fatalf("SetTileAt: %v", err)
	}
	if g, _ := ground.TileAt(3, 3); g != 12|FlipVertical {
		t.Errorf("TileAt = %#x", uint32(g))
	}
}
