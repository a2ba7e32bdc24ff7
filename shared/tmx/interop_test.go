package tmx

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/lafriks/go-tiled"
)

// go-tiled is an independent reader; whatever Encode writes must decode to
// the same cells there.
func TestEncodeReadableByGoTiled(t *testing.T) {
	doc := NewDocument(4, 3, 16, 16)
	doc.AddTileset(&Tileset{
		Name:       "terrain",
		TileWidth:  16,
		TileHeight: 16,
		TileCount:  8,
		Columns:    4,
		Image:      &Image{Source: "terrain.png", Width: 64, Height: 32},
	})
	layer := NewTileLayer("ground", 4, 3)
	copy(layer.Tiles, []GID{
		1, 2, 3, 4,
		5 | FlipHorizontal, 0, 6 | FlipVertical, 7 | FlipDiagonal,
		8, 0, 0, 1 | FlipHorizontal | FlipVertical,
	})
	doc.AddLayer(layer)

	tests := []EncodeOptions{
		{Encoding: EncodingCSV},
		{Encoding: EncodingBase64},
		{Encoding: EncodingBase64, Compression: CompressionZlib},
		{Encoding: EncodingBase64, Compression: CompressionGzip},
	}

	for _, opts := range tests {
		t.Run(string(opts.Encoding)+"/"+string(opts.Compression), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, doc, opts); err != nil {
				t.Fatalf("encode: %v", err)
			}

			fsys := fstest.MapFS{"m.tmx": {Data: buf.Bytes()}}
			m, err := tiled.LoadFile("m.tmx", tiled.WithFileSystem(fsys))
			if err != nil {
				t.Fatalf("go-tiled load: %v\n%s", err, buf.String())
			}
			if len(m.Layers) != 1 || len(m.Layers[0].Tiles) != len(layer.Tiles) {
				t.Fatalf("go-tiled saw %d layers", len(m.Layers))
			}

			for i, want := range layer.Tiles {
				got := m.Layers[0].Tiles[i]
				if want.IsEmpty() {
					if !got.IsNil() {
						t.Errorf("cell %d should be empty", i)
					}
					continue
				}
				if got.IsNil() {
					t.Fatalf("cell %d unexpectedly empty", i)
				}
				if base := got.Tileset.FirstGID + got.ID; base != uint32(want.Base()) {
					t.Errorf("cell %d: gid %d, want %d", i, base, want.Base())
				}
				if got.HorizontalFlip != want.HorizontalFlip() ||
					got.VerticalFlip != want.VerticalFlip() ||
					got.DiagonalFlip != want.DiagonalFlip() {
					t.Errorf("cell %d: flip flags differ", i)
				}
			}
		})
	}
}
