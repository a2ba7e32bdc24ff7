package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/automoto/tmxworld/shared/collision"
	"github.com/automoto/tmxworld/shared/tmx"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.World.SkipImageCheck {
		t.Error("missing tileset images must fail by default")
	}
	opts, err := cfg.EncodeOptions()
	if err != nil || opts.Encoding != tmx.EncodingCSV || opts.Compression != tmx.CompressionNone {
		t.Errorf("EncodeOptions = %+v, %v", opts, err)
	}
	table, err := cfg.FlagTable()
	if err != nil || table["solid"] != collision.Solid {
		t.Errorf("FlagTable = %v, %v", table, err)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse(`
[world]
map = "levels/yard.tmx"
skip_image_check = true

[movement]
box_width = 1.0
max_speed = 4.0

[codec]
encoding = "base64"
compression = "zstd"

[server]
tick_rate = 60
watch = true
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.World.Map != "levels/yard.tmx" || !cfg.World.SkipImageCheck || cfg.Server.TickRate != 60 || !cfg.Server.Watch {
		t.Errorf("overlay not applied: %+v", cfg)
	}
	if box := cfg.Box(); box.Width != 1 || box.Depth != 0.5 || box.Height != 0.85 {
		t.Errorf("Box = %+v, want width overridden only", box)
	}
	if cfg.Movement.Friction != 0.5 || cfg.Movement.SubSteps != 3 {
		t.Errorf("defaults lost: %+v", cfg.Movement)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	opts, _ := cfg.EncodeOptions()
	if opts.Encoding != tmx.EncodingBase64 || opts.Compression != tmx.CompressionZstd {
		t.Errorf("EncodeOptions = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"syntax", "[world\n", "parse"},
		{"unknown key", "[world]\nmapp = \"x\"\n", "unknown key"},
		{"tick rate", "[server]\ntick_rate = 0\n", "tick_rate"},
		{"box", "[movement]\nbox_height = -1.0\n", "box sizes"},
		{"sub steps", "[movement]\nsub_steps = 0\n", "sub_steps"},
		{"encoding", "[codec]\nencoding = \"yaml\"\n", "codec"},
		{"compression", "[codec]\ncompression = \"lzma\"\n", "codec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	flags := filepath.Join(dir, "flags.yaml")
	if err := os.WriteFile(flags, []byte("extend: true\nbits:\n  lava: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "server.toml")
	text := "[world]\nflag_table = " + `"` + filepath.ToSlash(flags) + `"` + "\n[logging]\nformat = \"json\"\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := cfg.FlagTable()
	if err != nil {
		t.Fatalf("FlagTable: %v", err)
	}
	if table["lava"] != collision.Flags(1)<<6 || table["solid"] != collision.Solid {
		t.Errorf("FlagTable = %v", table)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want ErrNotExist", err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, cfg := range []LoggingConfig{
		{Level: "debug", Format: "json"},
		{Level: "warn", Format: "console"},
		{Level: "bogus"},
	} {
		log, err := NewLogger(cfg)
		if err != nil {
			t.Fatalf("NewLogger(%+v): %v", cfg, err)
		}
		_ = log.Sync()
	}
}
