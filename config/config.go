package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/automoto/tmxworld/shared/collision"
	"github.com/automoto/tmxworld/shared/gamemath"
	"github.com/automoto/tmxworld/shared/tmx"
)

// Config is the server's configuration. Any key missing from the TOML file
// keeps its default.
type Config struct {
	World    WorldConfig    `toml:"world"`
	Movement MovementConfig `toml:"movement"`
	Codec    CodecConfig    `toml:"codec"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

// WorldConfig selects the map and how it is loaded.
type WorldConfig struct {
	// Map is a TMX file on disk. Empty serves the embedded sample level.
	Map string `toml:"map"`

	// FlagTable is a YAML file mapping tile property names to collision
	// bits. Empty means the built-in table.
	FlagTable      string `toml:"flag_table"`
	SkipImageCheck bool   `toml:"skip_image_check"`
}

// MovementConfig contains body size and physics values. Box sizes are in
// tiles and levels, speeds in pixels per tick.
type MovementConfig struct {
	BoxWidth  float64 `toml:"box_width"`
	BoxDepth  float64 `toml:"box_depth"`
	BoxHeight float64 `toml:"box_height"`
	Friction  float64 `toml:"friction"`
	MaxSpeed  float64 `toml:"max_speed"`
	SubSteps  int     `toml:"sub_steps"`
}

// CodecConfig is how the map is written back on save.
type CodecConfig struct {
	Encoding          string `toml:"encoding"`    // "csv", "base64" or "" for XML
	Compression       string `toml:"compression"` // "", "zlib", "gzip" or "zstd"
	KeepLayerEncoding bool   `toml:"keep_layer_encoding"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ServerConfig struct {
	TickRate int    `toml:"tick_rate"`
	Watch    bool   `toml:"watch"`
	SavePath string `toml:"save_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Movement: MovementConfig{
			BoxWidth:  gamemath.DefaultBox.Width,
			BoxDepth:  gamemath.DefaultBox.Depth,
			BoxHeight: gamemath.DefaultBox.Height,
			Friction:  0.5,
			MaxSpeed:  6.0,
			SubSteps:  3,
		},
		Codec: CodecConfig{
			Encoding: string(tmx.EncodingCSV),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			TickRate: 20,
		},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Movement.BoxWidth <= 0 || c.Movement.BoxDepth <= 0 || c.Movement.BoxHeight <= 0 {
		return fmt.Errorf("movement: box sizes must be positive")
	}
	if c.Movement.SubSteps < 1 {
		return fmt.Errorf("movement: sub_steps must be at least 1")
	}
	if c.Server.TickRate < 1 {
		return fmt.Errorf("server: tick_rate must be at least 1")
	}
	if _, err := c.EncodeOptions(); err != nil {
		return err
	}
	return nil
}

// Box returns the body box described by the movement section.
func (c *Config) Box() gamemath.Box {
	return gamemath.Box{
		Width:  c.Movement.BoxWidth,
		Depth:  c.Movement.BoxDepth,
		Height: c.Movement.BoxHeight,
	}
}

// EncodeOptions returns the codec section as TMX encode options.
func (c *Config) EncodeOptions() (tmx.EncodeOptions, error) {
	enc, err := tmx.ParseEncoding(c.Codec.Encoding)
	if err != nil {
		return tmx.EncodeOptions{}, fmt.Errorf("codec: %w", err)
	}
	comp, err := tmx.ParseCompression(c.Codec.Compression)
	if err != nil {
		return tmx.EncodeOptions{}, fmt.Errorf("codec: %w", err)
	}
	return tmx.EncodeOptions{Encoding: enc, Compression: comp, KeepLayerEncoding: c.Codec.KeepLayerEncoding}, nil
}

// FlagTable loads the configured flag table, or the built-in one.
func (c *Config) FlagTable() (collision.FlagTable, error) {
	if c.World.FlagTable == "" {
		return collision.DefaultFlagTable(), nil
	}
	return collision.ReadFlagTable(c.World.FlagTable)
}
