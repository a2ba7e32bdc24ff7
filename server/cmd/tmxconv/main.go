// Command tmxconv rewrites a TMX map with a chosen tile data encoding.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/automoto/tmxworld/config"
	"github.com/automoto/tmxworld/shared/tmx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tmxconv: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("in", "", "Input TMX file")
	out := flag.String("out", "", "Output TMX file (default: overwrite input)")
	encoding := flag.String("encoding", "csv", `Tile data encoding: "csv", "base64" or "xml"`)
	compression := flag.String("compression", "", `Compression for base64: "zlib", "gzip", "zstd" or empty`)
	verbose := flag.Bool("v", false, "Debug logging")
	skipImages := flag.Bool("skip-images", false, "Convert even when tileset images are missing")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("-in is required")
	}
	if *out == "" {
		*out = *in
	}
	if *encoding == "xml" {
		*encoding = ""
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	log, err := config.NewLogger(config.LoggingConfig{Level: level, Format: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	enc, err := tmx.ParseEncoding(*encoding)
	if err != nil {
		return err
	}
	comp, err := tmx.ParseCompression(*compression)
	if err != nil {
		return err
	}

	doc, err := tmx.LoadFile(*in, tmx.WithLogger(log), tmx.WithImageCheck(!*skipImages))
	if err != nil {
		return err
	}
	if err := tmx.SaveFile(*out, doc, tmx.EncodeOptions{Encoding: enc, Compression: comp}); err != nil {
		return err
	}

	log.Info("converted",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.String("encoding", string(enc)),
		zap.String("compression", string(comp)),
		zap.Int("layers", len(doc.TileLayers())))
	return nil
}
