package tmx

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Encoding selects how tile-layer cells are written inside <data>.
type Encoding string

const (
	// EncodingXML writes one <tile gid="..."/> element per cell.
	EncodingXML    Encoding = ""
	EncodingCSV    Encoding = "csv"
	EncodingBase64 Encoding = "base64"
)

// Compression applies to base64 payloads only.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZlib Compression = "zlib"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingXML, EncodingCSV, EncodingBase64:
		return e, nil
	}
	return "", formatErrorf("unknown data encoding %q", s)
}

func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case CompressionNone, CompressionZlib, CompressionGzip, CompressionZstd:
		return c, nil
	}
	return "", formatErrorf("unknown data compression %q", s)
}

// Payload is the content of one <data> element. Text carries csv and base64
// content; Tiles carries the per-cell elements of the plain XML encoding.
type Payload struct {
	Encoding    Encoding
	Compression Compression
	Text        string
	Tiles       []GID
}

func checkCombination(enc Encoding, comp Compression) error {
	if _, err := ParseEncoding(string(enc)); err != nil {
		return err
	}
	if _, err := ParseCompression(string(comp)); err != nil {
		return err
	}
	if comp != CompressionNone && enc != EncodingBase64 {
		return formatErrorf("compression %q requires base64 encoding, got %q", comp, enc)
	}
	return nil
}

// DecodeData returns the raw cell values of a payload, flip flags included.
func DecodeData(p Payload) ([]GID, error) {
	if err := checkCombination(p.Encoding, p.Compression); err != nil {
		return nil, err
	}

	switch p.Encoding {
	case EncodingXML:
		out := make([]GID, len(p.Tiles))
		copy(out, p.Tiles)
		return out, nil
	case EncodingCSV:
		return decodeCSV(p.Text)
	default:
		return decodeBase64(p.Text, p.Compression)
	}
}

// EncodeData renders cells under the given encoding. width only shapes the
// CSV line breaks.
func EncodeData(gids []GID, enc Encoding, comp Compression, width int) (Payload, error) {
	if err := checkCombination(enc, comp); err != nil {
		return Payload{}, err
	}
	p := Payload{Encoding: enc, Compression: comp}

	switch enc {
	case EncodingXML:
		p.Tiles = make([]GID, len(gids))
		copy(p.Tiles, gids)
	case EncodingCSV:
		p.Text = encodeCSV(gids, width)
	default:
		text, err := encodeBase64(gids, comp)
		if err != nil {
			return Payload{}, err
		}
		p.Text = text
	}
	return p, nil
}

// decodeCSV accepts one trailing comma. Any other empty field is an error,
// since skipping it would shift every later cell.
func decodeCSV(text string) ([]GID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	fields := strings.Split(strings.TrimSuffix(text, ","), ",")
	out := make([]GID, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, formatErrorf("csv cell %d is empty", len(out))
		}
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, &FormatError{Msg: fmt.Sprintf("csv cell %d", len(out)), Err: err}
		}
		out = append(out, GID(v))
	}
	return out, nil
}

func encodeCSV(gids []GID, width int) string {
	if width <= 0 {
		width = len(gids)
	}
	var b strings.Builder
	b.WriteByte('\n')
	for i, g := range gids {
		b.WriteString(strconv.FormatUint(uint64(g), 10))
		if i == len(gids)-1 {
			break
		}
		b.WriteByte(',')
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func decodeBase64(text string, comp Compression) ([]GID, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, &FormatError{Msg: "base64 payload", Err: err}
	}

	raw, err = decompress(raw, comp)
	if err != nil {
		return nil, &FormatError{Msg: fmt.Sprintf("%s payload", comp), Err: err}
	}

	if len(raw)%4 != 0 {
		return nil, formatErrorf("tile payload of %d bytes is not a multiple of 4", len(raw))
	}
	out := make([]GID, len(raw)/4)
	for i := range out {
		out[i] = GID(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

func encodeBase64(gids []GID, comp Compression) (string, error) {
	raw := make([]byte, len(gids)*4)
	for i, g := range gids {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(g))
	}

	raw, err := compress(raw, comp)
	if err != nil {
		return "", fmt.Errorf("compress %s: %w", comp, err)
	}
	return "\n" + base64.StdEncoding.EncodeToString(raw) + "\n", nil
}

func decompress(raw []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(raw, nil)
	}
	return raw, nil
}

func compress(raw []byte, comp Compression) ([]byte, error) {
	var buf bytes.Buffer
	switch comp {
	case CompressionZlib:
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		e, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer e.Close()
		return e.EncodeAll(raw, nil), nil
	}
	return raw, nil
}
