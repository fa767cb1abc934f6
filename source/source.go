// Package source loads plist documents for the command line tool: files,
// standard input and zstd or gzip compressed inputs, plus parallel parsing
// of many documents at once.
//
// Package plist itself does no I/O; this package is the collaborator that
// turns paths into text and text back into files.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/plist/plist"
)

// Stdin is the path that names standard input.
const Stdin = "-"

// MaxDocumentSize bounds the decompressed size of a document.
const MaxDocumentSize = 256 << 20

// ErrTooLarge is returned for documents over MaxDocumentSize.
var ErrTooLarge = errors.New("source: document too large")

// ============================================================
// Compression
// ============================================================

// Compression identifies how a document is stored on disk.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Detect sniffs the compression of raw file contents by magic bytes.
func Detect(raw []byte) Compression {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		return Zstd
	case bytes.HasPrefix(raw, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// zstdEncoder and zstdDecoder are shared; both are safe for concurrent use
// through EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("source: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDocumentSize))
	if err != nil {
		panic("source: zstd decoder initialization failed: " + err.Error())
	}
}

func decompress(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		out, err := zstdDecoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) > MaxDocumentSize {
			return nil, ErrTooLarge
		}
		return out, nil
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, MaxDocumentSize+1))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		if len(out) > MaxDocumentSize {
			return nil, ErrTooLarge
		}
		return out, nil
	default:
		return raw, nil
	}
}

func compress(text []byte, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		return zstdEncoder.EncodeAll(text, nil), nil
	case Gzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(text); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		return buf.Bytes(), nil
	case None:
		return text, nil
	default:
		return nil, fmt.Errorf("source: unknown compression %s", c)
	}
}

// ============================================================
// Documents
// ============================================================

// Document is the decompressed text of one input.
type Document struct {
	Path        string
	Text        string
	Compression Compression
}

// Parse parses the document text.
func (d *Document) Parse(opts plist.ParseOptions) (*plist.Value, error) {
	return plist.ParseWithOptions(d.Text, opts)
}

// Read reads a whole document from r. name is recorded as the path.
func Read(r io.Reader, name string) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(raw) > MaxDocumentSize {
		return nil, fmt.Errorf("read %s: %w", name, ErrTooLarge)
	}
	c := Detect(raw)
	text, err := decompress(raw, c)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &Document{Path: name, Text: string(text), Compression: c}, nil
}

// Load reads the document at path; Stdin reads standard input.
func Load(path string) (*Document, error) {
	if path == Stdin {
		return Read(os.Stdin, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path)
}

// Save writes text to path with the given compression. The file is
// replaced atomically through a temporary file in the same directory.
func Save(path, text string, c Compression) error {
	data, err := compress([]byte(text), c)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".plist-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
