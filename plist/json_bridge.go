package plist

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/jsonc"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts between JSON and value trees. Object member order and number
// literal text are preserved. Data has no JSON counterpart:
//   - Default: data becomes a base64 string (one way)
//   - Extended: data becomes {"$data": "<hex>"} and converts back

// BridgeOpts configures JSON bridge behavior.
type BridgeOpts struct {
	// Extended enables the $data marker for lossless round-trip of data.
	Extended bool

	// Indent pretty-prints the output when non-empty.
	Indent string
}

// DefaultBridgeOpts returns the default (plain JSON) options.
func DefaultBridgeOpts() BridgeOpts {
	return BridgeOpts{Extended: false}
}

const dataMarker = "$data"

// ============================================================
// ToJSON - value tree to JSON
// ============================================================

// ToJSON converts a value tree to JSON.
func ToJSON(v *Value) ([]byte, error) {
	return ToJSONWithOpts(v, DefaultBridgeOpts())
}

// ToJSONWithOpts converts a value tree to JSON with options.
func ToJSONWithOpts(v *Value, opts BridgeOpts) ([]byte, error) {
	var buf bytes.Buffer
	var encOpts []jsontext.Options
	if opts.Indent != "" {
		encOpts = append(encOpts, jsontext.WithIndent(opts.Indent))
	}
	w := &jsonWriter{enc: jsontext.NewEncoder(&buf, encOpts...), opts: opts}
	if _, err := Visit[struct{}](v, w); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type jsonWriter struct {
	enc  *jsontext.Encoder
	opts BridgeOpts
}

func (w *jsonWriter) VisitDictionary(d *Dict) (struct{}, error) {
	if err := w.enc.WriteToken(jsontext.BeginObject); err != nil {
		return struct{}{}, err
	}
	for key, val := range d.All() {
		if err := w.enc.WriteToken(jsontext.String(key)); err != nil {
			return struct{}{}, err
		}
		if _, err := Visit[struct{}](val, w); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, w.enc.WriteToken(jsontext.EndObject)
}

func (w *jsonWriter) VisitArray(items []*Value) (struct{}, error) {
	if err := w.enc.WriteToken(jsontext.BeginArray); err != nil {
		return struct{}{}, err
	}
	for _, item := range items {
		if _, err := Visit[struct{}](item, w); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, w.enc.WriteToken(jsontext.EndArray)
}

func (w *jsonWriter) VisitString(s string) (struct{}, error) {
	return struct{}{}, w.enc.WriteToken(jsontext.String(s))
}

func (w *jsonWriter) VisitNumber(n Number) (struct{}, error) {
	if !isNumeric(n.lit) {
		return struct{}{}, fmt.Errorf("plist: %q: %w", n.lit, ErrInvalidNumber)
	}
	return struct{}{}, w.enc.WriteValue(jsontext.Value(n.normalized()))
}

func (w *jsonWriter) VisitBoolean(b bool) (struct{}, error) {
	return struct{}{}, w.enc.WriteToken(jsontext.Bool(b))
}

func (w *jsonWriter) VisitData(b []byte) (struct{}, error) {
	if !w.opts.Extended {
		return struct{}{}, w.enc.WriteToken(jsontext.String(base64.StdEncoding.EncodeToString(b)))
	}
	if err := w.enc.WriteToken(jsontext.BeginObject); err != nil {
		return struct{}{}, err
	}
	if err := w.enc.WriteToken(jsontext.String(dataMarker)); err != nil {
		return struct{}{}, err
	}
	if err := w.enc.WriteToken(jsontext.String(hex.EncodeToString(b))); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, w.enc.WriteToken(jsontext.EndObject)
}

// ============================================================
// FromJSON - JSON to value tree
// ============================================================

// FromJSON converts JSON to a value tree. Comments and trailing commas are
// accepted. JSON null has no plist counterpart and is rejected.
func FromJSON(data []byte) (*Value, error) {
	return FromJSONWithOpts(data, DefaultBridgeOpts())
}

// FromJSONWithOpts converts JSON to a value tree with options.
func FromJSONWithOpts(data []byte, opts BridgeOpts) (*Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	v, err := readJSONValue(dec, opts, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("plist: JSON: %w", ErrTrailingContent)
		}
		return nil, fmt.Errorf("plist: JSON: %w", err)
	}
	return v, nil
}

func readJSONValue(dec *jsontext.Decoder, opts BridgeOpts, depth int) (*Value, error) {
	switch dec.PeekKind() {
	case '{':
		if depth >= DefaultMaxDepth {
			return nil, fmt.Errorf("plist: JSON: %w", ErrMaxDepth)
		}
		return readJSONObject(dec, opts, depth+1)

	case '[':
		if depth >= DefaultMaxDepth {
			return nil, fmt.Errorf("plist: JSON: %w", ErrMaxDepth)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		items := []*Value{}
		for dec.PeekKind() != ']' {
			item, err := readJSONValue(dec, opts, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		return Array(items...), nil

	case '"':
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		return String(tok.String()), nil

	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		return &Value{kind: KindNumber, str: string(raw)}, nil

	case 't', 'f':
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		return Bool(tok.Bool()), nil

	case 'n':
		return nil, fmt.Errorf("plist: JSON null at offset %d has no plist representation: %w",
			dec.InputOffset(), ErrUnsupportedValue)

	default:
		_, err := dec.ReadToken()
		if err == nil {
			err = ErrUnexpectedToken
		}
		return nil, fmt.Errorf("plist: JSON: %w", err)
	}
}

func readJSONObject(dec *jsontext.Decoder, opts BridgeOpts, depth int) (*Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("plist: JSON: %w", err)
	}
	d := NewDict()
	for dec.PeekKind() != '}' {
		keyTok, err := dec.ReadToken()
		if err != nil {
			return nil, fmt.Errorf("plist: JSON: %w", err)
		}
		key := keyTok.String()
		val, err := readJSONValue(dec, opts, depth)
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("plist: JSON: %w", err)
	}

	if opts.Extended && d.Len() == 1 {
		if s, err := d.Get(dataMarker).AsString(); err == nil {
			b, err := hex.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("plist: JSON %s marker: %v: %w", dataMarker, err, ErrInvalidData)
			}
			return Data(b), nil
		}
	}
	return FromDict(d), nil
}
