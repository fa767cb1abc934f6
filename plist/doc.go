// Package plist implements a codec for OpenStep-style property lists, the
// text format used by Glyphs font sources and older Apple tooling.
//
// The codec is:
//   - Lossless: parse(serialize(v)) reproduces v, including dictionary key
//     order and the exact text of every number literal
//   - Strict: malformed input is rejected with a position-tagged error
//   - Deterministic: one value tree always serializes to the same bytes
//   - Typed: Go structs, slices, maps and scalars bind to and from value
//     trees without per-field glue
//
// # Data Model
//
// Dictionary, Array, String, Number, Boolean, Data. See Kind.
//
// # Syntax
//
// Dictionary: { key = value; other = value; }
// Array:      (1, 2, three,)
// String:     bare_word or "quoted string"
// Number:     10, -2.5, 1e6 (unquoted words matching the numeric grammar)
// Boolean:    true / false (YES / NO accepted on input)
// Data:       <48656c6c6f>
// Comments:   // line and /* block */
//
// # Example
//
//	{
//	    familyName = "My Font";
//	    unitsPerEm = 1000;
//	    axes = (
//	        {
//	            name = Weight;
//	            tag = wght;
//	        }
//	    );
//	}
//
// # Typed Binding
//
//	type Axis struct {
//	    Name   string `plist:"name"`
//	    Tag    string `plist:"tag"`
//	    Hidden bool   `plist:"hidden,omitempty"`
//	}
//
//	axis, err := plist.DecodeText[Axis](`{ name = Weight; tag = wght; }`)
//
// Every function in this package is synchronous and free of I/O; distinct
// documents may be processed concurrently without coordination.
package plist
