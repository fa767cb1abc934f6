package plist

import "fmt"

// Visitor handles each variant of a Value. Adding a variant to Kind adds a
// method here, so every consumer fails to compile until it handles it.
type Visitor[R any] interface {
	VisitDictionary(d *Dict) (R, error)
	VisitArray(items []*Value) (R, error)
	VisitString(s string) (R, error)
	VisitNumber(n Number) (R, error)
	VisitBoolean(b bool) (R, error)
	VisitData(b []byte) (R, error)
}

// Visit dispatches v to the matching Visitor method.
func Visit[R any](v *Value, vis Visitor[R]) (R, error) {
	switch v.Kind() {
	case KindDictionary:
		return vis.VisitDictionary(v.dict)
	case KindArray:
		return vis.VisitArray(v.array)
	case KindString:
		return vis.VisitString(v.str)
	case KindNumber:
		return vis.VisitNumber(Number{lit: v.str})
	case KindBoolean:
		return vis.VisitBoolean(v.boolVal)
	case KindData:
		return vis.VisitData(v.data)
	default:
		var zero R
		return zero, fmt.Errorf("plist: cannot visit uninitialized value: %w", ErrNilValue)
	}
}
