package plist

import (
	"strconv"
	"strings"
)

// path is a location inside a value tree, linked from leaf to root. The nil
// path is the root.
type path struct {
	parent  *path
	key     string
	index   int
	isIndex bool
}

func (p *path) child(key string) *path {
	return &path{parent: p, key: key}
}

func (p *path) at(i int) *path {
	return &path{parent: p, index: i, isIndex: true}
}

// String renders the path as root.masters[2].name.
func (p *path) String() string {
	var elems []*path
	for q := p; q != nil; q = q.parent {
		elems = append(elems, q)
	}

	var sb strings.Builder
	sb.WriteString("root")
	for i := len(elems) - 1; i >= 0; i-- {
		e := elems[i]
		switch {
		case e.isIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(e.index))
			sb.WriteByte(']')
		case isIdentifier(e.key):
			sb.WriteByte('.')
			sb.WriteString(e.key)
		default:
			sb.WriteByte('[')
			sb.WriteString(strconv.Quote(e.key))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
