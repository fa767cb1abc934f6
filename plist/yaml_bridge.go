package plist

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================
// YAML Bridge
// ============================================================
//
// Value trees map onto YAML node trees: dictionaries keep their key order,
// numbers become !!int or !!float, data becomes !!binary.

// ToYAML converts a value tree to a YAML document.
func ToYAML(v *Value) ([]byte, error) {
	node, err := Visit[*yaml.Node](v, yamlBuilder{})
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("plist: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("plist: encode yaml: %w", err)
	}
	return out.Bytes(), nil
}

type yamlBuilder struct{}

func (b yamlBuilder) VisitDictionary(d *Dict) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for key, val := range d.All() {
		child, err := Visit[*yaml.Node](val, b)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, scalarNode("!!str", key), child)
	}
	return node, nil
}

func (b yamlBuilder) VisitArray(items []*Value) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		child, err := Visit[*yaml.Node](item, b)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

func (yamlBuilder) VisitString(s string) (*yaml.Node, error) {
	return scalarNode("!!str", s), nil
}

func (yamlBuilder) VisitNumber(n Number) (*yaml.Node, error) {
	if !isNumeric(n.lit) {
		return nil, fmt.Errorf("plist: %q: %w", n.lit, ErrInvalidNumber)
	}
	tag := "!!float"
	if n.IsInteger() {
		tag = "!!int"
	}
	return scalarNode(tag, n.normalized()), nil
}

func (yamlBuilder) VisitBoolean(b bool) (*yaml.Node, error) {
	return scalarNode("!!bool", strconv.FormatBool(b)), nil
}

func (yamlBuilder) VisitData(b []byte) (*yaml.Node, error) {
	return scalarNode("!!binary", base64.StdEncoding.EncodeToString(b)), nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// FromYAML converts a single YAML document to a value tree. Nulls,
// infinities and NaN have no plist counterpart and are rejected.
//
// Aliases are expanded in place. The expanded tree may hold at most
// yamlExpansionFloor nodes plus yamlExpansionRatio times the nodes written
// in the document; larger expansions fail with ErrAliasExpansion.
func FromYAML(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("plist: parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("plist: empty yaml document: %w", ErrUnexpectedEOF)
	}
	r := &yamlReader{budget: yamlExpansionFloor + yamlExpansionRatio*countYAMLNodes(doc.Content[0])}
	return r.node(doc.Content[0], 0)
}

const (
	yamlExpansionFloor = 10000
	yamlExpansionRatio = 10
)

// yamlReader walks a node tree, charging one unit of budget per node
// built.
type yamlReader struct {
	budget int
}

// countYAMLNodes counts the nodes written in the document, without
// following aliases.
func countYAMLNodes(n *yaml.Node) int {
	count := 1
	for _, c := range n.Content {
		count += countYAMLNodes(c)
	}
	return count
}

func (r *yamlReader) node(n *yaml.Node, depth int) (*Value, error) {
	if depth > DefaultMaxDepth {
		return nil, fmt.Errorf("plist: yaml line %d: %w", n.Line, ErrMaxDepth)
	}
	r.budget--
	if r.budget < 0 {
		return nil, fmt.Errorf("plist: yaml line %d: %w", n.Line, ErrAliasExpansion)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, fmt.Errorf("plist: empty yaml document: %w", ErrUnexpectedEOF)
		}
		return r.node(n.Content[0], depth)

	case yaml.AliasNode:
		return r.node(n.Alias, depth+1)

	case yaml.MappingNode:
		d := NewDict()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode || k.ShortTag() == "!!merge" {
				return nil, fmt.Errorf("plist: yaml line %d: mapping keys must be plain scalars: %w", k.Line, ErrUnsupportedValue)
			}
			val, err := r.node(v, depth+1)
			if err != nil {
				return nil, err
			}
			d.Set(k.Value, val)
		}
		return FromDict(d), nil

	case yaml.SequenceNode:
		items := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := r.node(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return Array(items...), nil

	case yaml.ScalarNode:
		return fromYAMLScalar(n)

	default:
		return nil, fmt.Errorf("plist: yaml line %d: unexpected node kind %d: %w", n.Line, n.Kind, ErrUnsupportedValue)
	}
}

func fromYAMLScalar(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!str", "!!timestamp":
		return String(n.Value), nil

	case "!!int":
		if isNumeric(n.Value) {
			return &Value{kind: KindNumber, str: n.Value}, nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("plist: yaml line %d: %w", n.Line, err)
		}
		return Int(i), nil

	case "!!float":
		if isNumeric(n.Value) {
			return &Value{kind: KindNumber, str: n.Value}, nil
		}
		return nil, fmt.Errorf("plist: yaml line %d: %s has no plist representation: %w", n.Line, n.Value, ErrUnsupportedValue)

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("plist: yaml line %d: %w", n.Line, err)
		}
		return Bool(b), nil

	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("plist: yaml line %d: %v: %w", n.Line, err, ErrInvalidData)
		}
		return Data(b), nil

	case "!!null":
		return nil, fmt.Errorf("plist: yaml line %d: null has no plist representation: %w", n.Line, ErrUnsupportedValue)

	default:
		return nil, fmt.Errorf("plist: yaml line %d: unsupported tag %s: %w", n.Line, n.Tag, ErrUnsupportedValue)
	}
}
