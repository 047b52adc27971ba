// Package plan models MongoDB aggregation pipelines as a recursive node tree
// and provides structural validation over them.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the three node shapes.
type Kind int

const (
	// KindScalar is a leaf value: string, number, bool or null.
	KindScalar Kind = iota
	// KindSequence is an ordered list of nodes.
	KindSequence
	// KindMapping is an ordered key-to-node mapping.
	KindMapping
)

// Entry is one key/value pair of a mapping node. Entry order is the order
// keys appeared in the source document.
type Entry struct {
	Key   string
	Value *Node
}

// Node is one vertex of a pipeline tree. Mappings keep their entries in
// document order so that validation reports the first violation
// deterministically.
type Node struct {
	kind    Kind
	scalar  any
	items   []*Node
	entries []Entry
}

// Scalar wraps a leaf value.
func Scalar(v any) *Node {
	return &Node{kind: KindScalar, scalar: v}
}

// Seq builds a sequence node.
func Seq(items ...*Node) *Node {
	return &Node{kind: KindSequence, items: items}
}

// Map builds a mapping node from ordered entries.
func Map(entries ...Entry) *Node {
	return &Node{kind: KindMapping, entries: entries}
}

// E is a shorthand entry constructor.
func E(key string, value *Node) Entry {
	return Entry{Key: key, Value: value}
}

// Kind reports the node shape.
func (n *Node) Kind() Kind {
	return n.kind
}

// ScalarValue returns the leaf value of a scalar node.
func (n *Node) ScalarValue() any {
	return n.scalar
}

// Items returns the elements of a sequence node.
func (n *Node) Items() []*Node {
	return n.items
}

// Entries returns the ordered entries of a mapping node.
func (n *Node) Entries() []Entry {
	return n.entries
}

// Len returns the element count of a sequence or mapping node.
func (n *Node) Len() int {
	switch n.kind {
	case KindSequence:
		return len(n.items)
	case KindMapping:
		return len(n.entries)
	default:
		return 0
	}
}

// MarshalJSON renders the node preserving mapping entry order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	switch n.kind {
	case KindScalar:
		b, err := json.Marshal(n.scalar)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, entry := range n.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(entry.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := entry.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes arbitrary JSON into a node tree. Mapping entries keep
// the order they appear in the input, which encoding/json maps would lose.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := decodeNode(dec)
	if err != nil {
		return err
	}
	tok, err := dec.Token()
	if err == nil {
		return fmt.Errorf("unexpected trailing token %v", tok)
	}
	*n = *decoded
	return nil
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &Node{kind: KindMapping}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("mapping key is not a string: %v", keyTok)
				}
				value, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				node.entries = append(node.entries, Entry{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &Node{kind: KindSequence}
			for dec.More() {
				item, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				node.items = append(node.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", v)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Scalar(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return Scalar(f), nil
		}
		return Scalar(v.String()), nil
	default:
		// string, bool or nil
		return Scalar(v), nil
	}
}
