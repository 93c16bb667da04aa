// Package hierarchy models the iFixit category tree and extracts leaf
// device names from it. The API returns free-form JSON where any node
// may be an object, an array, a string or null; the Node type makes
// that shape explicit so traversal is plain case analysis.
package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants a tree node can take.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindObject
	KindArray
	// KindOther covers numbers and booleans. They appear only inside
	// metadata subtrees and never name a device or category.
	KindOther
)

// Node is one position in the category tree.
type Node struct {
	Kind   Kind
	Str    string
	Object map[string]*Node
	Items  []*Node
}

// UnmarshalJSON decodes a node by inspecting the leading token instead
// of round-tripping through interface{}.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		n.Kind = KindNull
		return nil
	}
	switch data[0] {
	case '"':
		n.Kind = KindString
		if err := json.Unmarshal(data, &n.Str); err != nil {
			return fmt.Errorf("failed to decode string node: %w", err)
		}
	case '{':
		n.Kind = KindObject
		if err := json.Unmarshal(data, &n.Object); err != nil {
			return fmt.Errorf("failed to decode object node: %w", err)
		}
	case '[':
		n.Kind = KindArray
		if err := json.Unmarshal(data, &n.Items); err != nil {
			return fmt.Errorf("failed to decode array node: %w", err)
		}
	default:
		n.Kind = KindOther
	}
	return nil
}

// ParseTree decodes a raw hierarchy response. A decode failure yields a
// nil tree, which the collector treats the same as an empty one.
func ParseTree(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse category tree: %w", err)
	}
	return &n, nil
}

// kind tolerates the nil pointers encoding/json produces for JSON null
// values inside objects and arrays.
func (n *Node) kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.Kind
}

// metadataKeys never denote a device or category and are skipped at
// every depth, before any other check.
var metadataKeys = map[string]struct{}{
	"attrs":               {},
	"contents_json":       {},
	"image":               {},
	"inheritedFrom":       {},
	"parts":               {},
	"repairability_score": {},
	"source_revisionid":   {},
}

func isMetadataKey(key string) bool {
	_, ok := metadataKeys[key]
	return ok
}
