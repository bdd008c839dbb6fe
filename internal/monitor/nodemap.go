package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// DuplicateNodeError is returned when two node collections share a unique id.
type DuplicateNodeError struct {
	UniqueID string
	Existing ArtifactKind
	Incoming ArtifactKind
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %q: already present as %s, got %s", e.UniqueID, e.Existing, e.Incoming)
}

// NodeMap is an insertion-ordered mapping of unique id to node.
type NodeMap struct {
	nodes *orderedmap.OrderedMap[string, Artifact]
}

// NewNodeMap returns an empty NodeMap.
func NewNodeMap() *NodeMap {
	return &NodeMap{nodes: orderedmap.NewOrderedMap[string, Artifact]()}
}

// Add inserts a node. A unique id that is already present is rejected.
func (m *NodeMap) Add(a Artifact) error {
	if existing, ok := m.nodes.Get(a.ID()); ok {
		return &DuplicateNodeError{UniqueID: a.ID(), Existing: existing.Kind(), Incoming: a.Kind()}
	}
	m.nodes.Set(a.ID(), a)
	return nil
}

// Get returns the node with the given id.
func (m *NodeMap) Get(id string) (Artifact, bool) {
	return m.nodes.Get(id)
}

// Len returns the number of nodes.
func (m *NodeMap) Len() int {
	return m.nodes.Len()
}

// Keys returns node ids in insertion order.
func (m *NodeMap) Keys() []string {
	return m.nodes.Keys()
}

// MarshalJSON writes the nodes as a JSON object in insertion order.
func (m *NodeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for el := m.nodes.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(el.Value)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", el.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MergeNodes merges models, sources and exposures, in that order, into one
// NodeMap. The first unique id collision aborts the merge.
func MergeNodes(models []Model, sources []Source, exposures []Exposure) (*NodeMap, error) {
	nodes := NewNodeMap()
	for i := range models {
		if err := nodes.Add(&models[i]); err != nil {
			return nil, err
		}
	}
	for i := range sources {
		if err := nodes.Add(&sources[i]); err != nil {
			return nil, err
		}
	}
	for i := range exposures {
		if err := nodes.Add(&exposures[i]); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}
