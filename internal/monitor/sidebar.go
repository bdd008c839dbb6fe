package monitor

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

const (
	filesKey = "__files__"
	noOwners = "No owners"
	noTags   = "No tags"
)

// SidebarTree is one level of a navigation tree. Children keep insertion order.
type SidebarTree struct {
	children *orderedmap.OrderedMap[string, *SidebarTree]
	Files    []string
}

// NewSidebarTree returns an empty tree.
func NewSidebarTree() *SidebarTree {
	return &SidebarTree{children: orderedmap.NewOrderedMap[string, *SidebarTree]()}
}

// Child returns the named child, creating it when missing.
func (t *SidebarTree) Child(name string) *SidebarTree {
	if child, ok := t.children.Get(name); ok {
		return child
	}
	child := NewSidebarTree()
	t.children.Set(name, child)
	return child
}

// Lookup walks the tree along path and returns the node, if present.
func (t *SidebarTree) Lookup(path ...string) (*SidebarTree, bool) {
	node := t
	for _, name := range path {
		child, ok := node.children.Get(name)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// ChildNames returns child names in insertion order.
func (t *SidebarTree) ChildNames() []string {
	return t.children.Keys()
}

// MarshalJSON renders children as nested objects and files under "__files__".
func (t *SidebarTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for el := t.children.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(el.Key)
		value, err := el.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	if len(t.Files) > 0 {
		if !first {
			buf.WriteByte(',')
		}
		files, err := json.Marshal(t.Files)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"` + filesKey + `":`)
		buf.Write(files)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sidebars groups report nodes for navigation.
type Sidebars struct {
	Dbt    *SidebarTree `json:"dbt"`
	Tags   *SidebarTree `json:"tags"`
	Owners *SidebarTree `json:"owners"`
}

// NewSidebars returns empty, non-nil sidebars.
func NewSidebars() Sidebars {
	return Sidebars{Dbt: NewSidebarTree(), Tags: NewSidebarTree(), Owners: NewSidebarTree()}
}

// BuildSidebars groups artifacts by project path, tag and owner. Callers
// decide which node kinds are shown.
func BuildSidebars(artifacts []Artifact) Sidebars {
	sidebars := NewSidebars()

	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Common().NormalizedFullPath < sorted[j].Common().NormalizedFullPath
	})

	for _, a := range sorted {
		base := a.Common()

		node := sidebars.Dbt
		segments := strings.Split(base.NormalizedFullPath, "/")
		for _, segment := range segments[:len(segments)-1] {
			if segment == "" {
				continue
			}
			node = node.Child(segment)
		}
		node.Files = append(node.Files, base.UniqueID)

		if len(base.Owners) == 0 {
			owners := sidebars.Owners.Child(noOwners)
			owners.Files = append(owners.Files, base.UniqueID)
		}
		for _, owner := range base.Owners {
			o := sidebars.Owners.Child(owner)
			o.Files = append(o.Files, base.UniqueID)
		}

		if len(base.Tags) == 0 {
			tags := sidebars.Tags.Child(noTags)
			tags.Files = append(tags.Files, base.UniqueID)
		}
		for _, tag := range base.Tags {
			tg := sidebars.Tags.Child(tag)
			tg.Files = append(tg.Files, base.UniqueID)
		}
	}

	return sidebars
}
