// Package graph provides the lineage graph between report nodes and the
// Kahn-ordered traversal used to list them in dependency order.
package graph

import "github.com/dbsmedya/goreport/internal/monitor"

// Node represents a model, source or exposure in the lineage graph.
type Node struct {
	ID   string
	Kind monitor.ArtifactKind
}

// Edge represents a dependency: From is the upstream node, To depends on it.
type Edge struct {
	From string
	To   string
}

// Graph is a directed lineage graph. Node and edge iteration follows
// insertion order so that output is stable across runs.
type Graph struct {
	Nodes    map[string]*Node    // unique id -> node
	Children map[string][]string // unique id -> downstream ids (outgoing edges)
	Parents  map[string][]string // unique id -> upstream ids (incoming edges)
	order    []string
	edges    []Edge
	edgeSet  map[Edge]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
		edgeSet:  make(map[Edge]bool),
	}
}

// AddNode adds a node. Adding an existing id updates its kind and keeps its position.
func (g *Graph) AddNode(id string, kind monitor.ArtifactKind) {
	if node, exists := g.Nodes[id]; exists {
		node.Kind = kind
		return
	}
	g.Nodes[id] = &Node{ID: id, Kind: kind}
	g.order = append(g.order, id)
}

// AddEdge adds a parent -> child relationship. Repeated edges are ignored.
// It also maintains the reverse mapping for efficient parent lookups.
func (g *Graph) AddEdge(parent, child string) {
	edge := Edge{From: parent, To: child}
	if g.edgeSet[edge] {
		return
	}
	g.edgeSet[edge] = true
	g.edges = append(g.edges, edge)

	g.Children[parent] = append(g.Children[parent], child)
	g.Parents[child] = append(g.Parents[child], parent)
}

// GetChildren returns all direct downstream nodes.
func (g *Graph) GetChildren(parent string) []string {
	return g.Children[parent]
}

// HasNode returns true if the graph contains a node with the given id.
func (g *Graph) HasNode(id string) bool {
	_, exists := g.Nodes[id]
	return exists
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AllNodes returns node ids in insertion order.
func (g *Graph) AllNodes() []string {
	nodes := make([]string, len(g.order))
	copy(nodes, g.order)
	return nodes
}

// AllEdges returns edges in insertion order.
func (g *Graph) AllEdges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}
