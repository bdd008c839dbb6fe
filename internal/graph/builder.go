package graph

import (
	"fmt"

	"github.com/dbsmedya/goreport/internal/monitor"
)

// Builder constructs a lineage graph from report nodes.
type Builder struct {
	artifacts []monitor.Artifact
	skipped   []Edge
}

// NewBuilder creates a new graph builder for the given nodes.
func NewBuilder(artifacts []monitor.Artifact) *Builder {
	return &Builder{artifacts: artifacts}
}

// Build adds every node first, then an edge for each dependency. Dependencies
// on ids outside the node set (tests, seeds, excluded packages) are recorded
// in Skipped instead of growing the graph.
func (b *Builder) Build() (*Graph, error) {
	g := NewGraph()
	b.skipped = nil

	for _, a := range b.artifacts {
		if a.ID() == "" {
			return nil, fmt.Errorf("%s node without unique id", a.Kind())
		}
		if g.HasNode(a.ID()) {
			return nil, fmt.Errorf("duplicate lineage node %q", a.ID())
		}
		g.AddNode(a.ID(), a.Kind())
	}

	for _, a := range b.artifacts {
		for _, parent := range dependsOn(a) {
			if !g.HasNode(parent) {
				b.skipped = append(b.skipped, Edge{From: parent, To: a.ID()})
				continue
			}
			g.AddEdge(parent, a.ID())
		}
	}

	return g, nil
}

// Skipped returns dependencies dropped by the last Build because their
// upstream node was not part of the graph.
func (b *Builder) Skipped() []Edge {
	return b.skipped
}

func dependsOn(a monitor.Artifact) []string {
	switch n := a.(type) {
	case *monitor.Model:
		return n.DependsOn
	case *monitor.Exposure:
		return n.DependsOn
	default:
		return nil
	}
}

// Lineage converts the graph to its report form. Nodes are listed in
// dependency order; when the graph has a cycle they are listed in insertion
// order and the CycleError is returned alongside the usable lineage.
func (g *Graph) Lineage() (monitor.Lineage, error) {
	lineage := monitor.EmptyLineage()

	order, err := g.TopologicalSort()
	if err != nil {
		order = g.AllNodes()
	}
	lineage.Nodes = append(lineage.Nodes, order...)

	for _, edge := range g.AllEdges() {
		lineage.Edges = append(lineage.Edges, [2]string{edge.From, edge.To})
	}
	return lineage, err
}
