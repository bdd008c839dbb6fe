package graph

import (
	"container/list"
	"errors"
	"fmt"
	"strings"
)

// ProcessingQueue wraps a list-based queue for Kahn's algorithm processing.
// It holds nodes that are ready to be processed (have in-degree of 0).
type ProcessingQueue struct {
	queue *list.List
}

// NewProcessingQueue creates a new empty processing queue.
func NewProcessingQueue() *ProcessingQueue {
	return &ProcessingQueue{
		queue: list.New(),
	}
}

// InitializeQueue creates a processing queue populated with all nodes
// that have in-degree of 0, in insertion order.
func (g *Graph) InitializeQueue(inDegree map[string]int) *ProcessingQueue {
	pq := NewProcessingQueue()

	for _, id := range g.order {
		if inDegree[id] == 0 {
			pq.Enqueue(id)
		}
	}

	return pq
}

// Enqueue adds a node to the back of the queue.
func (pq *ProcessingQueue) Enqueue(node string) {
	pq.queue.PushBack(node)
}

// Dequeue removes and returns the node at the front of the queue.
// Returns empty string and false if queue is empty.
func (pq *ProcessingQueue) Dequeue() (string, bool) {
	if pq.queue.Len() == 0 {
		return "", false
	}
	elem := pq.queue.Front()
	pq.queue.Remove(elem)
	return elem.Value.(string), true
}

// Len returns the number of nodes in the queue.
func (pq *ProcessingQueue) Len() int {
	return pq.queue.Len()
}

// IsEmpty returns true if the queue has no nodes.
func (pq *ProcessingQueue) IsEmpty() bool {
	return pq.queue.Len() == 0
}

// CalculateInDegrees computes the number of incoming edges for each node.
func (g *Graph) CalculateInDegrees() map[string]int {
	inDegree := make(map[string]int, len(g.Nodes))

	for id := range g.Nodes {
		inDegree[id] = 0
	}

	for _, edge := range g.edges {
		inDegree[edge.To]++
	}

	return inDegree
}

// ErrCycleDetected is returned when the lineage graph contains a cycle,
// making topological sorting impossible.
var ErrCycleDetected = errors.New("cycle detected in lineage graph")

// CycleInfo contains information about incomplete processing due to cycles.
type CycleInfo struct {
	TotalNodes        int      // Total number of nodes in the graph
	ProcessedNodes    int      // Number of nodes successfully processed
	UnprocessedNodes  []string // Nodes that couldn't be processed (part of or blocked by cycle)
	CycleParticipants []string // Nodes that are actually part of a cycle (subset of UnprocessedNodes)
	CyclePath         []string // Ordered path showing the cycle (e.g., [A, B, C, A])
}

// CycleError describes which nodes form a cycle and which are blocked by it.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in lineage graph: %d of %d nodes could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)

	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf("\nCycle path: %s", strings.Join(e.Info.CyclePath, " -> "))
	}

	if len(e.Info.CycleParticipants) > 0 {
		msg += fmt.Sprintf("\nNodes in cycle: %s", strings.Join(e.Info.CycleParticipants, ", "))
	}

	if len(e.Info.UnprocessedNodes) > len(e.Info.CycleParticipants) {
		participantSet := make(map[string]bool)
		for _, p := range e.Info.CycleParticipants {
			participantSet[p] = true
		}

		var blocked []string
		for _, u := range e.Info.UnprocessedNodes {
			if !participantSet[u] {
				blocked = append(blocked, u)
			}
		}

		if len(blocked) > 0 {
			msg += fmt.Sprintf("\nNodes blocked by cycle: %s", strings.Join(blocked, ", "))
		}
	}

	return msg
}

// Is lets errors.Is match ErrCycleDetected.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// DetectIncompleteProcessing runs Kahn's algorithm and returns information
// about any nodes that couldn't be processed, or nil when there is no cycle.
func (g *Graph) DetectIncompleteProcessing() *CycleInfo {
	inDegree := g.CalculateInDegrees()
	queue := g.InitializeQueue(inDegree)

	processed := make(map[string]bool)

	for !queue.IsEmpty() {
		node, _ := queue.Dequeue()
		processed[node] = true

		for _, child := range g.GetChildren(node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.Enqueue(child)
			}
		}
	}

	if len(processed) == len(g.Nodes) {
		return nil
	}

	var unprocessed []string
	unprocessedSet := make(map[string]bool)
	for _, id := range g.order {
		if !processed[id] {
			unprocessed = append(unprocessed, id)
			unprocessedSet[id] = true
		}
	}

	var cycleParticipants []string
	for _, node := range unprocessed {
		if g.canReachSelf(node, unprocessedSet) {
			cycleParticipants = append(cycleParticipants, node)
		}
	}

	var cyclePath []string
	if len(cycleParticipants) > 0 {
		cyclePath = g.FindCyclePath(cycleParticipants[0], unprocessedSet)
	}

	return &CycleInfo{
		TotalNodes:        len(g.Nodes),
		ProcessedNodes:    len(processed),
		UnprocessedNodes:  unprocessed,
		CycleParticipants: cycleParticipants,
		CyclePath:         cyclePath,
	}
}

// FindCyclePath finds the path that forms a cycle starting from the given node.
// Returns the ordered list of nodes forming the cycle (including the start node at both ends).
func (g *Graph) FindCyclePath(start string, allowedNodes map[string]bool) []string {
	visited := make(map[string]bool)
	path := []string{start}

	if g.dfsFindPath(start, start, visited, allowedNodes, &path) {
		return path
	}

	return nil
}

func (g *Graph) dfsFindPath(current, target string, visited, allowedNodes map[string]bool, path *[]string) bool {
	for _, child := range g.GetChildren(current) {
		if !allowedNodes[child] {
			continue
		}

		if child == target {
			*path = append(*path, target)
			return true
		}

		if visited[child] {
			continue
		}

		visited[child] = true
		*path = append(*path, child)

		if g.dfsFindPath(child, target, visited, allowedNodes, path) {
			return true
		}

		// Backtrack
		*path = (*path)[:len(*path)-1]
	}

	return false
}

func (g *Graph) canReachSelf(start string, allowedNodes map[string]bool) bool {
	visited := make(map[string]bool)
	return g.dfsCanReach(start, start, visited, allowedNodes, true)
}

// dfsCanReach reports whether target is reachable from current.
// isStart is true only for the initial call to avoid immediate self-match.
func (g *Graph) dfsCanReach(current, target string, visited, allowedNodes map[string]bool, isStart bool) bool {
	if current == target && !isStart {
		return true
	}

	if visited[current] || !allowedNodes[current] {
		return false
	}

	visited[current] = true

	for _, child := range g.GetChildren(current) {
		if g.dfsCanReach(child, target, visited, allowedNodes, false) {
			return true
		}
	}

	return false
}

// TopologicalSort returns node ids in dependency order using Kahn's
// algorithm: every node appears after all of its upstream nodes. Ties are
// broken by insertion order. Returns a *CycleError if the graph has a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := g.CalculateInDegrees()
	queue := g.InitializeQueue(inDegree)

	result := make([]string, 0, len(g.Nodes))

	for !queue.IsEmpty() {
		node, _ := queue.Dequeue()
		result = append(result, node)

		for _, child := range g.GetChildren(node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.Enqueue(child)
			}
		}
	}

	if len(result) != len(g.Nodes) {
		return nil, &CycleError{Info: g.DetectIncompleteProcessing()}
	}

	return result, nil
}
