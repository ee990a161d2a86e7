package dag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/uvm/pkg/manifest"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the parent
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the child
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrMultipleParents is returned by [Graph.AddEdge] when the child
	// already hangs below another node. Every component is installed
	// alongside exactly one parent.
	ErrMultipleParents = errors.New("node already has a parent")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveDepth is returned by [Graph.Validate] when an edge
	// connects nodes whose depths do not differ by exactly one.
	ErrNonConsecutiveDepth = errors.New("edges must connect consecutive depths")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrUnknownSyncParent is returned by [BuildStrict] when a module names
	// a sync parent the catalog does not contain.
	ErrUnknownSyncParent = errors.New("unknown sync parent")

	// ErrSyncCycle is returned by [BuildStrict] when sync parents form a loop.
	ErrSyncCycle = errors.New("sync parents form a cycle")
)

// Status is the install state of a component.
type Status uint8

const (
	// Unknown means the install state has not been determined yet.
	Unknown Status = iota
	// Missing means the component is not installed.
	Missing
	// Installed means the component is present in the installed record.
	Installed
)

func (s Status) String() string {
	switch s {
	case Missing:
		return "missing"
	case Installed:
		return "installed"
	default:
		return "unknown"
	}
}

// Node is a component in the install graph.
type Node struct {
	ID     manifest.ComponentID
	Status Status
	// Depth is the distance from the root (0 = editor).
	Depth int
	// Module is the catalog entry the node was built from. Placeholder
	// nodes created for a missing editor carry only the ID.
	Module manifest.Module
}

// Entry is a (component, status) pair yielded by traversals.
type Entry struct {
	ID     manifest.ComponentID
	Status Status
}

// Edge is a parent→child link: To installs alongside From.
type Edge struct {
	From manifest.ComponentID `json:"from"`
	To   manifest.ComponentID `json:"to"`
}

// Graph is the install graph for one editor version: a tree rooted at the
// editor where each component hangs below its sync parent.
//
// Children are kept in insertion order, which [Build] makes
// reverse-lexicographic, and every traversal follows that order.
//
// The zero value is not usable; use [New] or [Build].
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	root     manifest.ComponentID
	nodes    map[manifest.ComponentID]*Node
	order    []manifest.ComponentID // node insertion order
	edges    []Edge
	outgoing map[manifest.ComponentID][]manifest.ComponentID // id -> children
	incoming map[manifest.ComponentID]manifest.ComponentID   // id -> parent
}

// New creates an empty graph rooted at root. The root node itself is added
// by the caller.
func New(root manifest.ComponentID) *Graph {
	return &Graph{
		root:     root,
		nodes:    make(map[manifest.ComponentID]*Node),
		outgoing: make(map[manifest.ComponentID][]manifest.ComponentID),
		incoming: make(map[manifest.ComponentID]manifest.ComponentID),
	}
}

// Root returns the root component ID.
func (g *Graph) Root() manifest.ComponentID { return g.root }

// AddNode adds n. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[n.ID] = node
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge makes to a child of from and sets its depth to from's depth plus
// one. Children are appended, so call order defines traversal order.
func (g *Graph) AddEdge(from, to manifest.ComponentID) error {
	src, ok := g.nodes[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	dst, ok := g.nodes[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	if _, has := g.incoming[to]; has {
		return ErrMultipleParents
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = from
	dst.Depth = src.Depth + 1
	return nil
}

// RemoveNode deletes id together with every edge touching it. Children of
// id are left without a parent.
func (g *Graph) RemoveNode(id manifest.ComponentID) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s manifest.ComponentID) bool { return s == id })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	if parent, ok := g.incoming[id]; ok {
		g.outgoing[parent] = slices.DeleteFunc(g.outgoing[parent], func(s manifest.ComponentID) bool { return s == id })
		delete(g.incoming, id)
	}
	for _, child := range g.outgoing[id] {
		delete(g.incoming, child)
	}
	delete(g.outgoing, id)
}

// Node returns the node for id.
func (g *Graph) Node(id manifest.ComponentID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id manifest.ComponentID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Status returns the status of id, or Unknown if id is not in the graph.
func (g *Graph) Status(id manifest.ComponentID) Status {
	if n, ok := g.nodes[id]; ok {
		return n.Status
	}
	return Unknown
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the direct children of id in insertion order.
// The returned slice must not be modified.
func (g *Graph) Children(id manifest.ComponentID) []manifest.ComponentID { return g.outgoing[id] }

// Parent returns the parent of id.
func (g *Graph) Parent(id manifest.ComponentID) (manifest.ComponentID, bool) {
	p, ok := g.incoming[id]
	return p, ok
}

// Validate checks structural integrity: every edge joins existing nodes at
// consecutive depths, there are no cycles, and every node other than the
// root has a parent.
func (g *Graph) Validate() error {
	if err := g.validateEdgeConsistency(); err != nil {
		return err
	}
	if err := g.detectCycles(); err != nil {
		return err
	}
	for _, id := range g.order {
		if id == g.root {
			continue
		}
		if _, ok := g.incoming[id]; !ok {
			return fmt.Errorf("%w: %s is detached from %s", ErrInvalidEdgeEndpoint, id, g.root)
		}
	}
	return nil
}

func (g *Graph) validateEdgeConsistency() error {
	for _, e := range g.edges {
		src, okS := g.nodes[e.From]
		dst, okD := g.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Depth != src.Depth+1 {
			return ErrNonConsecutiveDepth
		}
	}
	return nil
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[manifest.ComponentID]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id manifest.ComponentID)
	dfs = func(id manifest.ComponentID) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
