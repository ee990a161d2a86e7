package dag

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/uvm/pkg/manifest"
)

type jsonGraph struct {
	Root  manifest.ComponentID `json:"root"`
	Nodes []jsonNode           `json:"nodes"`
	Edges []Edge               `json:"edges"`
}

type jsonNode struct {
	ID     manifest.ComponentID `json:"id"`
	Title  string               `json:"title,omitempty"`
	Status string               `json:"status"`
	Depth  int                  `json:"depth"`
	Sync   manifest.ComponentID `json:"sync,omitempty"`
}

// WriteJSON writes the graph as indented JSON, nodes in topological order.
func (g *Graph) WriteJSON(w io.Writer) error {
	out := jsonGraph{
		Root:  g.root,
		Nodes: make([]jsonNode, 0, len(g.nodes)),
		Edges: g.Edges(),
	}
	for e := range g.TopologicalOrder() {
		n := g.nodes[e.ID]
		jn := jsonNode{ID: n.ID, Title: n.Module.Title, Status: n.Status.String(), Depth: n.Depth}
		if p, ok := g.Parent(n.ID); ok {
			jn.Sync = p
		}
		out.Nodes = append(out.Nodes, jn)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
