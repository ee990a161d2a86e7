package dag

import (
	"iter"

	"github.com/matzehuels/uvm/pkg/manifest"
)

// MarkInstalled sets every node to Installed if its ID is in installed and
// to Missing otherwise. Callers add the editor to installed themselves when
// the installation directory exists.
func (g *Graph) MarkInstalled(installed manifest.ComponentSet) {
	for _, n := range g.nodes {
		if installed.Has(n.ID) {
			n.Status = Installed
		} else {
			n.Status = Missing
		}
	}
}

// MarkAllMissing sets every node to Missing.
func (g *Graph) MarkAllMissing() { g.MarkAll(Missing) }

// MarkAll sets every node to s.
func (g *Graph) MarkAll(s Status) {
	for _, n := range g.nodes {
		n.Status = s
	}
}

// DependenciesOf returns the chain of sync parents above id, nearest first
// and root last. It returns nil for the root and for unknown IDs.
func (g *Graph) DependenciesOf(id manifest.ComponentID) []Entry {
	if !g.Has(id) {
		return nil
	}
	var deps []Entry
	for cur, ok := g.incoming[id]; ok; cur, ok = g.incoming[cur] {
		deps = append(deps, g.entry(cur))
		if len(deps) > len(g.nodes) {
			break
		}
	}
	return deps
}

// SubmodulesOf returns every descendant of id in depth-first pre-order,
// excluding id itself.
func (g *Graph) SubmodulesOf(id manifest.ComponentID) []Entry {
	if !g.Has(id) {
		return nil
	}
	var subs []Entry
	var walk func(manifest.ComponentID)
	walk = func(cur manifest.ComponentID) {
		for _, child := range g.outgoing[cur] {
			subs = append(subs, g.entry(child))
			walk(child)
		}
	}
	walk(id)
	return subs
}

// Keep removes every node not in keep. An edge survives only if both of its
// endpoints survive; nodes whose parent is removed become detached.
func (g *Graph) Keep(keep manifest.ComponentSet) {
	for _, id := range append([]manifest.ComponentID(nil), g.order...) {
		if !keep.Has(id) {
			g.RemoveNode(id)
		}
	}
}

// TopologicalOrder yields nodes so that every node comes after its parent.
// Parentless nodes start the walk in insertion order, the root first, and
// children follow breadth-first in insertion order, so the sequence is the
// same for the same graph shape.
func (g *Graph) TopologicalOrder() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		var queue []manifest.ComponentID
		for _, id := range g.order {
			if _, ok := g.incoming[id]; !ok {
				queue = append(queue, id)
			}
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if !yield(g.entry(cur)) {
				return
			}
			queue = append(queue, g.outgoing[cur]...)
		}
	}
}

// Topological collects TopologicalOrder into a slice.
func (g *Graph) Topological() []Entry {
	entries := make([]Entry, 0, len(g.nodes))
	for e := range g.TopologicalOrder() {
		entries = append(entries, e)
	}
	return entries
}

func (g *Graph) entry(id manifest.ComponentID) Entry {
	return Entry{ID: id, Status: g.Status(id)}
}
