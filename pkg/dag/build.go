package dag

import (
	"fmt"
	"slices"

	"github.com/matzehuels/uvm/pkg/manifest"
)

// WarnFunc receives sync-parent problems that Build resolved by attaching
// the module to the root.
type WarnFunc func(id, parent manifest.ComponentID, err error)

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	warn   WarnFunc
	strict bool
}

// WithWarn installs a callback for sync parents that could not be honored.
func WithWarn(fn WarnFunc) BuildOption {
	return func(o *buildOptions) { o.warn = fn }
}

// Build creates the install graph for m.
//
// The editor is the root. Modules without a sync parent hang directly below
// it; modules with one hang below that parent, so sync chains of any depth
// are kept. Siblings are inserted in reverse-lexicographic ID order.
//
// A sync parent that is missing from m, that is not a known component, or
// that leads back into a loop is ignored and the module is attached to the
// root. Build never fails; use [BuildStrict] to reject such catalogs.
func Build(m *manifest.Manifest, opts ...BuildOption) *Graph {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	g, _ := build(m, o)
	return g
}

// BuildStrict is like Build but returns ErrUnknownSyncParent or
// ErrSyncCycle instead of attaching a misplaced module to the root.
// Sync parents that are unknown components are still tolerated.
func BuildStrict(m *manifest.Manifest) (*Graph, error) {
	return build(m, buildOptions{strict: true})
}

func build(m *manifest.Manifest, o buildOptions) (*Graph, error) {
	g := New(manifest.Editor)
	editor, ok := m.Editor()
	if !ok {
		editor = manifest.Module{ID: manifest.Editor}
	}
	_ = g.AddNode(Node{ID: manifest.Editor, Module: editor})

	ids := slices.DeleteFunc(m.IDs(), func(id manifest.ComponentID) bool { return id.IsEditor() })
	slices.Reverse(ids)
	for _, id := range ids {
		mod, _ := m.Get(id)
		_ = g.AddNode(Node{ID: id, Module: mod})
	}

	parents := make(map[manifest.ComponentID]manifest.ComponentID, len(ids))
	for _, id := range ids {
		p, err := syncParent(m, id)
		if err != nil {
			if o.strict {
				return nil, err
			}
			if o.warn != nil {
				o.warn(id, p, err)
			}
			p = manifest.Editor
		}
		parents[id] = p
	}
	for _, id := range ids {
		if !reaches(parents, id) {
			continue
		}
		err := fmt.Errorf("%w: %s", ErrSyncCycle, id)
		if o.strict {
			return nil, err
		}
		if o.warn != nil {
			o.warn(id, parents[id], err)
		}
		parents[id] = manifest.Editor
	}

	kids := make(map[manifest.ComponentID][]manifest.ComponentID, len(ids))
	for _, id := range ids {
		kids[parents[id]] = append(kids[parents[id]], id)
	}
	queue := []manifest.ComponentID{manifest.Editor}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range kids[cur] {
			_ = g.AddEdge(cur, child)
			queue = append(queue, child)
		}
	}
	return g, nil
}

// syncParent returns the node id should hang below. Unknown components
// cannot carry dependents, so naming one is not an error.
func syncParent(m *manifest.Manifest, id manifest.ComponentID) (manifest.ComponentID, error) {
	mod, _ := m.Get(id)
	p := mod.SyncParent
	switch {
	case p == "" || p.IsEditor() || p == id:
		return manifest.Editor, nil
	case !p.IsKnown():
		return manifest.Editor, nil
	}
	if _, ok := m.Get(p); !ok {
		return p, fmt.Errorf("%w: %s names %s", ErrUnknownSyncParent, id, p)
	}
	return p, nil
}

// reaches reports whether following parents from id's parent returns to id.
func reaches(parents map[manifest.ComponentID]manifest.ComponentID, id manifest.ComponentID) bool {
	seen := map[manifest.ComponentID]bool{}
	for cur := parents[id]; !cur.IsEditor(); cur = parents[cur] {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}
