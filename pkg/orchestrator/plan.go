package orchestrator

import (
	"github.com/matzehuels/uvm/pkg/dag"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/manifest"
)

// Task is one module scheduled for installation.
type Task struct {
	Module manifest.Module
	// Selected is true for modules the caller asked for by name.
	Selected bool
	// After is the nearest scheduled ancestor. The task's install step
	// waits for it; empty when nothing scheduled gates the task.
	After manifest.ComponentID
}

// ID returns the module's component id.
func (t Task) ID() manifest.ComponentID { return t.Module.ID }

// Plan expands requested into the tasks needed to install it into the
// installation g describes. g must already carry install status.
//
// An empty request means the editor alone. Every requested module brings
// its missing sync ancestors; with withSync it also brings its missing
// descendants. A missing editor is always scheduled. Installed modules
// are never scheduled.
//
// Plan prunes g to the scheduled modules and returns them in topological
// order, so the editor, when present, comes first.
func Plan(g *dag.Graph, m *manifest.Manifest, requested []manifest.ComponentID, withSync bool) ([]Task, error) {
	if len(requested) == 0 {
		requested = []manifest.ComponentID{manifest.Editor}
	}

	want := manifest.ComponentSet{}
	selected := manifest.NewComponentSet(requested...)
	add := func(id manifest.ComponentID) {
		if g.Status(id) != dag.Installed {
			want.Add(id)
		}
	}
	for _, id := range requested {
		if !g.Has(id) {
			return nil, errors.New(errors.ErrCodeModuleNotFound, "module %q is not available for %s", id, m.Version)
		}
		add(id)
		for _, dep := range g.DependenciesOf(id) {
			add(dep.ID)
		}
		if withSync {
			for _, sub := range g.SubmodulesOf(id) {
				add(sub.ID)
			}
		}
	}
	if g.Has(g.Root()) {
		add(g.Root())
	}

	// Gates come from the full graph: a scheduled module whose parent is
	// already installed still waits for a scheduled grandparent.
	after := make(map[manifest.ComponentID]manifest.ComponentID, len(want))
	for id := range want {
		for _, dep := range g.DependenciesOf(id) {
			if want.Has(dep.ID) {
				after[id] = dep.ID
				break
			}
		}
	}

	g.Keep(want)
	tasks := make([]Task, 0, len(want))
	for e := range g.TopologicalOrder() {
		mod, ok := m.Get(e.ID)
		if !ok {
			return nil, errors.New(errors.ErrCodeModuleNotFound, "module %q is not available for %s", e.ID, m.Version)
		}
		tasks = append(tasks, Task{Module: mod, Selected: selected.Has(e.ID), After: after[e.ID]})
	}
	return tasks, nil
}

// satisfied lists the requested modules and their ancestors that are
// already installed, in topological order of g.
func satisfied(g *dag.Graph, requested []manifest.ComponentID) []manifest.ComponentID {
	if len(requested) == 0 {
		requested = []manifest.ComponentID{manifest.Editor}
	}
	seen := manifest.ComponentSet{}
	for _, id := range requested {
		if g.Status(id) == dag.Installed {
			seen.Add(id)
		}
		for _, dep := range g.DependenciesOf(id) {
			if dep.Status == dag.Installed {
				seen.Add(dep.ID)
			}
		}
	}
	var out []manifest.ComponentID
	for e := range g.TopologicalOrder() {
		if seen.Has(e.ID) {
			out = append(out, e.ID)
		}
	}
	return out
}
