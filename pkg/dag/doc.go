// Package dag provides the install graph: a rooted tree of components for
// one editor version, with per-node install status.
//
// # Overview
//
// Every catalog module becomes a [Node]. The base editor is the single root.
// A module that names a sync parent hangs below that parent, any other
// module hangs directly below the editor. An edge From→To means To is
// installed alongside From and depends on it being present.
//
//	m, _ := manifest.Parse(doc, v, manifest.MacOS, manifest.ARM64)
//	g := dag.Build(m)
//	g.MarkInstalled(manifest.NewComponentSet(manifest.Editor))
//	for e := range g.TopologicalOrder() {
//		fmt.Println(e.ID, e.Status)
//	}
//
// # Determinism
//
// Siblings are inserted in reverse-lexicographic ID order and all
// traversals follow insertion order, so [Graph.TopologicalOrder],
// [Graph.SubmodulesOf] and [Graph.ToDOT] produce the same output for the
// same catalog.
//
// # Lenient sync parents
//
// [Build] never fails. A sync parent missing from the catalog, or a loop of
// sync parents, is reported through [WithWarn] and the affected module is
// attached to the root. [BuildStrict] turns these into errors.
//
// # Filtering
//
// [Graph.Keep] destructively narrows the graph to a component set, which is
// how the orchestrator reduces the full catalog to the modules it installs.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. The orchestrator builds, marks and
// filters it on one goroutine before scheduling any work.
package dag
