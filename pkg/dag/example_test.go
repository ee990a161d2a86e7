package dag_test

import (
	"fmt"

	"github.com/matzehuels/uvm/pkg/dag"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/version"
)

func Example() {
	m := manifest.New(version.MustParse("2019.4.1f1"), manifest.MacOS)
	m.Modules[manifest.Editor] = manifest.Module{ID: manifest.Editor}
	m.Modules[manifest.Android] = manifest.Module{ID: manifest.Android}
	m.Modules[manifest.AndroidNDK] = manifest.Module{ID: manifest.AndroidNDK, SyncParent: manifest.Android}
	m.Modules[manifest.IOS] = manifest.Module{ID: manifest.IOS}

	g := dag.Build(m)
	g.MarkInstalled(manifest.NewComponentSet(manifest.Editor))

	for e := range g.TopologicalOrder() {
		fmt.Println(e.ID, e.Status)
	}
	// Output:
	// editor installed
	// ios missing
	// android missing
	// android-ndk missing
}

func ExampleGraph_DependenciesOf() {
	m := manifest.New(version.MustParse("2019.4.1f1"), manifest.MacOS)
	m.Modules[manifest.Editor] = manifest.Module{ID: manifest.Editor}
	m.Modules[manifest.Android] = manifest.Module{ID: manifest.Android}
	m.Modules[manifest.AndroidNDK] = manifest.Module{ID: manifest.AndroidNDK, SyncParent: manifest.Android}

	g := dag.Build(m)
	for _, e := range g.DependenciesOf(manifest.AndroidNDK) {
		fmt.Println(e.ID)
	}
	// Output:
	// android
	// editor
}

func ExampleGraph_Keep() {
	m := manifest.New(version.MustParse("2019.4.1f1"), manifest.MacOS)
	for _, id := range []manifest.ComponentID{manifest.Editor, manifest.Android, manifest.IOS, manifest.WebGL} {
		m.Modules[id] = manifest.Module{ID: id}
	}

	g := dag.Build(m)
	g.Keep(manifest.NewComponentSet(manifest.Editor, manifest.Android))
	fmt.Println(g.NodeCount(), g.EdgeCount())
	// Output:
	// 2 1
}
