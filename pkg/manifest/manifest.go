package manifest

import (
	"maps"
	"slices"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

// Manifest is the module catalog for one editor version on one platform.
type Manifest struct {
	Version  version.Version
	Platform Platform
	Modules  map[ComponentID]Module

	// Skipped lists catalog entries dropped because their id is not a
	// safe component id. The rest of the catalog is still usable.
	Skipped []SkippedModule
}

// SkippedModule is a catalog entry the parser could not accept.
type SkippedModule struct {
	ID  string
	Err error
}

// skip records a dropped entry.
func (m *Manifest) skip(id string, err error) {
	m.Skipped = append(m.Skipped, SkippedModule{ID: id, Err: err})
}

// New returns an empty manifest.
func New(v version.Version, p Platform) *Manifest {
	return &Manifest{Version: v, Platform: p, Modules: map[ComponentID]Module{}}
}

// add inserts m unless a module with the same id is already present.
// Parsers and synthesis call it while the manifest is being built.
func (m *Manifest) add(mod Module) bool {
	if _, dup := m.Modules[mod.ID]; dup {
		return false
	}
	m.Modules[mod.ID] = mod
	return true
}

// Get returns the module with the given id.
func (m *Manifest) Get(id ComponentID) (Module, bool) {
	mod, ok := m.Modules[id]
	return mod, ok
}

// Lookup is like Get but returns a coded MODULE_NOT_FOUND error.
func (m *Manifest) Lookup(id ComponentID) (Module, error) {
	mod, ok := m.Modules[id]
	if !ok {
		return Module{}, errors.New(errors.ErrCodeModuleNotFound, "module %q is not available for %s on %s", id, m.Version, m.Platform)
	}
	return mod, nil
}

// Editor returns the base editor module.
func (m *Manifest) Editor() (Module, bool) {
	return m.Get(Editor)
}

// IDs returns all module ids, sorted.
func (m *Manifest) IDs() []ComponentID {
	return slices.Sorted(maps.Keys(m.Modules))
}

// Len returns the number of modules.
func (m *Manifest) Len() int { return len(m.Modules) }
