// Package installation describes the on-disk layout of editor installs and
// the record of which modules each one holds.
//
// Every version lives in its own directory below an install root, named by
// its version string. The directory holds a modules.json record listing the
// components that completed installation; components that failed or were
// interrupted are never recorded.
package installation

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matzehuels/uvm/pkg/cache"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/version"
)

// RecordFile is the name of the installed-module record inside an
// installation directory.
const RecordFile = "modules.json"

// Layout maps versions to directories below Root.
type Layout struct {
	Root string
}

// Path returns the installation directory for v.
func (l Layout) Path(v version.Version) string {
	return filepath.Join(l.Root, v.String())
}

// Installation is one version found below the install root.
type Installation struct {
	Version version.Version
	Path    string
	// Record is nil when the directory has no readable record.
	Record *Record
}

// Modules returns the recorded components, sorted.
func (i Installation) Modules() []manifest.ComponentID {
	if i.Record == nil {
		return nil
	}
	return i.Record.Set().Sorted()
}

// Find returns the installation of v, or NOT_FOUND.
func (l Layout) Find(v version.Version) (Installation, error) {
	dir := l.Path(v)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return Installation{}, errors.New(errors.ErrCodeNotFound, "%s is not installed in %s", v, l.Root)
	}
	inst := Installation{Version: v, Path: dir}
	if rec, ok, err := ReadRecord(dir); err == nil && ok {
		inst.Record = rec
		if rec.Version.Hash != "" {
			inst.Version = inst.Version.WithHash(rec.Version.Hash)
		}
	}
	return inst, nil
}

// List returns every installation below the root in ascending version
// order. Directories whose names are not versions are skipped.
func (l Layout) List() ([]Installation, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read install root")
	}
	var out []Installation
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := version.Parse(e.Name())
		if err != nil {
			continue
		}
		inst, err := l.Find(v)
		if err != nil {
			continue
		}
		out = append(out, inst)
	}
	slices.SortStableFunc(out, func(a, b Installation) int { return version.Compare(a.Version, b.Version) })
	return out, nil
}

// Remove deletes the installation directory of v.
func (l Layout) Remove(v version.Version) error {
	dir := l.Path(v)
	if _, err := os.Stat(dir); err != nil {
		return errors.New(errors.ErrCodeNotFound, "%s is not installed in %s", v, l.Root)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", dir)
	}
	return nil
}

// Record is the persisted list of installed components.
type Record struct {
	Version   version.Version   `json:"version"`
	Platform  manifest.Platform `json:"platform,omitempty"`
	Arch      manifest.Arch     `json:"arch,omitempty"`
	Modules   []RecordEntry     `json:"modules"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// RecordEntry is one installed component. Selected marks components the
// user asked for, as opposed to ones pulled in as dependencies.
type RecordEntry struct {
	ID          manifest.ComponentID `json:"id"`
	Selected    bool                 `json:"selected"`
	InstalledAt time.Time            `json:"installedAt"`
}

// NewRecord returns an empty record.
func NewRecord(v version.Version, p manifest.Platform, a manifest.Arch) *Record {
	return &Record{Version: v, Platform: p, Arch: a}
}

// Has reports whether id is recorded.
func (r *Record) Has(id manifest.ComponentID) bool {
	return slices.ContainsFunc(r.Modules, func(e RecordEntry) bool { return e.ID == id })
}

// Add records id as installed at t. Re-adding an id updates its time;
// a component once selected stays selected.
func (r *Record) Add(id manifest.ComponentID, selected bool, t time.Time) {
	for i := range r.Modules {
		if r.Modules[i].ID == id {
			r.Modules[i].InstalledAt = t
			r.Modules[i].Selected = r.Modules[i].Selected || selected
			return
		}
	}
	r.Modules = append(r.Modules, RecordEntry{ID: id, Selected: selected, InstalledAt: t})
}

// Set returns the recorded components.
func (r *Record) Set() manifest.ComponentSet {
	s := make(manifest.ComponentSet, len(r.Modules))
	for _, e := range r.Modules {
		s.Add(e.ID)
	}
	return s
}

// ReadRecord loads the record in dir. ok is false when there is none.
func ReadRecord(dir string) (rec *Record, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(dir, RecordFile))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", RecordFile)
	}
	rec = &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "decode %s in %s", RecordFile, dir)
	}
	return rec, true, nil
}

// WriteRecord stores rec in dir atomically, entries sorted by id.
func WriteRecord(dir string, rec *Record) error {
	rec.Modules = slices.Clone(rec.Modules)
	slices.SortFunc(rec.Modules, func(a, b RecordEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", RecordFile)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	if err := cache.WriteFileAtomic(filepath.Join(dir, RecordFile), append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", RecordFile)
	}
	return nil
}

// InstalledSet returns the components present in dir. Without a record, a
// non-empty directory is taken to hold an editor installed by other means.
func InstalledSet(dir string) (manifest.ComponentSet, error) {
	rec, ok, err := ReadRecord(dir)
	if err != nil {
		return nil, err
	}
	if ok {
		return rec.Set(), nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return manifest.ComponentSet{}, nil
	}
	return manifest.NewComponentSet(manifest.Editor), nil
}
