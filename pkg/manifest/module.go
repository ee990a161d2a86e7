package manifest

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// BasePathPlaceholder is replaced by the installation root in destinations.
const BasePathPlaceholder = "{BASE_PATH}"

// legacyPlaceholder is the older spelling found in module-tree catalogs.
const legacyPlaceholder = "{UNITY_PATH}"

// Module is one installable unit as described by a catalog.
//
// Modules are value records: parsers build them once and nothing mutates
// them afterwards.
type Module struct {
	ID          ComponentID `json:"id"`
	Title       string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`

	DownloadURL   string    `json:"downloadUrl"`
	DownloadSize  uint64    `json:"downloadSize,omitempty"`
	InstalledSize uint64    `json:"installedSize,omitempty"`
	Checksum      *Checksum `json:"checksum,omitempty"`

	// Destination is where the module is placed, relative to the
	// installation root via {BASE_PATH}. Empty means the root itself.
	Destination string `json:"destination,omitempty"`
	RenameFrom  string `json:"renameFrom,omitempty"`
	RenameTo    string `json:"renameTo,omitempty"`

	// SyncParent names the module this one is installed alongside.
	SyncParent ComponentID `json:"sync,omitempty"`
	Visible    bool        `json:"visible"`
	Selected   bool        `json:"selected"`

	// Format is an optional installer type hint ("pkg", "zip", ...) used
	// when the download URL has no telling extension.
	Format string `json:"type,omitempty"`

	// Extra holds catalog fields this package does not interpret.
	Extra map[string]string `json:"extra,omitempty"`
}

// IsEditor reports whether m is the base editor.
func (m Module) IsEditor() bool { return m.ID.IsEditor() }

// ResolvedDestination returns the absolute destination under base.
func (m Module) ResolvedDestination(base string) string {
	if m.Destination == "" {
		return filepath.Clean(base)
	}
	return expandBasePath(m.Destination, base)
}

// HasRename reports whether the module declares a post-install rename.
func (m Module) HasRename() bool {
	return m.RenameFrom != "" && m.RenameTo != ""
}

// ResolvedRename returns the absolute rename source and target under base.
func (m Module) ResolvedRename(base string) (from, to string, ok bool) {
	if !m.HasRename() {
		return "", "", false
	}
	return expandBasePath(m.RenameFrom, base), expandBasePath(m.RenameTo, base), true
}

// FileName returns the artifact file name derived from the download URL.
func (m Module) FileName() string {
	if u, err := url.Parse(m.DownloadURL); err == nil && u.Path != "" {
		if name, err := url.PathUnescape(path.Base(u.Path)); err == nil && name != "/" && name != "." {
			return name
		}
	}
	return string(m.ID)
}

// expandBasePath substitutes base for the placeholder. Paths without a
// placeholder are taken relative to base.
func expandBasePath(p, base string) string {
	p = strings.ReplaceAll(p, legacyPlaceholder, BasePathPlaceholder)
	if rest, ok := strings.CutPrefix(p, BasePathPlaceholder); ok {
		return filepath.Join(base, filepath.FromSlash(rest))
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

func normalizePlaceholder(p string) string {
	return strings.ReplaceAll(p, legacyPlaceholder, BasePathPlaceholder)
}
