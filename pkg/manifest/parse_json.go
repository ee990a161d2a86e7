package manifest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

// releaseDocument is the module-tree shape:
//
//	{
//	  "version": "2021.3.5f1",
//	  "revision": "40eb3a945986",
//	  "platforms": [{
//	    "platform": "mac", "arch": "arm64",
//	    "editor": {"downloadUrl": "...", "checksum": "sha384-..."},
//	    "modules": [{"id": "android", "subModules": [{"id": "android-open-jdk"}]}]
//	  }]
//	}
type releaseDocument struct {
	Version   string            `json:"version"`
	Revision  string            `json:"revision"`
	Platforms []releasePlatform `json:"platforms"`
}

type releasePlatform struct {
	Platform string      `json:"platform"`
	Arch     string      `json:"arch"`
	Editor   rawModule   `json:"editor"`
	Modules  []rawModule `json:"modules"`
}

type rawModule map[string]json.RawMessage

func parseJSON(doc Document, v version.Version, p Platform, a Arch) (*Manifest, error) {
	var rel releaseDocument
	if err := json.Unmarshal(doc.Body, &rel); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "parse release catalog")
	}

	plat, err := selectPlatform(rel.Platforms, p, a)
	if err != nil {
		return nil, err
	}

	if v.Hash == "" && rel.Revision != "" {
		v = v.WithHash(rel.Revision)
	}
	m := New(v, p)

	if len(plat.Editor) > 0 {
		ed, err := plat.Editor.module(doc.BaseURL, "")
		if err != nil {
			return nil, err
		}
		ed.ID = Editor
		ed.SyncParent = ""
		if ed.Title == "" {
			ed.Title = "Editor " + v.String()
		}
		m.add(ed)
	}

	for _, raw := range plat.Modules {
		if err := addTree(m, raw, doc.BaseURL, ""); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// selectPlatform picks the entry matching p and a, falling back to the
// first entry for p when no architecture matches.
func selectPlatform(ps []releasePlatform, p Platform, a Arch) (releasePlatform, error) {
	var fallback *releasePlatform
	for i := range ps {
		pp, err := ParsePlatform(ps[i].Platform)
		if err != nil || pp != p {
			continue
		}
		if ps[i].Arch == "" {
			if fallback == nil {
				fallback = &ps[i]
			}
			continue
		}
		if pa, err := ParseArch(ps[i].Arch); err == nil && pa == a {
			return ps[i], nil
		}
		if fallback == nil {
			fallback = &ps[i]
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return releasePlatform{}, errors.New(errors.ErrCodeModuleNotFound, "catalog has no entry for %s/%s", p, a)
}

// addTree adds raw and, recursively, its subModules. Nesting sets the
// sync parent unless the module names one explicitly. A module whose id
// is unusable is skipped together with its subModules, which could not
// be installed without it.
func addTree(m *Manifest, raw rawModule, baseURL string, parent ComponentID) error {
	if rawID, ok := raw.id(); ok {
		if _, err := ParseComponentID(rawID); err != nil {
			m.skip(rawID, err)
			return nil
		}
	}
	mod, err := raw.module(baseURL, parent)
	if err != nil {
		return err
	}
	if mod.ID == "" {
		return errors.New(errors.ErrCodeInvalidCatalog, "module without id under %q", parent)
	}
	if mod.Destination == "" {
		mod.Destination = DefaultDestination(mod.ID, m.Platform)
	}
	m.add(mod)

	var children []rawModule
	if err := raw.decode("subModules", &children); err != nil {
		return err
	}
	for _, child := range children {
		if err := addTree(m, child, baseURL, mod.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r rawModule) module(baseURL string, parent ComponentID) (Module, error) {
	mod := Module{Visible: true, SyncParent: parent}

	for key, value := range r {
		var err error
		switch key {
		case "id":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.ID, err = ParseComponentID(s)
			}
		case "name", "title":
			err = json.Unmarshal(value, &mod.Title)
		case "description":
			err = json.Unmarshal(value, &mod.Description)
		case "category":
			err = json.Unmarshal(value, &mod.Category)
		case "url", "downloadUrl":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.DownloadURL = resolveURL(baseURL, s)
			}
		case "downloadSize":
			mod.DownloadSize, err = jsonUint(value)
		case "installedSize":
			mod.InstalledSize, err = jsonUint(value)
		case "checksum", "integrity":
			var s string
			if err = json.Unmarshal(value, &s); err == nil && s != "" {
				var sum Checksum
				if sum, err = ParseChecksum(s); err == nil {
					mod.Checksum = &sum
				}
			}
		case "destination":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.Destination = normalizePlaceholder(s)
			}
		case "renameFrom":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.RenameFrom = normalizePlaceholder(s)
			}
		case "renameTo":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.RenameTo = normalizePlaceholder(s)
			}
		case "extractedPathRename":
			var rn struct{ From, To string }
			if err = json.Unmarshal(value, &rn); err == nil {
				mod.RenameFrom = normalizePlaceholder(rn.From)
				mod.RenameTo = normalizePlaceholder(rn.To)
			}
		case "sync":
			var s string
			if err = json.Unmarshal(value, &s); err == nil && s != "" {
				mod.SyncParent, err = ParseComponentID(s)
			}
		case "visible":
			err = json.Unmarshal(value, &mod.Visible)
		case "hidden":
			var hidden bool
			if err = json.Unmarshal(value, &hidden); err == nil {
				mod.Visible = !hidden
			}
		case "selected", "preSelected":
			err = json.Unmarshal(value, &mod.Selected)
		case "type":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				mod.Format = strings.ToLower(s)
			}
		case "subModules":
			// handled by addTree
		default:
			if mod.Extra == nil {
				mod.Extra = map[string]string{}
			}
			mod.Extra[key] = rawText(value)
		}
		if err != nil {
			return Module{}, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "module field %q", key)
		}
	}

	if mod.SyncParent == Editor || mod.SyncParent == mod.ID {
		mod.SyncParent = ""
	}
	return mod, nil
}

// id returns the module's id field when it is a JSON string.
func (r rawModule) id() (string, bool) {
	value, ok := r["id"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", false
	}
	return s, true
}

func (r rawModule) decode(key string, v any) error {
	value, ok := r[key]
	if !ok || string(value) == "null" {
		return nil
	}
	if err := json.Unmarshal(value, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "module field %q", key)
	}
	return nil
}

// jsonUint accepts sizes written as numbers or numeric strings.
func jsonUint(raw json.RawMessage) (uint64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.ParseUint(n.String(), 10, 64)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}

// rawText renders an uninterpreted field: strings unquoted, anything else
// as compact JSON.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
