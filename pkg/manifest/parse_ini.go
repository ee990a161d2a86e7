package manifest

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

// Sizes in flat catalogs are kilobytes.
const iniSizeUnit = 1024

// parseINI reads the flat shape:
//
//	[Unity]
//	title=Unity 2018.2.0f2
//	url=MacEditorInstaller/Unity.pkg
//	md5=...
//	size=1048576
//
//	[Android]
//	url=MacEditorTargetInstaller/UnitySetup-Android-Support-for-Editor-2018.2.0f2.pkg
//	sync=Unity
func parseINI(doc Document, v version.Version, p Platform) (*Manifest, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowBooleanKeys:    true,
	}, doc.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "parse flat catalog")
	}

	m := New(v, p)
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		id, err := ParseComponentID(sec.Name())
		if err != nil {
			m.skip(sec.Name(), err)
			continue
		}
		mod, err := iniModule(sec, id, doc.BaseURL, p)
		if err != nil {
			return nil, err
		}
		m.add(mod)
	}
	return m, nil
}

func iniModule(sec *ini.Section, id ComponentID, baseURL string, p Platform) (Module, error) {
	mod := Module{ID: id, Visible: true}
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		value := strings.TrimSpace(key.String())

		switch name {
		case "title":
			mod.Title = value
		case "description":
			mod.Description = value
		case "category":
			mod.Category = value
		case "url":
			mod.DownloadURL = resolveURL(baseURL, value)
		case "size":
			n, err := key.Uint64()
			if err != nil {
				return Module{}, iniFieldError(sec, key, err)
			}
			mod.DownloadSize = n * iniSizeUnit
		case "installedsize":
			n, err := key.Uint64()
			if err != nil {
				return Module{}, iniFieldError(sec, key, err)
			}
			mod.InstalledSize = n * iniSizeUnit
		case "md5", "sha1", "sha256", "sha384", "sha512":
			if value == "" {
				continue
			}
			sum, err := ParseChecksum(name + ":" + value)
			if err != nil {
				return Module{}, iniFieldError(sec, key, err)
			}
			mod.Checksum = &sum
		case "install":
			mod.Selected = key.MustBool(false)
		case "hidden":
			mod.Visible = !key.MustBool(false)
		case "sync":
			if value == "" {
				continue
			}
			parent, err := ParseComponentID(value)
			if err != nil {
				return Module{}, iniFieldError(sec, key, err)
			}
			if parent != id {
				mod.SyncParent = parent
			}
		case "destination":
			mod.Destination = normalizePlaceholder(value)
		case "rename_from", "renamefrom":
			mod.RenameFrom = normalizePlaceholder(value)
		case "rename_to", "renameto":
			mod.RenameTo = normalizePlaceholder(value)
		case "extension", "type":
			mod.Format = strings.ToLower(strings.TrimPrefix(value, "."))
		default:
			if mod.Extra == nil {
				mod.Extra = map[string]string{}
			}
			mod.Extra[key.Name()] = key.String()
		}
	}

	if mod.SyncParent == Editor {
		mod.SyncParent = ""
	}
	if mod.Destination == "" {
		mod.Destination = DefaultDestination(id, p)
	}
	if mod.Title == "" {
		mod.Title = sec.Name()
	}
	return mod, nil
}

func iniFieldError(sec *ini.Section, key *ini.Key, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "section [%s] key %q", sec.Name(), key.Name())
}
