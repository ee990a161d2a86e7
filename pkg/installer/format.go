package installer

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/manifest"
)

// Format is an artifact format the pipeline knows how to install.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatPkg            // flat package archive (xar + cpio payload)
	FormatTarXz
	FormatTarGz
	FormatZip
	FormatExe // self-extracting installer
	FormatMsi // installer database
	FormatPo  // translation file, copied as is
	FormatDmg // disk image
)

var formatNames = map[Format]string{
	FormatPkg:   "pkg",
	FormatTarXz: "tar.xz",
	FormatTarGz: "tar.gz",
	FormatZip:   "zip",
	FormatExe:   "exe",
	FormatMsi:   "msi",
	FormatPo:    "po",
	FormatDmg:   "dmg",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// suffixes is checked in order, so compound suffixes come first.
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".zip", FormatZip},
	{".pkg", FormatPkg},
	{".exe", FormatExe},
	{".msi", FormatMsi},
	{".po", FormatPo},
	{".dmg", FormatDmg},
}

// ParseFormat maps a file name or a catalog type hint ("pkg", "tar.xz",
// ".zip") to a Format.
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatUnknown
	}
	if !strings.HasPrefix(s, ".") && !strings.Contains(s, "/") {
		for f, name := range formatNames {
			if s == name {
				return f
			}
		}
	}
	for _, e := range suffixes {
		if strings.HasSuffix(s, e.suffix) {
			return e.format
		}
	}
	return FormatUnknown
}

// Detect returns the format of an artifact: the file extension wins, then
// the module's type hint, then the download URL.
func Detect(mod manifest.Module, artifact string) Format {
	if f := ParseFormat(filepath.Base(artifact)); f != FormatUnknown {
		return f
	}
	if f := ParseFormat(mod.Format); f != FormatUnknown {
		return f
	}
	return ParseFormat(mod.FileName())
}

// Select picks the install strategy for mod. It is the only place that
// maps formats to strategies.
func Select(mod manifest.Module, artifact string) (Strategy, error) {
	editor := mod.IsEditor()
	switch f := Detect(mod, artifact); f {
	case FormatPkg:
		return pkgStrategy{editor: editor}, nil
	case FormatTarXz:
		return tarStrategy{format: FormatTarXz}, nil
	case FormatTarGz:
		return tarStrategy{format: FormatTarGz}, nil
	case FormatZip:
		return zipStrategy{}, nil
	case FormatExe:
		return exeStrategy{}, nil
	case FormatMsi:
		return msiStrategy{}, nil
	case FormatPo:
		return poStrategy{}, nil
	case FormatDmg:
		return dmgStrategy{editor: editor}, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupportedFormat, "no installer for %s (%s)", mod.ID, filepath.Base(artifact))
}
