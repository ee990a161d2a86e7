// Package project reads the editor version a project was saved with.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

// VersionFile is the project-relative location of the version file.
var VersionFile = filepath.Join("ProjectSettings", "ProjectVersion.txt")

type versionFile struct {
	EditorVersion             string `yaml:"m_EditorVersion"`
	EditorVersionWithRevision string `yaml:"m_EditorVersionWithRevision"`
}

// Project is a project directory and the version it declares.
type Project struct {
	Root    string
	Version version.Version
}

// Detect finds the project containing path, walking up from it, and parses
// its version file. path may name the project directory, any directory
// inside it, or the version file itself.
func Detect(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	if fi, err := os.Stat(abs); err == nil && !fi.IsDir() {
		v, err := ReadVersionFile(abs)
		if err != nil {
			return nil, err
		}
		return &Project{Root: filepath.Dir(filepath.Dir(abs)), Version: v}, nil
	}
	for dir := abs; ; {
		file := filepath.Join(dir, VersionFile)
		if _, err := os.Stat(file); err == nil {
			v, err := ReadVersionFile(file)
			if err != nil {
				return nil, err
			}
			return &Project{Root: dir, Version: v}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, errors.New(errors.ErrCodeFileNotFound, "no %s found in %s or its parents", VersionFile, path)
}

// ReadVersionFile parses a ProjectVersion.txt file.
func ReadVersionFile(path string) (version.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return ParseVersionFile(data)
}

// ParseVersionFile extracts the editor version from the file contents.
// The revision line is preferred because it carries the build hash.
func ParseVersionFile(data []byte) (version.Version, error) {
	var vf versionFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "decode project version file")
	}
	for _, s := range []string{vf.EditorVersionWithRevision, vf.EditorVersion} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := version.Parse(s)
		if err != nil {
			return version.Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "project version %q", s)
		}
		return v, nil
	}
	return version.Version{}, errors.New(errors.ErrCodeInvalidVersion, "project version file has no m_EditorVersion")
}
