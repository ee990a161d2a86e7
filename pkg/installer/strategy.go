package installer

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uvm/pkg/errors"
)

// Strategy installs one artifact format. The set of strategies is closed;
// obtain one with [Select].
type Strategy interface {
	Format() Format

	// cleanStart reports whether the module destination is emptied before
	// the payload is placed.
	cleanStart() bool

	// unpack extracts the artifact below w.staging and returns the
	// directory whose contents are placed at the destination.
	unpack(ctx context.Context, w *workspace) (string, error)
}

// workspace is the per-job scratch area handed to a strategy. staging is a
// fresh empty directory owned by the job.
type workspace struct {
	runner   Runner
	logger   *log.Logger
	artifact string
	staging  string
}

func (w *workspace) dir(name string) (string, error) {
	d := filepath.Join(w.staging, name)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", d)
	}
	return d, nil
}

type zipStrategy struct{}

func (zipStrategy) Format() Format   { return FormatZip }
func (zipStrategy) cleanStart() bool { return true }

func (zipStrategy) unpack(_ context.Context, w *workspace) (string, error) {
	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	return out, extractZip(w.artifact, out)
}

type tarStrategy struct{ format Format }

func (s tarStrategy) Format() Format { return s.format }
func (tarStrategy) cleanStart() bool { return true }

func (s tarStrategy) unpack(ctx context.Context, w *workspace) (string, error) {
	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	if s.format == FormatTarGz {
		return out, extractTarGz(w.artifact, out)
	}
	return out, w.runner.Run(ctx, out, "tar", "-xJf", w.artifact)
}

// pkgStrategy expands a flat package with xar and unpacks every
// component Payload with cpio.
type pkgStrategy struct{ editor bool }

func (pkgStrategy) Format() Format   { return FormatPkg }
func (pkgStrategy) cleanStart() bool { return true }

func (s pkgStrategy) unpack(ctx context.Context, w *workspace) (string, error) {
	expanded, err := w.dir("expanded")
	if err != nil {
		return "", err
	}
	if err := w.runner.Run(ctx, expanded, "xar", "-xf", w.artifact); err != nil {
		return "", err
	}
	payloads, err := findPayloads(expanded)
	if err != nil {
		return "", err
	}
	if len(payloads) == 0 {
		return "", errors.New(errors.ErrCodeExtractionFailed, "package %s has no payload", filepath.Base(w.artifact))
	}

	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	for _, payload := range payloads {
		archive, err := decompressPayload(payload)
		if err != nil {
			return "", err
		}
		w.logger.Debug("unpacking payload", "payload", payload)
		if err := w.runner.Run(ctx, out, "cpio", "-idmu", "-I", archive); err != nil {
			return "", err
		}
	}
	if s.editor {
		return editorRoot(out), nil
	}
	return out, nil
}

// findPayloads returns Payload files at the top of dir or one level down
// inside component packages, sorted.
func findPayloads(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if d.IsDir() && strings.Count(rel, string(filepath.Separator)) >= 1 {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == "Payload" {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "scan package")
	}
	slices.Sort(found)
	return found, nil
}

// decompressPayload gunzips a gzip payload next to itself and returns the
// path of the raw cpio archive. Uncompressed payloads are returned as is.
func decompressPayload(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "open payload")
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if !bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return path, nil
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "payload gzip")
	}
	defer func() { _ = gz.Close() }()

	raw := path + ".cpio"
	out, err := os.Create(raw)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", raw)
	}
	if _, err := io.Copy(out, gz); err != nil {
		_ = out.Close()
		return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "decompress payload")
	}
	return raw, out.Close()
}

// editorRoot descends into the single top-level folder editor packages wrap
// their payload in. Application bundles are not descended into.
func editorRoot(dir string) string {
	if sub, ok := singleDir(dir); ok && filepath.Ext(sub) == "" {
		return sub
	}
	return dir
}

// exeStrategy runs a self-extracting installer silently into staging.
type exeStrategy struct{}

func (exeStrategy) Format() Format   { return FormatExe }
func (exeStrategy) cleanStart() bool { return true }

func (exeStrategy) unpack(ctx context.Context, w *workspace) (string, error) {
	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	// The target flag must come last and unquoted.
	return out, w.runner.Run(ctx, w.staging, w.artifact, "/S", "/D="+out)
}

// msiStrategy performs an administrative install, which only unpacks files.
type msiStrategy struct{}

func (msiStrategy) Format() Format   { return FormatMsi }
func (msiStrategy) cleanStart() bool { return true }

func (msiStrategy) unpack(ctx context.Context, w *workspace) (string, error) {
	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	return out, w.runner.Run(ctx, w.staging, "msiexec", "/a", w.artifact, "/qn", "TARGETDIR="+out)
}

// poStrategy copies a translation file into place.
type poStrategy struct{}

func (poStrategy) Format() Format   { return FormatPo }
func (poStrategy) cleanStart() bool { return false }

func (poStrategy) unpack(_ context.Context, w *workspace) (string, error) {
	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	if err := copyFile(w.artifact, filepath.Join(out, filepath.Base(w.artifact)), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "copy %s", filepath.Base(w.artifact))
	}
	return out, nil
}

// dmgStrategy mounts a disk image and installs the package inside it, or
// copies its contents when it holds no package.
type dmgStrategy struct{ editor bool }

func (dmgStrategy) Format() Format   { return FormatDmg }
func (dmgStrategy) cleanStart() bool { return true }

func (s dmgStrategy) unpack(ctx context.Context, w *workspace) (string, error) {
	mnt, err := w.dir("mnt")
	if err != nil {
		return "", err
	}
	if err := w.runner.Run(ctx, w.staging, "hdiutil", "attach", "-nobrowse", "-readonly", "-noautoopen", "-mountpoint", mnt, w.artifact); err != nil {
		return "", err
	}
	defer func() {
		if err := w.runner.Run(context.WithoutCancel(ctx), w.staging, "hdiutil", "detach", mnt, "-force"); err != nil {
			w.logger.Warn("detach disk image", "mountpoint", mnt, "err", err)
		}
	}()

	entries, err := os.ReadDir(mnt)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "read disk image")
	}
	for _, e := range entries {
		if strings.EqualFold(filepath.Ext(e.Name()), ".pkg") {
			inner := &workspace{runner: w.runner, logger: w.logger, artifact: filepath.Join(mnt, e.Name())}
			if inner.staging, err = w.dir("pkg"); err != nil {
				return "", err
			}
			return pkgStrategy{editor: s.editor}.unpack(ctx, inner)
		}
	}

	out, err := w.dir("payload")
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if err := copyTree(filepath.Join(mnt, name), filepath.Join(out, name)); err != nil {
			return "", errors.Wrap(errors.ErrCodeExtractionFailed, err, "copy %s from disk image", name)
		}
	}
	return out, nil
}
