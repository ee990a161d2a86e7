package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/uvm/pkg/errors"
)

// entryPath joins an archive entry name onto dest and rejects names that
// would land outside it.
func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !errors.WithinDir(dest, target) {
		return "", errors.New(errors.ErrCodeExtractionFailed, "archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "open zip")
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		target, err := entryPath(dest, file.Name)
		if err != nil {
			return err
		}
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, mode.Perm()|0o700); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		case mode&os.ModeSymlink != 0:
			if err := zipSymlink(file, dest, target); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("prepare file %s: %w", target, err)
		}
		if err := writeZipFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "open zip entry %s", file.Name)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode().Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "copy zip entry %s", file.Name)
	}
	return out.Close()
}

func zipSymlink(file *zip.File, dest, target string) error {
	rc, err := file.Open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "open zip entry %s", file.Name)
	}
	defer func() { _ = rc.Close() }()
	link, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "read link %s", file.Name)
	}
	return symlink(dest, target, string(link))
}

// symlink creates target -> link, refusing links that resolve outside dest.
func symlink(dest, target, link string) error {
	resolved := link
	if !filepath.IsAbs(link) {
		resolved = filepath.Join(filepath.Dir(target), link)
	}
	if !errors.WithinDir(dest, resolved) {
		return errors.New(errors.ErrCodeExtractionFailed, "link %s -> %s escapes the extraction directory", target, link)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	_ = os.Remove(target)
	return os.Symlink(link, target)
}

func extractTarGz(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "open archive")
	}
	defer func() { _ = file.Close() }()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "gzip reader")
	}
	defer func() { _ = gz.Close() }()

	return untarStream(gz, dest)
}

func untarStream(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeExtractionFailed, err, "read tar header")
		}
		target, err := entryPath(dest, header.Name)
		if err != nil {
			return err
		}
		mode := os.FileMode(header.Mode).Perm()
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, mode|0o700); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare file %s: %w", target, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return errors.Wrap(errors.ErrCodeExtractionFailed, err, "write file %s", target)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close file %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if err := symlink(dest, target, header.Linkname); err != nil {
				return err
			}
		default:
			// Hard links, devices and FIFOs do not occur in editor archives.
		}
	}
	return nil
}
