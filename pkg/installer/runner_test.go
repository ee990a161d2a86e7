package installer

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/uvm/pkg/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestExecRunnerSuccess(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	err := ExecRunner{}.Run(context.Background(), dir, "sh", "-c", "echo hi > out.txt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out.txt"))
}

func TestExecRunnerFailureCarriesStderr(t *testing.T) {
	requireShell(t)
	err := ExecRunner{}.Run(context.Background(), t.TempDir(), "sh", "-c", "echo broken payload >&2; exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeExtractionFailed))

	var cerr *CommandError
	require.True(t, stderrors.As(err, &cerr))
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Equal(t, "broken payload", cerr.Stderr)
	assert.Equal(t, "sh", cerr.Name)
}

func TestExecRunnerMissingTool(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), t.TempDir(), "uvm-no-such-tool")
	assert.True(t, errors.Is(err, errors.ErrCodeExtractionFailed))
}

func TestExecRunnerCancel(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := ExecRunner{}.Run(ctx, t.TempDir(), "sleep", "5")
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestMoveTreeMerges(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a/new.txt"), "new")
	writeFile(t, filepath.Join(src, "b.txt"), "replacement")
	writeFile(t, filepath.Join(dst, "a/existing.txt"), "kept")
	writeFile(t, filepath.Join(dst, "b.txt"), "old")

	require.NoError(t, moveTree(src, dst))
	assert.Equal(t, "new", readFile(t, filepath.Join(dst, "a/new.txt")))
	assert.Equal(t, "kept", readFile(t, filepath.Join(dst, "a/existing.txt")))
	assert.Equal(t, "replacement", readFile(t, filepath.Join(dst, "b.txt")))

	_, err := os.Stat(filepath.Join(src, "b.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCopyTreeKeepsSymlinks(t *testing.T) {
	requireShell(t)
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "lib/real.so"), "so")
	require.NoError(t, os.Symlink("real.so", filepath.Join(src, "lib/link.so")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, copyTree(src, dst))
	link, err := os.Readlink(filepath.Join(dst, "lib/link.so"))
	require.NoError(t, err)
	assert.Equal(t, "real.so", link)
	assert.Equal(t, "so", readFile(t, filepath.Join(dst, "lib/real.so")))
}
