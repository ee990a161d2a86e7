package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/loader"
	"github.com/matzehuels/uvm/pkg/manifest"
)

type testEnv struct {
	root  string
	cache string
	logs  bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &testEnv{root: t.TempDir(), cache: t.TempDir()}
}

// run executes the root command against the env's directories.
func (e *testEnv) run(t *testing.T, args ...string) (*CLI, error) {
	t.Helper()
	c := New(&e.logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--install-root", e.root, "--cache-dir", e.cache, "--cache", "none"}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	c.Close()
	return c, err
}

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	mkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestConfigFlagsReachCommands(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if c.Config.InstallRoot != env.root {
		t.Errorf("InstallRoot = %q, want %q", c.Config.InstallRoot, env.root)
	}
	if c.Config.CacheDir != env.cache {
		t.Errorf("CacheDir = %q, want %q", c.Config.CacheDir, env.cache)
	}
}

func TestUninstall(t *testing.T) {
	env := newTestEnv(t)
	inst := filepath.Join(env.root, "2022.3.10f1")
	writeTestFile(t, filepath.Join(inst, "Editor", "Unity"), "bin")
	artifacts := filepath.Join(loader.New(env.cache).Dir(), "2022.3.10f1")
	writeTestFile(t, filepath.Join(artifacts, "editor.tar.xz"), "xz")

	if _, err := env.run(t, "uninstall", "2022.3.10f1"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if exists(inst) {
		t.Error("installation directory still present")
	}
	if exists(artifacts) {
		t.Error("cached artifacts still present")
	}
}

func TestUninstallKeepArtifacts(t *testing.T) {
	env := newTestEnv(t)
	mkdirAll(t, filepath.Join(env.root, "2022.3.10f1", "Editor"))
	artifact := filepath.Join(loader.New(env.cache).Dir(), "2022.3.10f1", "editor.tar.xz")
	writeTestFile(t, artifact, "xz")

	if _, err := env.run(t, "uninstall", "2022.3.10f1", "--keep-artifacts"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if !exists(artifact) {
		t.Error("artifact removed despite --keep-artifacts")
	}
}

func TestUninstallMissing(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "uninstall", "2022.3.10f1")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"install bad version", []string{"install", "2022.3"}, errors.ErrCodeInvalidVersion},
		{"install bad module", []string{"install", "2022.3.10f1", "-m", "../etc"}, errors.ErrCodeInvalidInput},
		{"modules bad version", []string{"modules", "latest"}, errors.ErrCodeInvalidVersion},
		{"graph bad format", []string{"graph", "2022.3.10f1", "--format", "png"}, errors.ErrCodeInvalidInput},
		{"uninstall bad version", []string{"uninstall", "x"}, errors.ErrCodeInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	env := newTestEnv(t)
	proj := t.TempDir()
	writeTestFile(t, filepath.Join(proj, "ProjectSettings", "ProjectVersion.txt"),
		"m_EditorVersion: 2021.3.5f1\nm_EditorVersionWithRevision: 2021.3.5f1 (40eb3a945986)\n")

	if _, err := env.run(t, "detect", filepath.Join(proj, "ProjectSettings")); err != nil {
		t.Errorf("detect: %v", err)
	}
	if _, err := env.run(t, "detect", "-q", proj); err != nil {
		t.Errorf("detect -q: %v", err)
	}

	_, err := env.run(t, "detect", t.TempDir())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "uvm", "config.toml")

	if _, err := env.run(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !exists(path) {
		t.Fatal("config file not written")
	}
	if _, err := env.run(t, "--config", path, "config", "init"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init err = %v, want INVALID_INPUT", err)
	}
	if _, err := env.run(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}

	c, err := env.run(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if c.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", c.ConfigFile, path)
	}
}

func TestCacheClear(t *testing.T) {
	env := newTestEnv(t)
	dir := loader.New(env.cache).Dir()
	writeTestFile(t, filepath.Join(dir, "2022.3.10f1", "editor.tar.xz"), "0123456789")
	writeTestFile(t, filepath.Join(dir, "2021.3.5f1", "ios.pkg"), "pkg")

	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if exists(dir) {
		t.Error("artifact directory still present")
	}
}

func TestClearDirMissing(t *testing.T) {
	count, size, err := clearDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil || count != 0 || size != 0 {
		t.Errorf("clearDir(missing) = %d, %d, %v", count, size, err)
	}
}

func TestParseModules(t *testing.T) {
	ids, err := parseModules([]string{"Android", " uwp ", "unity"})
	if err != nil {
		t.Fatal(err)
	}
	want := []manifest.ComponentID{manifest.Android, manifest.UniversalWindowsPlatform, manifest.Editor}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
