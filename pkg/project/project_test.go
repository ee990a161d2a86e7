package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/uvm/pkg/errors"
)

const sample = `m_EditorVersion: 2022.3.10f1
m_EditorVersionWithRevision: 2022.3.10f1 (ff3792e53c62)
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	file := filepath.Join(root, VersionFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return root
}

func TestParseVersionFile(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		wantHash string
		wantErr  bool
	}{
		{name: "with revision", in: sample, want: "2022.3.10f1", wantHash: "ff3792e53c62"},
		{name: "plain", in: "m_EditorVersion: 2019.4.40f1\n", want: "2019.4.40f1"},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage version", in: "m_EditorVersion: latest\n", wantErr: true},
		{name: "bad yaml", in: "m_EditorVersion: [\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersionFile([]byte(tt.in))
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidVersion), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.wantHash, v.Hash)
		})
	}
}

func TestDetectWalksUp(t *testing.T) {
	root := writeProject(t, sample)
	nested := filepath.Join(root, "Assets", "Scripts")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	p, err := Detect(nested)
	require.NoError(t, err)
	assert.Equal(t, "2022.3.10f1", p.Version.String())

	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(p.Root)
	assert.Equal(t, want, got)
}

func TestDetectVersionFilePath(t *testing.T) {
	root := writeProject(t, sample)
	p, err := Detect(filepath.Join(root, VersionFile))
	require.NoError(t, err)
	assert.Equal(t, "ff3792e53c62", p.Version.Hash)
}

func TestDetectNotAProject(t *testing.T) {
	_, err := Detect(t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}
