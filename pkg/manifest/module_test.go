package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleResolvedDestination(t *testing.T) {
	base := filepath.Join("opt", "uvm", "2021.3.5f1")

	tests := []struct {
		dest string
		want string
	}{
		{"", base},
		{"{BASE_PATH}", base},
		{"{BASE_PATH}/PlaybackEngines/AndroidPlayer", filepath.Join(base, "PlaybackEngines", "AndroidPlayer")},
		{"{UNITY_PATH}/PlaybackEngines/iOSSupport", filepath.Join(base, "PlaybackEngines", "iOSSupport")},
		{"Editor/Data", filepath.Join(base, "Editor", "Data")},
	}
	for _, tt := range tests {
		m := Module{ID: Android, Destination: tt.dest}
		assert.Equal(t, tt.want, m.ResolvedDestination(base), tt.dest)
	}
}

func TestModuleResolvedRename(t *testing.T) {
	base := filepath.Join("opt", "uvm")
	m := Module{
		RenameFrom: "{BASE_PATH}/NDK/android-ndk-r21d",
		RenameTo:   "{BASE_PATH}/NDK",
	}
	from, to, ok := m.ResolvedRename(base)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(base, "NDK", "android-ndk-r21d"), from)
	assert.Equal(t, filepath.Join(base, "NDK"), to)

	_, _, ok = Module{RenameFrom: "x"}.ResolvedRename(base)
	assert.False(t, ok)
}

func TestModuleFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b/Unity-2021.3.5f1.pkg", "Unity-2021.3.5f1.pkg"},
		{"https://example.com/a/Unity%20Setup.exe?sig=1", "Unity Setup.exe"},
		{"", "android"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Module{ID: Android, DownloadURL: tt.url}.FileName(), tt.url)
	}
}

func TestDefaultDestination(t *testing.T) {
	assert.Equal(t, "{BASE_PATH}/PlaybackEngines/AndroidPlayer", DefaultDestination(Android, MacOS))
	assert.Equal(t, "{BASE_PATH}/Editor/Data/PlaybackEngines/AndroidPlayer", DefaultDestination(Android, LinuxOS))
	assert.Equal(t, "{BASE_PATH}/PlaybackEngines/AndroidPlayer/NDK", DefaultDestination(AndroidNDK, MacOS))
	assert.Equal(t, "{BASE_PATH}/Unity.app/Contents/Localization", DefaultDestination(LanguageJa, MacOS))
	assert.Equal(t, "", DefaultDestination(Editor, MacOS))
	assert.Equal(t, "", DefaultDestination(ComponentID("quantum"), MacOS))

	assert.True(t, IsPlaybackEngine("{UNITY_PATH}/PlaybackEngines/AndroidPlayer"))
	assert.False(t, IsPlaybackEngine("{BASE_PATH}/Editor"))
}
