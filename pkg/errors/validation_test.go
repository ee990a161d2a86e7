package errors

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateComponentID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "android", false},
		{"valid with dash", "android-sdk-ndk-tools", false},
		{"valid language", "language-zh-hans", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"path traversal", "..", true},
		{"slash", "android/ndk", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"space", "foo bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponentID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateComponentID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Editor/Data", false},
		{"dot prefix", "./PlaybackEngines/AndroidPlayer", false},
		{"inner dotdot that stays inside", "a/b/../c", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"escapes", "../outside", true},
		{"escapes after clean", "a/../../outside", true},
		{"control", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelativePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("expected INVALID_PATH code, got %v", GetCode(err))
			}
		})
	}
}

func TestWithinDir(t *testing.T) {
	root := filepath.Join("opt", "uvm", "2021.3.1f1")

	tests := []struct {
		target string
		want   bool
	}{
		{root, true},
		{filepath.Join(root, "Editor"), true},
		{filepath.Join(root, "..", "2021.3.1f1", "Editor"), true},
		{filepath.Join(root, ".."), false},
		{filepath.Join(root, "..", "other"), false},
	}

	for _, tt := range tests {
		if got := WithinDir(root, tt.target); got != tt.want {
			t.Errorf("WithinDir(%q, %q) = %v, want %v", root, tt.target, got, tt.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://download.example.com/a.pkg", false},
		{"http://localhost:8080/a.pkg", false},
		{"", true},
		{"ftp://example.com/a", true},
		{"file:///etc/passwd", true},
	}

	for _, tt := range tests {
		if err := ValidateURL(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
