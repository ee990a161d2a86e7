package buildinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v0.4.0", "none"
	if got := Short(); got != "v0.4.0" {
		t.Errorf("Short() = %q", got)
	}

	Commit = "0123456789abcdef"
	if got := Short(); got != "v0.4.0+0123456" {
		t.Errorf("Short() = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", Template())
	}
}

func TestUserAgent(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v0.4.0", "0123456789abcdef"
	if got := UserAgent(); got != "uvm/v0.4.0+0123456" {
		t.Errorf("UserAgent() = %q", got)
	}
}
