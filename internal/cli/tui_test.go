package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/uvm/pkg/installer"
	"github.com/matzehuels/uvm/pkg/manifest"
)

func update(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestInstallViewRows(t *testing.T) {
	var m tea.Model = NewInstallView("Installing 2022.3.10f1", nil)
	m = update(t, m,
		taskStateMsg{id: manifest.Editor, state: installer.Pending},
		taskStateMsg{id: manifest.Android, state: installer.Pending},
		taskStateMsg{id: manifest.Editor, state: installer.Downloading},
		downloadStartMsg{id: manifest.Editor, total: 2000},
		downloadBytesMsg{id: manifest.Editor, n: 500},
		taskStateMsg{id: manifest.Android, state: installer.Failed},
		downloadDoneMsg{id: manifest.Android, err: errors.New("connection reset")},
	)

	view := m.View()
	for _, want := range []string{"Installing 2022.3.10f1", "editor", "android", "downloading", "failed", "connection reset"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "editor") > strings.Index(view, "android") {
		t.Error("rows should keep first-seen order")
	}

	row := m.(InstallView).index[manifest.Editor]
	if row.have != 500 || row.total != 2000 {
		t.Errorf("editor progress = %d/%d, want 500/2000", row.have, row.total)
	}
}

func TestInstallViewInterrupt(t *testing.T) {
	calls := 0
	var m tea.Model = NewInstallView("x", func() { calls++ })
	ctrlC := tea.KeyMsg{Type: tea.KeyCtrlC}
	m = update(t, m, ctrlC, ctrlC)

	if calls != 1 {
		t.Errorf("interrupt called %d times, want 1", calls)
	}
	if !strings.Contains(m.View(), "interrupted") {
		t.Error("view should show the interruption")
	}
}

func TestInstallViewQuitsWhenFinished(t *testing.T) {
	_, cmd := NewInstallView("x", nil).Update(runFinishedMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("finished run should quit the program")
	}
}

func TestViewBridges(t *testing.T) {
	var got []tea.Msg
	send := func(msg tea.Msg) { got = append(got, msg) }

	viewObserver{send: send}.TaskState(manifest.IOS, installer.Extracting)
	p := &viewProgress{id: manifest.IOS, send: send}
	p.Start(10)
	p.Add(4)
	p.Done(nil)

	want := []tea.Msg{
		taskStateMsg{id: manifest.IOS, state: installer.Extracting},
		downloadStartMsg{id: manifest.IOS, total: 10},
		downloadBytesMsg{id: manifest.IOS, n: 4},
		downloadDoneMsg{id: manifest.IOS},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("msg %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}
