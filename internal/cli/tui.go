package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/installer"
	"github.com/matzehuels/uvm/pkg/manifest"
)

// Row styles
var (
	rowNameStyle  = lipgloss.NewStyle().Foreground(colorWhite).Width(28)
	rowStateStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	rowDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type (
	taskStateMsg struct {
		id    manifest.ComponentID
		state installer.State
	}
	downloadStartMsg struct {
		id    manifest.ComponentID
		total int64
	}
	downloadBytesMsg struct {
		id manifest.ComponentID
		n  int64
	}
	downloadDoneMsg struct {
		id  manifest.ComponentID
		err error
	}
	runFinishedMsg struct{}
)

// =============================================================================
// InstallView - live task table
// =============================================================================

type taskRow struct {
	id    manifest.ComponentID
	state installer.State
	total int64
	have  int64
	err   error
}

// InstallView is the bubbletea model showing one line per install task.
type InstallView struct {
	Title string

	rows      []*taskRow
	index     map[manifest.ComponentID]*taskRow
	bar       progress.Model
	interrupt func()
	quitting  bool
}

// NewInstallView creates the view. interrupt is called on ctrl+c; the view
// keeps running until the install winds down and reports back.
func NewInstallView(title string, interrupt func()) InstallView {
	return InstallView{
		Title:     title,
		index:     map[manifest.ComponentID]*taskRow{},
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		interrupt: interrupt,
	}
}

func (m InstallView) Init() tea.Cmd {
	return nil
}

func (m InstallView) row(id manifest.ComponentID) *taskRow {
	r, ok := m.index[id]
	if !ok {
		r = &taskRow{id: id}
		m.index[id] = r
	}
	return r
}

func (m InstallView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.interrupt != nil && !m.quitting {
			m.quitting = true
			m.interrupt()
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(40, max(10, msg.Width-60))
	case taskStateMsg:
		r, seen := m.index[msg.id]
		if !seen {
			r = m.row(msg.id)
			m.rows = append(m.rows, r)
		}
		r.state = msg.state
	case downloadStartMsg:
		m.row(msg.id).total = msg.total
	case downloadBytesMsg:
		m.row(msg.id).have += msg.n
	case downloadDoneMsg:
		if msg.err != nil {
			m.row(msg.id).err = msg.err
		}
	case runFinishedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m InstallView) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")
	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}
	if m.quitting {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("interrupted, cleaning up..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m InstallView) renderRow(r *taskRow) string {
	icon := styleIconInfo.Render(iconPending)
	switch r.state {
	case installer.Done:
		icon = styleIconSuccess.Render(iconSuccess)
	case installer.Failed:
		icon = styleIconError.Render(iconError)
	case installer.Downloading, installer.Verifying, installer.Extracting, installer.Placing:
		icon = styleIconSpinner.Render(iconArrow)
	}

	line := icon + " " + rowNameStyle.Render(string(r.id)) + rowStateStyle.Render(r.state.String())
	switch {
	case r.state == installer.Downloading && r.total > 0:
		line += m.bar.ViewAs(float64(r.have)/float64(r.total)) + " " +
			rowDimStyle.Render(fmt.Sprintf("%s / %s", humanBytes(uint64(r.have)), humanBytes(uint64(r.total))))
	case r.state == installer.Downloading && r.have > 0:
		line += rowDimStyle.Render(humanBytes(uint64(r.have)))
	case r.state == installer.Failed && r.err != nil:
		line += StyleError.Render(errors.UserMessage(r.err))
	}
	return line
}

// =============================================================================
// Bridges from install callbacks to the program
// =============================================================================

// viewObserver forwards task states to a running program.
type viewObserver struct {
	send func(tea.Msg)
}

func (o viewObserver) TaskState(id manifest.ComponentID, s installer.State) {
	o.send(taskStateMsg{id: id, state: s})
}

// viewProgress forwards download progress for one module.
type viewProgress struct {
	id   manifest.ComponentID
	send func(tea.Msg)
}

func (p *viewProgress) Start(total int64) { p.send(downloadStartMsg{id: p.id, total: total}) }
func (p *viewProgress) Add(n int64)       { p.send(downloadBytesMsg{id: p.id, n: n}) }
func (p *viewProgress) Done(err error)    { p.send(downloadDoneMsg{id: p.id, err: err}) }
