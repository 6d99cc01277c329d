// Package tui is the interactive terminal shell around the browser: a
// bubbletea program translating key events into browser operations and
// rendering the collected window.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tabscope/tabscope/browser"
	"github.com/tabscope/tabscope/config"
	"github.com/tabscope/tabscope/table"
)

// chromeRows is the screen space taken by header, status and prompt lines.
const chromeRows = 3

type styles struct {
	header    lipgloss.Style
	locked    lipgloss.Style
	selection lipgloss.Style
	status    lipgloss.Style
	errText   lipgloss.Style
}

func newStyles(ui config.UIConfig) styles {
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ui.HeaderColor)),
		locked:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ui.LockedColor)),
		selection: lipgloss.NewStyle().Background(lipgloss.Color(ui.SelectionColor)),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color(ui.StatusColor)),
		errText:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Model is the bubbletea model for the data browser.
type Model struct {
	b      *browser.Browser
	keys   keyMap
	styles styles

	prompt    textinput.Model
	prompting bool

	width  int
	height int
	cursor int

	locked   *table.Table
	scrolled *table.Table
	err      error
}

// New creates the TUI model over an initialized browser.
func New(b *browser.Browser, ui config.UIConfig) Model {
	prompt := textinput.New()
	prompt.CharLimit = 512
	return Model{
		b:      b,
		keys:   defaultKeyMap(),
		styles: newStyles(ui),
		prompt: prompt,
	}
}

// Init performs the initial collection.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles terminal events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := msg.Height - chromeRows
		if rows < 1 {
			rows = 1
		}
		m.b.SetVisibleRows(rows)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case tea.KeyEnter:
		line := m.prompt.Prompt + m.prompt.Value()
		m.prompting = false
		m.prompt.Blur()
		m.err = m.execute(line)
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.b.ScrollRows(-1)
		}
		m.refresh()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.visibleHeight()-1 {
			m.cursor++
		} else {
			m.b.ScrollRows(1)
		}
		m.refresh()

	case key.Matches(msg, m.keys.PageUp):
		m.b.ScrollRows(-m.b.View().VisibleRows)
		m.refresh()

	case key.Matches(msg, m.keys.PageDown):
		m.b.ScrollRows(m.b.View().VisibleRows)
		m.refresh()

	case key.Matches(msg, m.keys.Home):
		m.b.JumpToStart()
		m.cursor = 0
		m.refresh()

	case key.Matches(msg, m.keys.End):
		m.err = m.b.JumpToEnd()
		m.refresh()
		m.cursor = m.visibleHeight() - 1

	case key.Matches(msg, m.keys.Left):
		m.b.ScrollColumns(-1)
		m.refresh()

	case key.Matches(msg, m.keys.Right):
		m.b.ScrollColumns(1)
		m.refresh()

	case key.Matches(msg, m.keys.Drill):
		m.err = m.b.DrillDown(m.b.View().StartRow + m.cursor)
		m.cursor = 0
		m.refresh()

	case key.Matches(msg, m.keys.Back):
		if m.err != nil {
			m.err = nil
			m.b.ClearError()
			break
		}
		if m.b.InDrillDown() {
			m.err = m.b.DrillUp()
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, m.keys.Command):
		m.prompting = true
		m.prompt.Prompt = ":"
		m.prompt.SetValue("")
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.Search):
		m.prompting = true
		m.prompt.Prompt = "/"
		m.prompt.SetValue("")
		return m, m.prompt.Focus()
	}
	return m, nil
}

// refresh re-collects the visible window and clamps the cursor into it.
func (m *Model) refresh() {
	locked, scrolled, err := m.b.Collect()
	if err != nil {
		m.err = err
		return
	}
	m.locked = locked
	m.scrolled = scrolled
	if h := m.visibleHeight(); m.cursor >= h && h > 0 {
		m.cursor = h - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) visibleHeight() int {
	if m.scrolled == nil {
		return 0
	}
	return m.scrolled.Height()
}
