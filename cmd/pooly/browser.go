package main

import (
	"fmt"
	"time"

	"pooly/internal/memory"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const listWidth = 44

var (
	docStyle  = lipgloss.NewStyle().Margin(1, 2)
	listPane  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("62"))
	infoPane  = lipgloss.NewStyle().PaddingLeft(2)
	emptyPane = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// sessionItem adapts a stored session to the list widget.
type sessionItem struct {
	session *memory.Session
}

func (i sessionItem) Title() string { return i.session.ID }

func (i sessionItem) Description() string {
	return fmt.Sprintf("%s · %s · %d msg",
		i.session.ClientID, i.session.Created.Local().Format(time.DateTime), len(i.session.Messages))
}

func (i sessionItem) FilterValue() string { return i.session.ID + " " + i.session.ClientID }

type browserModel struct {
	list     list.Model
	viewport viewport.Model
	selected *memory.Session
	ready    bool
	width    int
	height   int
}

func newBrowserModel(m *memory.Memory) browserModel {
	ids := m.IDs()
	items := make([]list.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, sessionItem{session: m.Sessions[id]})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("PoolyAI · %d sessioni", len(items))
	l.SetShowHelp(false)

	return browserModel{list: l}
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.list.FilterState() != list.Filtering {
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
		m.syncSelection()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		top, right, bottom, left := docStyle.GetMargin()
		m.list.SetSize(listWidth, m.height-top-bottom)
		if !m.ready {
			m.viewport = viewport.New(m.width-listWidth-left-right-4, m.height-top-bottom)
			m.ready = true
			m.syncSelection()
		} else {
			m.viewport.Width = m.width - listWidth - left - right - 4
			m.viewport.Height = m.height - top - bottom
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// syncSelection shows the highlighted session in the detail pane.
func (m *browserModel) syncSelection() {
	item, ok := m.list.SelectedItem().(sessionItem)
	if !ok || item.session == m.selected {
		return
	}
	m.selected = item.session
	m.viewport.SetContent(formatSession(item.session))
	m.viewport.GotoTop()
}

func (m browserModel) View() string {
	if !m.ready {
		return "loading..."
	}
	left := listPane.Width(listWidth).Render(m.list.View())
	right := emptyPane.Render("Nessuna sessione salvata")
	if m.selected != nil {
		right = infoPane.Render(m.viewport.View())
	}
	return docStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
}

func runBrowser(m *memory.Memory) error {
	_, err := tea.NewProgram(newBrowserModel(m), tea.WithAltScreen()).Run()
	return err
}
