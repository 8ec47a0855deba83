package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/zap/pkg/rule"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// TargetListModel - Interactive target selection
// =============================================================================

// TargetListModel is the bubbletea model for interactive target selection.
type TargetListModel struct {
	Targets  []targetRow
	Cursor   int
	Selected *targetRow
	Height   int
	Offset   int
	filter   string
	visible  []int
}

// targetRow is one rule as listed by `zap target`.
type targetRow struct {
	Label     string
	Kind      rule.Kind
	Toolchain string
	Deps      int
}

// NewTargetListModel creates a new target list model.
func NewTargetListModel(targets []targetRow) TargetListModel {
	m := TargetListModel{
		Targets: targets,
		Height:  15,
	}
	m.refilter()
	return m
}

func (m TargetListModel) Init() tea.Cmd {
	return nil
}

func (m TargetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			t := m.Targets[m.visible[m.Cursor]]
			m.Selected = &t
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.filter != "" {
				m.filter = m.filter[:len(m.filter)-1]
				m.refilter()
			}
		case tea.KeyRunes:
			m.filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

// move shifts the cursor by delta, scrolling the window to keep it visible.
func (m *TargetListModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// refilter keeps the targets whose label contains the typed filter.
func (m *TargetListModel) refilter() {
	var visible []int
	for i, t := range m.Targets {
		if strings.Contains(t.Label, m.filter) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor, m.Offset = 0, 0
}

func (m TargetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Target"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.filter != "" {
		b.WriteString(StyleHighlight.Render("filter: " + m.filter))
	}
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		t := m.Targets[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		tc := t.Toolchain
		if tc == "" {
			tc = "—"
		}
		rows = append(rows, []string{cursor, t.Label, string(t.Kind), tc, strconv.Itoa(t.Deps)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Label", "Kind", "Toolchain", "Deps").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx == m.Cursor {
				if col == 1 {
					return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
				}
				return lipgloss.NewStyle().Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.visible))))

	return b.String()
}
