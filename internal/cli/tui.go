package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/drips-network/gardener/pkg/centrality"
	gio "github.com/drips-network/gardener/pkg/io"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFaint).Padding(0, 1)
)

// =============================================================================
// DripListModel - Interactive drip list browser
// =============================================================================

// DripListModel is the bubbletea model for browsing a ranked drip list.
// Enter toggles a detail pane with every package that maps to the selected
// repository.
type DripListModel struct {
	Result  *gio.Result
	Cursor  int
	Height  int
	Offset  int
	Details bool
}

// NewDripListModel creates a new drip list model.
func NewDripListModel(r *gio.Result) DripListModel {
	return DripListModel{Result: r, Height: 15}
}

func (m DripListModel) entries() []centrality.Entry {
	return m.Result.DripList
}

func (m DripListModel) Init() tea.Cmd {
	return nil
}

func (m DripListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.entries())
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		case "enter", " ":
			if n > 0 {
				m.Details = !m.Details
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m DripListModel) View() string {
	var b strings.Builder
	entries := m.entries()

	b.WriteString(StyleTitle.Render("Drip list"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %s", m.Result.Root, m.Result.Metric)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(StyleWarning.Render("no dependencies ranked"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(entries))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, dripListRow(i, entries[i])...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("", "#", "Repository", "Ecosystem", "Packages", "Split %").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 1 || col == 3 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorText)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Details {
		b.WriteString(detailBoxStyle.Render(m.detail(entries[m.Cursor])))
		b.WriteString("\n")
	}

	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(entries))))
	return b.String()
}

func (m DripListModel) detail(e centrality.Entry) string {
	var b strings.Builder
	b.WriteString(StyleLink.Render(e.URL))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %g\n",
		listDimStyle.Render("split"), StyleNumber.Render(e.Percentage.StringFixed(centrality.PercentPlaces)+"%"),
		listDimStyle.Render("score"), e.Mass)
	for _, p := range e.Packages {
		b.WriteString("  " + StyleValue.Render(p) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// browse runs the interactive drip list browser until the user quits.
func browse(r *gio.Result) error {
	_, err := tea.NewProgram(NewDripListModel(r), tea.WithAltScreen()).Run()
	return err
}
