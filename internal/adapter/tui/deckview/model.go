package deckview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yanki-connect/internal/adapter/tui/components"
	"yanki-connect/internal/adapter/tui/theme"
	"yanki-connect/internal/adapter/tui/uxerror"
)

// Ensure *Model satisfies tea.Model.
var _ tea.Model = (*Model)(nil)

// Model is the root Bubble Tea model of the deck view.
type Model struct {
	src      Source
	endpoint string

	table   table.Model
	spinner spinner.Model
	rows    []DeckRow
	loading bool
	err     error

	width  int
	height int
}

// New creates the deck view. endpoint is only displayed.
func New(src Source, endpoint string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.TextAccent

	return &Model{
		src:      src,
		endpoint: endpoint,
		spinner:  sp,
		loading:  true,
	}
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadStatsCmd(m.src))
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildTable()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyRunes:
			switch string(msg.Runes) {
			case "q":
				return m, tea.Quit
			case "r":
				if m.loading {
					return m, nil
				}
				m.loading = true
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, loadStatsCmd(m.src))
			}
		}

	case StatsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.rows = msg.Rows
			m.rebuildTable()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the deck view.
func (m *Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	title := theme.Title.Render("Anki decks")

	var content string
	switch {
	case m.err != nil:
		fe := uxerror.Humanize(m.err)
		content = theme.TextError.Render("  "+theme.SymbolError+" "+fe.Title) + "\n" +
			"  " + fe.Message + "\n"
		for _, h := range fe.Hints {
			content += theme.TextMuted.Render("    "+theme.SymbolBullet+" "+h) + "\n"
		}
		content += theme.TextMuted.Render("  Press r to retry.")
	case m.loading && len(m.rows) == 0:
		content = "  " + m.spinner.View() + " Loading decks" + theme.SymbolEllipsis
	case len(m.rows) == 0:
		content = theme.TextMuted.Render("  The collection has no decks.")
	default:
		content = theme.BorderNormal.Render(m.table.View()) + "\n" + m.totals()
	}

	sb := components.NewStatusBar()
	sb.Hints = []components.KeyHint{
		{Key: "j/k", Desc: "Move"},
		{Key: "r", Desc: "Refresh"},
		{Key: "q", Desc: "Quit"},
	}
	sb.Endpoint = m.endpoint
	if m.loading {
		sb.Extra = "Loading"
	}
	sb.SetWidth(m.width)

	return lipgloss.JoinVertical(lipgloss.Left, title, content, sb.View())
}

// totals renders the due counts summed over all decks. Subdecks are counted in
// their parents too, so only top-level decks are summed.
func (m *Model) totals() string {
	var n, l, r int
	for _, row := range m.rows {
		if strings.Contains(row.Name, "::") {
			continue
		}
		n += row.New
		l += row.Learn
		r += row.Review
	}
	return fmt.Sprintf("  Due today: %s new %s learning %s review",
		theme.TextNew.Render(strconv.Itoa(n)),
		theme.TextLearn.Render(strconv.Itoa(l)),
		theme.TextReview.Render(strconv.Itoa(r)))
}

func (m *Model) rebuildTable() {
	if m.width == 0 {
		return
	}

	countW := 8
	nameW := theme.Clamp(m.width-4*countW-10, 16, 80)

	columns := []table.Column{
		{Title: "Deck", Width: nameW},
		{Title: "New", Width: countW},
		{Title: "Learn", Width: countW},
		{Title: "Due", Width: countW},
		{Title: "Total", Width: countW},
	}

	rows := make([]table.Row, 0, len(m.rows))
	for _, d := range m.rows {
		name := d.Name
		if depth := strings.Count(name, "::"); depth > 0 {
			name = strings.Repeat("  ", depth) + name[strings.LastIndex(name, "::")+2:]
		}
		if r := []rune(name); len(r) > nameW-1 {
			name = string(r[:nameW-1]) + theme.SymbolEllipsis
		}
		rows = append(rows, table.Row{
			name,
			strconv.Itoa(d.New),
			strconv.Itoa(d.Learn),
			strconv.Itoa(d.Review),
			strconv.Itoa(d.Total),
		})
	}

	// Title, totals, borders and status bar.
	tableH := theme.Clamp(m.height-7, 3, max(len(rows)+1, 3))

	cursor := m.table.Cursor()
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(tableH),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(s)
	if cursor < len(rows) {
		t.SetCursor(cursor)
	}

	m.table = t
}

// Rows returns the rows currently displayed.
func (m *Model) Rows() []DeckRow { return m.rows }
