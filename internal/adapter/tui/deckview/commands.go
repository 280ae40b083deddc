package deckview

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"yanki-connect/pkg/ankiconnect"
)

// loadTimeout bounds one refresh. It leaves room for an auto-launch retry.
const loadTimeout = 30 * time.Second

// Source is the subset of the deck actions the view needs.
// *ankiconnect.DeckService implements it.
type Source interface {
	DeckNames(ctx context.Context) ([]string, error)
	GetDeckStats(ctx context.Context, decks ...string) (map[string]ankiconnect.DeckStats, error)
}

// DeckRow is one line of the deck table.
type DeckRow struct {
	Name   string
	New    int
	Learn  int
	Review int
	Total  int
}

// loadStatsCmd fetches deck names, then their stats, asynchronously.
func loadStatsCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		rows, err := LoadRows(ctx, src)
		return StatsLoadedMsg{Rows: rows, Err: err}
	}
}

// LoadRows fetches every deck with its counts, sorted by name.
func LoadRows(ctx context.Context, src Source) ([]DeckRow, error) {
	names, err := src.DeckNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	stats, err := src.GetDeckStats(ctx, names...)
	if err != nil {
		return nil, err
	}

	rows := make([]DeckRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, DeckRow{
			Name:   s.Name,
			New:    s.NewCount,
			Learn:  s.LearnCount,
			Review: s.ReviewCount,
			Total:  s.TotalInDeck,
		})
	}
	// Stats are keyed by deck ID; show them in the collection's name order.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
