// Package deckview implements a Bubble Tea view of the decks in the running
// Anki collection with their new, learning and review counts.
package deckview

// StatsLoadedMsg carries the result of a stats refresh.
type StatsLoadedMsg struct {
	Rows []DeckRow
	Err  error
}
