package ankiconnect

import (
	"context"
	"encoding/json"
)

// FieldValue is a note field as reported by cardsInfo and notesInfo.
type FieldValue struct {
	Order int    `json:"order"`
	Value string `json:"value"`
}

// CardInfo describes one card.
type CardInfo struct {
	CardID      int64                 `json:"cardId"`
	Note        int64                 `json:"note"`
	DeckName    string                `json:"deckName"`
	ModelName   string                `json:"modelName"`
	Question    string                `json:"question"`
	Answer      string                `json:"answer"`
	CSS         string                `json:"css"`
	Fields      map[string]FieldValue `json:"fields"`
	FieldOrder  int                   `json:"fieldOrder"`
	Template    string                `json:"template"`
	Ord         int                   `json:"ord"`
	Type        int                   `json:"type"`
	Queue       int                   `json:"queue"`
	Due         int64                 `json:"due"`
	Interval    int64                 `json:"interval"`
	Reps        int                   `json:"reps"`
	Lapses      int                   `json:"lapses"`
	Left        int                   `json:"left"`
	Mod         int64                 `json:"mod"`
	Buttons     []int                 `json:"buttons,omitempty"`
	NextReviews []string              `json:"nextReviews,omitempty"`
}

// CardModTime is one entry of cardsModTime.
type CardModTime struct {
	CardID int64 `json:"cardId"`
	Mod    int64 `json:"mod"`
}

// CardAnswer answers one card with an ease between 1 (Again) and 4 (Easy).
type CardAnswer struct {
	CardID int64 `json:"cardId"`
	Ease   int   `json:"ease"`
}

// Intervals is the result of getIntervals: the latest interval per card, or
// every interval per card when requested with complete set.
type Intervals struct {
	Latest []int64
	All    [][]int64
}

// UnmarshalJSON accepts both the flat and the nested form.
func (iv *Intervals) UnmarshalJSON(data []byte) error {
	var nested [][]int64
	if err := json.Unmarshal(data, &nested); err == nil {
		iv.All = nested
		return nil
	}
	return json.Unmarshal(data, &iv.Latest)
}

// Card params.
type (
	CardsParams struct {
		Cards []int64 `json:"cards"`
	}
	CardParams struct {
		Card int64 `json:"card"`
	}
	AnswerCardsParams struct {
		Answers []CardAnswer `json:"answers"`
	}
	QueryParams struct {
		Query string `json:"query"`
	}
	GetIntervalsParams struct {
		Cards    []int64 `json:"cards"`
		Complete bool    `json:"complete,omitempty"`
	}
	SetDueDateParams struct {
		Cards []int64 `json:"cards"`
		// Days uses the browser's syntax, e.g. "0", "1!", "3-7".
		Days string `json:"days"`
	}
	SetEaseFactorsParams struct {
		Cards       []int64 `json:"cards"`
		EaseFactors []int   `json:"easeFactors"`
	}
	SetSpecificValueOfCardParams struct {
		Card         int64    `json:"card"`
		Keys         []string `json:"keys"`
		NewValues    []string `json:"newValues"`
		WarningCheck bool     `json:"warning_check,omitempty"`
	}
)

// Card actions.
var (
	AnswerCards            = define[AnswerCardsParams, []bool](GroupCard, "answerCards")
	AreDue                 = define[CardsParams, []bool](GroupCard, "areDue")
	AreSuspended           = define[CardsParams, []*bool](GroupCard, "areSuspended")
	CardsInfo              = define[CardsParams, []CardInfo](GroupCard, "cardsInfo")
	CardsModTime           = define[CardsParams, []CardModTime](GroupCard, "cardsModTime")
	CardsToNotes           = define[CardsParams, []int64](GroupCard, "cardsToNotes")
	FindCards              = define[QueryParams, []int64](GroupCard, "findCards")
	ForgetCards            = define[CardsParams, NoResult](GroupCard, "forgetCards")
	GetEaseFactors         = define[CardsParams, []int](GroupCard, "getEaseFactors")
	GetIntervals           = define[GetIntervalsParams, Intervals](GroupCard, "getIntervals")
	RelearnCards           = define[CardsParams, NoResult](GroupCard, "relearnCards")
	SetDueDate             = define[SetDueDateParams, bool](GroupCard, "setDueDate")
	SetEaseFactors         = define[SetEaseFactorsParams, []bool](GroupCard, "setEaseFactors")
	SetSpecificValueOfCard = define[SetSpecificValueOfCardParams, []bool](GroupCard, "setSpecificValueOfCard")
	Suspend                = define[CardsParams, bool](GroupCard, "suspend")
	Suspended              = define[CardParams, bool](GroupCard, "suspended")
	Unsuspend              = define[CardsParams, bool](GroupCard, "unsuspend")
)

// CardService groups the card actions.
type CardService struct{ c *Client }

// AnswerCards answers cards, starting the timer just before. Each result is
// false when the card does not exist.
func (s *CardService) AnswerCards(ctx context.Context, answers ...CardAnswer) ([]bool, error) {
	return Call(ctx, s.c, AnswerCards, AnswerCardsParams{Answers: answers})
}

// AreDue reports, in order, whether each card is due.
func (s *CardService) AreDue(ctx context.Context, cards ...int64) ([]bool, error) {
	return Call(ctx, s.c, AreDue, CardsParams{Cards: cards})
}

// AreSuspended reports, in order, whether each card is suspended. Entries are
// nil for cards that do not exist.
func (s *CardService) AreSuspended(ctx context.Context, cards ...int64) ([]*bool, error) {
	return Call(ctx, s.c, AreSuspended, CardsParams{Cards: cards})
}

func (s *CardService) CardsInfo(ctx context.Context, cards ...int64) ([]CardInfo, error) {
	return Call(ctx, s.c, CardsInfo, CardsParams{Cards: cards})
}

// CardsModTime is much cheaper than CardsInfo when only the modification time
// is needed.
func (s *CardService) CardsModTime(ctx context.Context, cards ...int64) ([]CardModTime, error) {
	return Call(ctx, s.c, CardsModTime, CardsParams{Cards: cards})
}

// CardsToNotes returns the distinct note IDs of the given cards.
func (s *CardService) CardsToNotes(ctx context.Context, cards ...int64) ([]int64, error) {
	return Call(ctx, s.c, CardsToNotes, CardsParams{Cards: cards})
}

// FindCards returns the IDs of cards matching a search query.
func (s *CardService) FindCards(ctx context.Context, query string) ([]int64, error) {
	return Call(ctx, s.c, FindCards, QueryParams{Query: query})
}

// ForgetCards makes the cards new again.
func (s *CardService) ForgetCards(ctx context.Context, cards ...int64) error {
	return exec(ctx, s.c, ForgetCards, CardsParams{Cards: cards})
}

func (s *CardService) GetEaseFactors(ctx context.Context, cards ...int64) ([]int, error) {
	return Call(ctx, s.c, GetEaseFactors, CardsParams{Cards: cards})
}

// GetIntervals returns the most recent interval of each card. Negative
// intervals are in seconds, positive ones in days.
func (s *CardService) GetIntervals(ctx context.Context, cards ...int64) ([]int64, error) {
	iv, err := Call(ctx, s.c, GetIntervals, GetIntervalsParams{Cards: cards})
	return iv.Latest, err
}

// GetIntervalHistory returns every interval of each card.
func (s *CardService) GetIntervalHistory(ctx context.Context, cards ...int64) ([][]int64, error) {
	iv, err := Call(ctx, s.c, GetIntervals, GetIntervalsParams{Cards: cards, Complete: true})
	return iv.All, err
}

// RelearnCards puts the cards into relearning.
func (s *CardService) RelearnCards(ctx context.Context, cards ...int64) error {
	return exec(ctx, s.c, RelearnCards, CardsParams{Cards: cards})
}

func (s *CardService) SetDueDate(ctx context.Context, p SetDueDateParams) (bool, error) {
	return Call(ctx, s.c, SetDueDate, p)
}

func (s *CardService) SetEaseFactors(ctx context.Context, p SetEaseFactorsParams) ([]bool, error) {
	return Call(ctx, s.c, SetEaseFactors, p)
}

// SetSpecificValueOfCard writes raw card columns. Some keys need WarningCheck.
func (s *CardService) SetSpecificValueOfCard(ctx context.Context, p SetSpecificValueOfCardParams) ([]bool, error) {
	return Call(ctx, s.c, SetSpecificValueOfCard, p)
}

// Suspend returns true if at least one card was not already suspended.
func (s *CardService) Suspend(ctx context.Context, cards ...int64) (bool, error) {
	return Call(ctx, s.c, Suspend, CardsParams{Cards: cards})
}

func (s *CardService) Suspended(ctx context.Context, card int64) (bool, error) {
	return Call(ctx, s.c, Suspended, CardParams{Card: card})
}

// Unsuspend returns true if at least one card was suspended.
func (s *CardService) Unsuspend(ctx context.Context, cards ...int64) (bool, error) {
	return Call(ctx, s.c, Unsuspend, CardsParams{Cards: cards})
}
