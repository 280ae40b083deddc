package ankiconnect

import (
	"context"
	"encoding/json"
	"fmt"
)

// ReviewTuple is one review row: reviewTime, cardID, usn, buttonPressed,
// newInterval, previousInterval, newFactor, reviewDuration, reviewType.
type ReviewTuple [9]int64

// CardReview is one review of a card as returned by getReviewsOfCards.
type CardReview struct {
	ID      int64 `json:"id"`
	USN     int64 `json:"usn"`
	Ease    int   `json:"ease"`
	Ivl     int64 `json:"ivl"`
	LastIvl int64 `json:"lastIvl"`
	Factor  int   `json:"factor"`
	Time    int64 `json:"time"`
	Type    int   `json:"type"`
}

// DayCount is the number of cards reviewed on one day.
type DayCount struct {
	Day   string
	Count int
}

// UnmarshalJSON decodes the ["2024-06-01", 12] pair form.
func (d *DayCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("day count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &d.Day); err != nil {
		return fmt.Errorf("day count date: %w", err)
	}
	if err := json.Unmarshal(pair[1], &d.Count); err != nil {
		return fmt.Errorf("day count value: %w", err)
	}
	return nil
}

// MarshalJSON encodes the pair form.
func (d DayCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.Day, d.Count})
}

// Statistic params.
type (
	CardReviewsParams struct {
		Deck    string `json:"deck"`
		StartID int64  `json:"startID"`
	}
	CollectionStatsParams struct {
		WholeCollection bool `json:"wholeCollection"`
	}
	ReviewsOfCardsParams struct {
		Cards []string `json:"cards"`
	}
	InsertReviewsParams struct {
		Reviews []ReviewTuple `json:"reviews"`
	}
)

// Statistic actions.
var (
	CardReviews              = define[CardReviewsParams, []ReviewTuple](GroupStatistic, "cardReviews")
	GetCollectionStatsHTML   = define[CollectionStatsParams, string](GroupStatistic, "getCollectionStatsHTML")
	GetLatestReviewID        = define[DeckParams, int64](GroupStatistic, "getLatestReviewID")
	GetNumCardsReviewedByDay = define[NoParams, []DayCount](GroupStatistic, "getNumCardsReviewedByDay")
	GetNumCardsReviewedToday = define[NoParams, int](GroupStatistic, "getNumCardsReviewedToday")
	GetReviewsOfCards        = define[ReviewsOfCardsParams, map[string][]CardReview](GroupStatistic, "getReviewsOfCards")
	InsertReviews            = define[InsertReviewsParams, NoResult](GroupStatistic, "insertReviews")
)

// StatisticService groups the review statistic actions.
type StatisticService struct{ c *Client }

// CardReviews returns the reviews of deck after startID.
func (s *StatisticService) CardReviews(ctx context.Context, deck string, startID int64) ([]ReviewTuple, error) {
	return Call(ctx, s.c, CardReviews, CardReviewsParams{Deck: deck, StartID: startID})
}

func (s *StatisticService) GetCollectionStatsHTML(ctx context.Context, wholeCollection bool) (string, error) {
	return Call(ctx, s.c, GetCollectionStatsHTML, CollectionStatsParams{WholeCollection: wholeCollection})
}

// GetLatestReviewID returns 0 when the deck has no reviews.
func (s *StatisticService) GetLatestReviewID(ctx context.Context, deck string) (int64, error) {
	return Call(ctx, s.c, GetLatestReviewID, DeckParams{Deck: deck})
}

func (s *StatisticService) GetNumCardsReviewedByDay(ctx context.Context) ([]DayCount, error) {
	return CallBare(ctx, s.c, GetNumCardsReviewedByDay)
}

func (s *StatisticService) GetNumCardsReviewedToday(ctx context.Context) (int, error) {
	return CallBare(ctx, s.c, GetNumCardsReviewedToday)
}

// GetReviewsOfCards returns the reviews of each card keyed by card ID.
func (s *StatisticService) GetReviewsOfCards(ctx context.Context, cards ...string) (map[string][]CardReview, error) {
	return Call(ctx, s.c, GetReviewsOfCards, ReviewsOfCardsParams{Cards: cards})
}

func (s *StatisticService) InsertReviews(ctx context.Context, reviews ...ReviewTuple) error {
	return exec(ctx, s.c, InsertReviews, InsertReviewsParams{Reviews: reviews})
}
