package ankiconnect

import "context"

// DeckStats are the due counts of one deck.
type DeckStats struct {
	DeckID      int64  `json:"deck_id"`
	Name        string `json:"name"`
	NewCount    int    `json:"new_count"`
	LearnCount  int    `json:"learn_count"`
	ReviewCount int    `json:"review_count"`
	TotalInDeck int    `json:"total_in_deck"`
}

// DeckConfig is an options group shared by decks.
type DeckConfig struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Autoplay bool            `json:"autoplay"`
	Dyn      bool            `json:"dyn"`
	MaxTaken int             `json:"maxTaken"`
	Mod      int64           `json:"mod"`
	ReplayQ  bool            `json:"replayq"`
	Timer    int             `json:"timer"`
	USN      int             `json:"usn"`
	Lapse    DeckLapseConfig `json:"lapse"`
	New      DeckNewConfig   `json:"new"`
	Rev      DeckRevConfig   `json:"rev"`
}

type DeckLapseConfig struct {
	Delays      []float64 `json:"delays"`
	LeechAction int       `json:"leechAction"`
	LeechFails  int       `json:"leechFails"`
	MinInt      int       `json:"minInt"`
	Mult        float64   `json:"mult"`
}

type DeckNewConfig struct {
	Bury          bool      `json:"bury"`
	Delays        []float64 `json:"delays"`
	InitialFactor int       `json:"initialFactor"`
	Ints          []int     `json:"ints"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Separate      bool      `json:"separate"`
}

type DeckRevConfig struct {
	Bury     bool    `json:"bury"`
	Ease4    float64 `json:"ease4"`
	Fuzz     float64 `json:"fuzz"`
	IvlFct   float64 `json:"ivlFct"`
	MaxIvl   int     `json:"maxIvl"`
	MinSpace int     `json:"minSpace"`
	PerDay   int     `json:"perDay"`
}

// Deck params.
type (
	DeckParams struct {
		Deck string `json:"deck"`
	}
	DecksParams struct {
		Decks []string `json:"decks"`
	}
	ChangeDeckParams struct {
		Cards []int64 `json:"cards"`
		Deck  string  `json:"deck"`
	}
	CloneDeckConfigIDParams struct {
		Name      string `json:"name"`
		CloneFrom int64  `json:"cloneFrom,omitempty"`
	}
	DeleteDecksParams struct {
		Decks []string `json:"decks"`
		// CardsToo must be true for AnkiConnect to accept the request.
		CardsToo bool `json:"cardsToo"`
	}
	ConfigIDParams struct {
		ConfigID int64 `json:"configId"`
	}
	SaveDeckConfigParams struct {
		Config DeckConfig `json:"config"`
	}
	SetDeckConfigIDParams struct {
		Decks    []string `json:"decks"`
		ConfigID int64    `json:"configId"`
	}
)

// Deck actions.
var (
	ChangeDeck         = define[ChangeDeckParams, NoResult](GroupDeck, "changeDeck")
	CloneDeckConfigID  = define[CloneDeckConfigIDParams, FalseOr[int64]](GroupDeck, "cloneDeckConfigId")
	CreateDeck         = define[DeckParams, int64](GroupDeck, "createDeck")
	DeckNames          = define[NoParams, []string](GroupDeck, "deckNames")
	DeckNamesAndIDs    = define[NoParams, map[string]int64](GroupDeck, "deckNamesAndIds")
	DeleteDecks        = define[DeleteDecksParams, NoResult](GroupDeck, "deleteDecks")
	GetDeckConfig      = define[DeckParams, DeckConfig](GroupDeck, "getDeckConfig")
	GetDeckStats       = define[DecksParams, map[string]DeckStats](GroupDeck, "getDeckStats")
	GetDecks           = define[CardsParams, map[string][]int64](GroupDeck, "getDecks")
	RemoveDeckConfigID = define[ConfigIDParams, bool](GroupDeck, "removeDeckConfigId")
	SaveDeckConfig     = define[SaveDeckConfigParams, bool](GroupDeck, "saveDeckConfig")
	SetDeckConfigID    = define[SetDeckConfigIDParams, bool](GroupDeck, "setDeckConfigId")
)

// DeckService groups the deck actions.
type DeckService struct{ c *Client }

// ChangeDeck moves cards to deck, creating it if needed.
func (s *DeckService) ChangeDeck(ctx context.Context, deck string, cards ...int64) error {
	return exec(ctx, s.c, ChangeDeck, ChangeDeckParams{Cards: cards, Deck: deck})
}

// CloneDeckConfigID creates an options group named name cloned from
// cloneFrom (the default group when zero). ok is false if cloneFrom does not
// exist.
func (s *DeckService) CloneDeckConfigID(ctx context.Context, name string, cloneFrom int64) (id int64, ok bool, err error) {
	res, err := Call(ctx, s.c, CloneDeckConfigID, CloneDeckConfigIDParams{Name: name, CloneFrom: cloneFrom})
	return res.Value, res.Valid, err
}

// CreateDeck creates an empty deck and returns its ID. An existing deck of the
// same name is left alone.
func (s *DeckService) CreateDeck(ctx context.Context, deck string) (int64, error) {
	return Call(ctx, s.c, CreateDeck, DeckParams{Deck: deck})
}

// DeckNames lists every deck of the current profile.
func (s *DeckService) DeckNames(ctx context.Context) ([]string, error) {
	return CallBare(ctx, s.c, DeckNames)
}

func (s *DeckService) DeckNamesAndIDs(ctx context.Context) (map[string]int64, error) {
	return CallBare(ctx, s.c, DeckNamesAndIDs)
}

// DeleteDecks deletes decks together with their cards.
func (s *DeckService) DeleteDecks(ctx context.Context, decks ...string) error {
	return exec(ctx, s.c, DeleteDecks, DeleteDecksParams{Decks: decks, CardsToo: true})
}

func (s *DeckService) GetDeckConfig(ctx context.Context, deck string) (DeckConfig, error) {
	return Call(ctx, s.c, GetDeckConfig, DeckParams{Deck: deck})
}

// GetDeckStats returns stats keyed by deck ID.
func (s *DeckService) GetDeckStats(ctx context.Context, decks ...string) (map[string]DeckStats, error) {
	return Call(ctx, s.c, GetDeckStats, DecksParams{Decks: decks})
}

// GetDecks groups the given cards by deck name.
func (s *DeckService) GetDecks(ctx context.Context, cards ...int64) (map[string][]int64, error) {
	return Call(ctx, s.c, GetDecks, CardsParams{Cards: cards})
}

func (s *DeckService) RemoveDeckConfigID(ctx context.Context, configID int64) (bool, error) {
	return Call(ctx, s.c, RemoveDeckConfigID, ConfigIDParams{ConfigID: configID})
}

func (s *DeckService) SaveDeckConfig(ctx context.Context, cfg DeckConfig) (bool, error) {
	return Call(ctx, s.c, SaveDeckConfig, SaveDeckConfigParams{Config: cfg})
}

func (s *DeckService) SetDeckConfigID(ctx context.Context, configID int64, decks ...string) (bool, error) {
	return Call(ctx, s.c, SetDeckConfigID, SetDeckConfigIDParams{Decks: decks, ConfigID: configID})
}
