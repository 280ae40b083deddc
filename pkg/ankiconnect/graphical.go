package ankiconnect

import "context"

// BrowserOrder sorts the card browser by one column.
type BrowserOrder struct {
	// ColumnID is a browser column such as "noteCrt", "cardDue" or "deck".
	ColumnID string `json:"columnId"`
	// Order is "ascending" or "descending".
	Order string `json:"order"`
}

// Graphical params.
type (
	GUIAddCardsParams struct {
		Note Note `json:"note"`
	}
	GUIAnswerCardParams struct {
		Ease int `json:"ease"`
	}
	GUIBrowseParams struct {
		Query        string        `json:"query"`
		ReorderCards *BrowserOrder `json:"reorderCards,omitempty"`
	}
	NameParams struct {
		Name string `json:"name"`
	}
	PathParams struct {
		Path string `json:"path"`
	}
)

// Graphical actions drive the desktop UI.
var (
	GUIAddCards       = define[GUIAddCardsParams, int64](GroupGraphical, "guiAddCards")
	GUIAnswerCard     = define[GUIAnswerCardParams, bool](GroupGraphical, "guiAnswerCard")
	GUIBrowse         = define[GUIBrowseParams, []int64](GroupGraphical, "guiBrowse")
	GUICheckDatabase  = define[NoParams, bool](GroupGraphical, "guiCheckDatabase")
	GUICurrentCard    = define[NoParams, *CardInfo](GroupGraphical, "guiCurrentCard")
	GUIDeckBrowser    = define[NoParams, NoResult](GroupGraphical, "guiDeckBrowser")
	GUIDeckOverview   = define[NameParams, bool](GroupGraphical, "guiDeckOverview")
	GUIDeckReview     = define[NameParams, bool](GroupGraphical, "guiDeckReview")
	GUIEditNote       = define[NoteParams, NoResult](GroupGraphical, "guiEditNote")
	GUIExitAnki       = define[NoParams, NoResult](GroupGraphical, "guiExitAnki")
	GUIImportFile     = define[PathParams, NoResult](GroupGraphical, "guiImportFile")
	GUISelectCard     = define[CardParams, bool](GroupGraphical, "guiSelectCard")
	GUISelectedNotes  = define[NoParams, []int64](GroupGraphical, "guiSelectedNotes")
	GUISelectNote     = define[NoteParams, bool](GroupGraphical, "guiSelectNote")
	GUIShowAnswer     = define[NoParams, bool](GroupGraphical, "guiShowAnswer")
	GUIShowQuestion   = define[NoParams, bool](GroupGraphical, "guiShowQuestion")
	GUIStartCardTimer = define[NoParams, bool](GroupGraphical, "guiStartCardTimer")
	GUIUndo           = define[NoParams, bool](GroupGraphical, "guiUndo")
)

// GraphicalService groups the actions that drive the desktop UI.
type GraphicalService struct{ c *Client }

// AddCards opens the Add Cards dialog prefilled with note and returns the ID
// of the note once the user adds it.
func (s *GraphicalService) AddCards(ctx context.Context, note Note) (int64, error) {
	return Call(ctx, s.c, GUIAddCards, GUIAddCardsParams{Note: note})
}

func (s *GraphicalService) AnswerCard(ctx context.Context, ease int) (bool, error) {
	return Call(ctx, s.c, GUIAnswerCard, GUIAnswerCardParams{Ease: ease})
}

// Browse opens the card browser on query and returns the matching card IDs.
func (s *GraphicalService) Browse(ctx context.Context, p GUIBrowseParams) ([]int64, error) {
	return Call(ctx, s.c, GUIBrowse, p)
}

// CheckDatabase reports true even when problems were found and fixed.
func (s *GraphicalService) CheckDatabase(ctx context.Context) (bool, error) {
	return CallBare(ctx, s.c, GUICheckDatabase)
}

// CurrentCard returns the card under review, or nil when not reviewing.
func (s *GraphicalService) CurrentCard(ctx context.Context) (*CardInfo, error) {
	return CallBare(ctx, s.c, GUICurrentCard)
}

func (s *GraphicalService) DeckBrowser(ctx context.Context) error {
	return exec(ctx, s.c, GUIDeckBrowser, NoParams{})
}

func (s *GraphicalService) DeckOverview(ctx context.Context, deck string) (bool, error) {
	return Call(ctx, s.c, GUIDeckOverview, NameParams{Name: deck})
}

func (s *GraphicalService) DeckReview(ctx context.Context, deck string) (bool, error) {
	return Call(ctx, s.c, GUIDeckReview, NameParams{Name: deck})
}

func (s *GraphicalService) EditNote(ctx context.Context, note int64) error {
	return exec(ctx, s.c, GUIEditNote, NoteParams{Note: note})
}

// ExitAnki asks the app to close. It returns before the app has exited.
func (s *GraphicalService) ExitAnki(ctx context.Context) error {
	return exec(ctx, s.c, GUIExitAnki, NoParams{})
}

func (s *GraphicalService) ImportFile(ctx context.Context, path string) error {
	return exec(ctx, s.c, GUIImportFile, PathParams{Path: path})
}

func (s *GraphicalService) SelectCard(ctx context.Context, card int64) (bool, error) {
	return Call(ctx, s.c, GUISelectCard, CardParams{Card: card})
}

func (s *GraphicalService) SelectedNotes(ctx context.Context) ([]int64, error) {
	return CallBare(ctx, s.c, GUISelectedNotes)
}

func (s *GraphicalService) SelectNote(ctx context.Context, note int64) (bool, error) {
	return Call(ctx, s.c, GUISelectNote, NoteParams{Note: note})
}

func (s *GraphicalService) ShowAnswer(ctx context.Context) (bool, error) {
	return CallBare(ctx, s.c, GUIShowAnswer)
}

func (s *GraphicalService) ShowQuestion(ctx context.Context) (bool, error) {
	return CallBare(ctx, s.c, GUIShowQuestion)
}

func (s *GraphicalService) StartCardTimer(ctx context.Context) (bool, error) {
	return CallBare(ctx, s.c, GUIStartCardTimer)
}

func (s *GraphicalService) Undo(ctx context.Context) (bool, error) {
	return CallBare(ctx, s.c, GUIUndo)
}
