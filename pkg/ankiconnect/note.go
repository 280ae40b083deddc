package ankiconnect

import "context"

// NoteMedia attaches a file to note fields. One of Data (base64), Path or URL
// must be set; they are tried in that order.
type NoteMedia struct {
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
	Data     string   `json:"data,omitempty"`
	Path     string   `json:"path,omitempty"`
	URL      string   `json:"url,omitempty"`
	SkipHash string   `json:"skipHash,omitempty"`
}

// Note is a note to be created.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags,omitempty"`
	Audio     []NoteMedia       `json:"audio,omitempty"`
	Video     []NoteMedia       `json:"video,omitempty"`
	Picture   []NoteMedia       `json:"picture,omitempty"`
}

// DuplicateScopeOptions narrows the duplicate check.
type DuplicateScopeOptions struct {
	DeckName       *string `json:"deckName,omitempty"`
	CheckChildren  bool    `json:"checkChildren,omitempty"`
	CheckAllModels bool    `json:"checkAllModels,omitempty"`
}

// NoteOptions controls duplicate handling when adding notes. A DuplicateScope
// of "deck" checks the target deck only; anything else checks the collection.
type NoteOptions struct {
	AllowDuplicate        bool                   `json:"allowDuplicate,omitempty"`
	DuplicateScope        string                 `json:"duplicateScope,omitempty"`
	DuplicateScopeOptions *DuplicateScopeOptions `json:"duplicateScopeOptions,omitempty"`
}

// NewNote is a Note plus creation options.
type NewNote struct {
	Note
	Options *NoteOptions `json:"options,omitempty"`
}

// NoteInfo describes one existing note.
type NoteInfo struct {
	NoteID    int64                 `json:"noteId"`
	ModelName string                `json:"modelName"`
	Profile   string                `json:"profile,omitempty"`
	Tags      []string              `json:"tags"`
	Fields    map[string]FieldValue `json:"fields"`
	Cards     []int64               `json:"cards"`
	Mod       int64                 `json:"mod"`
}

// NoteModTime is one entry of notesModTime.
type NoteModTime struct {
	NoteID int64 `json:"noteId"`
	Mod    int64 `json:"mod"`
}

// CanAddResult is one entry of canAddNotesWithErrorDetail.
type CanAddResult struct {
	CanAdd bool   `json:"canAdd"`
	Error  string `json:"error,omitempty"`
}

// NoteUpdate changes an existing note. Fields, Tags or both may be set; media
// is only honored together with Fields.
type NoteUpdate struct {
	ID      int64             `json:"id"`
	Fields  map[string]string `json:"fields,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
	Audio   []NoteMedia       `json:"audio,omitempty"`
	Video   []NoteMedia       `json:"video,omitempty"`
	Picture []NoteMedia       `json:"picture,omitempty"`
}

// NoteModelUpdate switches a note to another note type.
type NoteModelUpdate struct {
	ID        int64             `json:"id"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

// Note params.
type (
	NoteParams struct {
		Note int64 `json:"note"`
	}
	NotesParams struct {
		Notes []int64 `json:"notes"`
	}
	NoteTagsParams struct {
		Notes []int64 `json:"notes"`
		// Tags is space separated.
		Tags string `json:"tags"`
	}
	AddNoteParams struct {
		Note NewNote `json:"note"`
	}
	AddNotesParams struct {
		Notes []NewNote `json:"notes"`
	}
	ReplaceTagsParams struct {
		Notes          []int64 `json:"notes"`
		TagToReplace   string  `json:"tag_to_replace"`
		ReplaceWithTag string  `json:"replace_with_tag"`
	}
	ReplaceTagsInAllNotesParams struct {
		TagToReplace   string `json:"tag_to_replace"`
		ReplaceWithTag string `json:"replace_with_tag"`
	}
	UpdateNoteParams struct {
		Note NoteUpdate `json:"note"`
	}
	UpdateNoteModelParams struct {
		Note NoteModelUpdate `json:"note"`
	}
	UpdateNoteTagsParams struct {
		Note int64    `json:"note"`
		Tags []string `json:"tags"`
	}
)

// Note actions.
var (
	AddNote                    = define[AddNoteParams, *int64](GroupNote, "addNote")
	AddNotes                   = define[AddNotesParams, []*int64](GroupNote, "addNotes")
	AddTags                    = define[NoteTagsParams, NoResult](GroupNote, "addTags")
	CanAddNotes                = define[AddNotesParams, []bool](GroupNote, "canAddNotes")
	CanAddNotesWithErrorDetail = define[AddNotesParams, []CanAddResult](GroupNote, "canAddNotesWithErrorDetail")
	ClearUnusedTags            = define[NoParams, []string](GroupNote, "clearUnusedTags")
	DeleteNotes                = define[NotesParams, NoResult](GroupNote, "deleteNotes")
	FindNotes                  = define[QueryParams, []int64](GroupNote, "findNotes")
	GetNoteTags                = define[NoteParams, []string](GroupNote, "getNoteTags")
	GetTags                    = define[NoParams, []string](GroupNote, "getTags")
	NotesInfo                  = define[NotesParams, []NoteInfo](GroupNote, "notesInfo")
	NotesModTime               = define[NotesParams, []NoteModTime](GroupNote, "notesModTime")
	RemoveEmptyNotes           = define[NoParams, NoResult](GroupNote, "removeEmptyNotes")
	RemoveTags                 = define[NoteTagsParams, NoResult](GroupNote, "removeTags")
	ReplaceTags                = define[ReplaceTagsParams, NoResult](GroupNote, "replaceTags")
	ReplaceTagsInAllNotes      = define[ReplaceTagsInAllNotesParams, NoResult](GroupNote, "replaceTagsInAllNotes")
	UpdateNote                 = define[UpdateNoteParams, NoResult](GroupNote, "updateNote")
	UpdateNoteFields           = define[UpdateNoteParams, NoResult](GroupNote, "updateNoteFields")
	UpdateNoteModel            = define[UpdateNoteModelParams, NoResult](GroupNote, "updateNoteModel")
	UpdateNoteTags             = define[UpdateNoteTagsParams, NoResult](GroupNote, "updateNoteTags")
)

// NoteService groups the note actions.
type NoteService struct{ c *Client }

// AddNote creates a note and returns its ID. The ID is nil if the note could
// not be created.
func (s *NoteService) AddNote(ctx context.Context, note NewNote) (*int64, error) {
	return Call(ctx, s.c, AddNote, AddNoteParams{Note: note})
}

// AddNotes creates notes; entries are nil for notes that failed.
func (s *NoteService) AddNotes(ctx context.Context, notes ...NewNote) ([]*int64, error) {
	return Call(ctx, s.c, AddNotes, AddNotesParams{Notes: notes})
}

// AddTags adds space separated tags to notes.
func (s *NoteService) AddTags(ctx context.Context, tags string, notes ...int64) error {
	return exec(ctx, s.c, AddTags, NoteTagsParams{Notes: notes, Tags: tags})
}

func (s *NoteService) CanAddNotes(ctx context.Context, notes ...NewNote) ([]bool, error) {
	return Call(ctx, s.c, CanAddNotes, AddNotesParams{Notes: notes})
}

func (s *NoteService) CanAddNotesWithErrorDetail(ctx context.Context, notes ...NewNote) ([]CanAddResult, error) {
	return Call(ctx, s.c, CanAddNotesWithErrorDetail, AddNotesParams{Notes: notes})
}

func (s *NoteService) ClearUnusedTags(ctx context.Context) ([]string, error) {
	return CallBare(ctx, s.c, ClearUnusedTags)
}

func (s *NoteService) DeleteNotes(ctx context.Context, notes ...int64) error {
	return exec(ctx, s.c, DeleteNotes, NotesParams{Notes: notes})
}

// FindNotes returns the IDs of notes matching a search query.
func (s *NoteService) FindNotes(ctx context.Context, query string) ([]int64, error) {
	return Call(ctx, s.c, FindNotes, QueryParams{Query: query})
}

func (s *NoteService) GetNoteTags(ctx context.Context, note int64) ([]string, error) {
	return Call(ctx, s.c, GetNoteTags, NoteParams{Note: note})
}

func (s *NoteService) GetTags(ctx context.Context) ([]string, error) {
	return CallBare(ctx, s.c, GetTags)
}

func (s *NoteService) NotesInfo(ctx context.Context, notes ...int64) ([]NoteInfo, error) {
	return Call(ctx, s.c, NotesInfo, NotesParams{Notes: notes})
}

func (s *NoteService) NotesModTime(ctx context.Context, notes ...int64) ([]NoteModTime, error) {
	return Call(ctx, s.c, NotesModTime, NotesParams{Notes: notes})
}

func (s *NoteService) RemoveEmptyNotes(ctx context.Context) error {
	return exec(ctx, s.c, RemoveEmptyNotes, NoParams{})
}

// RemoveTags removes space separated tags from notes.
func (s *NoteService) RemoveTags(ctx context.Context, tags string, notes ...int64) error {
	return exec(ctx, s.c, RemoveTags, NoteTagsParams{Notes: notes, Tags: tags})
}

func (s *NoteService) ReplaceTags(ctx context.Context, p ReplaceTagsParams) error {
	return exec(ctx, s.c, ReplaceTags, p)
}

func (s *NoteService) ReplaceTagsInAllNotes(ctx context.Context, tagToReplace, replaceWithTag string) error {
	return exec(ctx, s.c, ReplaceTagsInAllNotes, ReplaceTagsInAllNotesParams{
		TagToReplace:   tagToReplace,
		ReplaceWithTag: replaceWithTag,
	})
}

// UpdateNote changes fields, tags or both.
func (s *NoteService) UpdateNote(ctx context.Context, note NoteUpdate) error {
	return exec(ctx, s.c, UpdateNote, UpdateNoteParams{Note: note})
}

// UpdateNoteFields changes fields only; Tags on note is ignored by the server.
func (s *NoteService) UpdateNoteFields(ctx context.Context, note NoteUpdate) error {
	return exec(ctx, s.c, UpdateNoteFields, UpdateNoteParams{Note: note})
}

func (s *NoteService) UpdateNoteModel(ctx context.Context, note NoteModelUpdate) error {
	return exec(ctx, s.c, UpdateNoteModel, UpdateNoteModelParams{Note: note})
}

// UpdateNoteTags replaces all tags of a note.
func (s *NoteService) UpdateNoteTags(ctx context.Context, note int64, tags ...string) error {
	if tags == nil {
		tags = []string{}
	}
	return exec(ctx, s.c, UpdateNoteTags, UpdateNoteTagsParams{Note: note, Tags: tags})
}
