package ankiconnect

import "context"

// ModelField is a field definition of a note type.
type ModelField struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Ord               int    `json:"ord"`
	Description       string `json:"description"`
	Font              string `json:"font"`
	Size              int    `json:"size"`
	RTL               bool   `json:"rtl"`
	Sticky            bool   `json:"sticky"`
	PlainText         bool   `json:"plainText"`
	Collapsed         bool   `json:"collapsed"`
	ExcludeFromSearch bool   `json:"excludeFromSearch"`
	PreventDeletion   bool   `json:"preventDeletion"`
}

// ModelTemplate is a card template of a note type.
type ModelTemplate struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
	BFont string `json:"bfont"`
	BSize int    `json:"bsize"`
}

// Model is a note type.
type Model struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Type              int             `json:"type"`
	CSS               string          `json:"css"`
	Fields            []ModelField    `json:"flds"`
	Templates         []ModelTemplate `json:"tmpls"`
	SortField         int             `json:"sortf"`
	LatexPre          string          `json:"latexPre"`
	LatexPost         string          `json:"latexPost"`
	LatexSVG          bool            `json:"latexsvg"`
	Mod               int64           `json:"mod"`
	USN               int             `json:"usn"`
	OriginalStockKind int             `json:"originalStockKind"`
}

// CardTemplate is the front and back of a card template.
type CardTemplate struct {
	Name  string `json:"Name,omitempty"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// TemplateUpdate changes one or both sides of a template.
type TemplateUpdate struct {
	Front string `json:"Front,omitempty"`
	Back  string `json:"Back,omitempty"`
}

// FieldFont is the editor font of a field.
type FieldFont struct {
	Font string `json:"font"`
	Size int    `json:"size"`
}

// Styling is the CSS of a note type.
type Styling struct {
	CSS string `json:"css"`
}

// FindReplace describes a find-and-replace across a note type's templates and
// styling.
type FindReplace struct {
	ModelName   string `json:"modelName"`
	FindText    string `json:"findText"`
	ReplaceText string `json:"replaceText"`
	Front       bool   `json:"front"`
	Back        bool   `json:"back"`
	CSS         bool   `json:"css"`
}

// Model params.
type (
	ModelNameParams struct {
		ModelName string `json:"modelName"`
	}
	CreateModelParams struct {
		ModelName     string         `json:"modelName"`
		InOrderFields []string       `json:"inOrderFields"`
		CSS           string         `json:"css,omitempty"`
		IsCloze       bool           `json:"isCloze,omitempty"`
		CardTemplates []CardTemplate `json:"cardTemplates"`
	}
	FindAndReplaceInModelsParams struct {
		Model FindReplace `json:"model"`
	}
	ModelIDsParams struct {
		ModelIDs []int64 `json:"modelIds"`
	}
	ModelNamesParams struct {
		ModelNames []string `json:"modelNames"`
	}
	ModelFieldParams struct {
		ModelName string `json:"modelName"`
		FieldName string `json:"fieldName"`
	}
	ModelFieldIndexParams struct {
		ModelName string `json:"modelName"`
		FieldName string `json:"fieldName"`
		Index     int    `json:"index"`
	}
	ModelFieldRenameParams struct {
		ModelName    string `json:"modelName"`
		OldFieldName string `json:"oldFieldName"`
		NewFieldName string `json:"newFieldName"`
	}
	ModelFieldDescriptionParams struct {
		ModelName   string `json:"modelName"`
		FieldName   string `json:"fieldName"`
		Description string `json:"description"`
	}
	ModelFieldFontParams struct {
		ModelName string `json:"modelName"`
		FieldName string `json:"fieldName"`
		Font      string `json:"font"`
	}
	ModelFieldFontSizeParams struct {
		ModelName string `json:"modelName"`
		FieldName string `json:"fieldName"`
		FontSize  int    `json:"fontSize"`
	}
	ModelTemplateAddParams struct {
		ModelName string       `json:"modelName"`
		Template  CardTemplate `json:"template"`
	}
	ModelTemplateParams struct {
		ModelName    string `json:"modelName"`
		TemplateName string `json:"templateName"`
	}
	ModelTemplateRenameParams struct {
		ModelName       string `json:"modelName"`
		OldTemplateName string `json:"oldTemplateName"`
		NewTemplateName string `json:"newTemplateName"`
	}
	ModelTemplateRepositionParams struct {
		ModelName    string `json:"modelName"`
		TemplateName string `json:"templateName"`
		Index        int    `json:"index"`
	}
	UpdateModelStylingParams struct {
		Model struct {
			Name string `json:"name"`
			CSS  string `json:"css"`
		} `json:"model"`
	}
	UpdateModelTemplatesParams struct {
		Model struct {
			Name      string                    `json:"name"`
			Templates map[string]TemplateUpdate `json:"templates"`
		} `json:"model"`
	}
)

// Model actions.
var (
	CreateModel              = define[CreateModelParams, Model](GroupModel, "createModel")
	FindAndReplaceInModels   = define[FindAndReplaceInModelsParams, int](GroupModel, "findAndReplaceInModels")
	FindModelsByID           = define[ModelIDsParams, []Model](GroupModel, "findModelsById")
	FindModelsByName         = define[ModelNamesParams, []Model](GroupModel, "findModelsByName")
	ModelFieldAdd            = define[ModelFieldIndexParams, NoResult](GroupModel, "modelFieldAdd")
	ModelFieldDescriptions   = define[ModelNameParams, []string](GroupModel, "modelFieldDescriptions")
	ModelFieldFonts          = define[ModelNameParams, map[string]FieldFont](GroupModel, "modelFieldFonts")
	ModelFieldNames          = define[ModelNameParams, []string](GroupModel, "modelFieldNames")
	ModelFieldRemove         = define[ModelFieldParams, NoResult](GroupModel, "modelFieldRemove")
	ModelFieldRename         = define[ModelFieldRenameParams, NoResult](GroupModel, "modelFieldRename")
	ModelFieldReposition     = define[ModelFieldIndexParams, NoResult](GroupModel, "modelFieldReposition")
	ModelFieldSetDescription = define[ModelFieldDescriptionParams, bool](GroupModel, "modelFieldSetDescription")
	ModelFieldSetFont        = define[ModelFieldFontParams, NoResult](GroupModel, "modelFieldSetFont")
	ModelFieldSetFontSize    = define[ModelFieldFontSizeParams, NoResult](GroupModel, "modelFieldSetFontSize")
	ModelFieldsOnTemplates   = define[ModelNameParams, map[string][2][]string](GroupModel, "modelFieldsOnTemplates")
	ModelNames               = define[NoParams, []string](GroupModel, "modelNames")
	ModelNamesAndIDs         = define[NoParams, map[string]int64](GroupModel, "modelNamesAndIds")
	ModelStyling             = define[ModelNameParams, Styling](GroupModel, "modelStyling")
	ModelTemplateAdd         = define[ModelTemplateAddParams, NoResult](GroupModel, "modelTemplateAdd")
	ModelTemplateRemove      = define[ModelTemplateParams, NoResult](GroupModel, "modelTemplateRemove")
	ModelTemplateRename      = define[ModelTemplateRenameParams, NoResult](GroupModel, "modelTemplateRename")
	ModelTemplateReposition  = define[ModelTemplateRepositionParams, NoResult](GroupModel, "modelTemplateReposition")
	ModelTemplates           = define[ModelNameParams, map[string]CardTemplate](GroupModel, "modelTemplates")
	UpdateModelStyling       = define[UpdateModelStylingParams, NoResult](GroupModel, "updateModelStyling")
	UpdateModelTemplates     = define[UpdateModelTemplatesParams, NoResult](GroupModel, "updateModelTemplates")
)

// ModelService groups the note type actions.
type ModelService struct{ c *Client }

func (s *ModelService) CreateModel(ctx context.Context, p CreateModelParams) (Model, error) {
	return Call(ctx, s.c, CreateModel, p)
}

// FindAndReplaceInModels returns the number of replacements made.
func (s *ModelService) FindAndReplaceInModels(ctx context.Context, fr FindReplace) (int, error) {
	return Call(ctx, s.c, FindAndReplaceInModels, FindAndReplaceInModelsParams{Model: fr})
}

func (s *ModelService) FindModelsByID(ctx context.Context, ids ...int64) ([]Model, error) {
	return Call(ctx, s.c, FindModelsByID, ModelIDsParams{ModelIDs: ids})
}

func (s *ModelService) FindModelsByName(ctx context.Context, names ...string) ([]Model, error) {
	return Call(ctx, s.c, FindModelsByName, ModelNamesParams{ModelNames: names})
}

// ModelFieldAdd inserts a field at index.
func (s *ModelService) ModelFieldAdd(ctx context.Context, model, field string, index int) error {
	return exec(ctx, s.c, ModelFieldAdd, ModelFieldIndexParams{ModelName: model, FieldName: field, Index: index})
}

func (s *ModelService) ModelFieldDescriptions(ctx context.Context, model string) ([]string, error) {
	return Call(ctx, s.c, ModelFieldDescriptions, ModelNameParams{ModelName: model})
}

func (s *ModelService) ModelFieldFonts(ctx context.Context, model string) (map[string]FieldFont, error) {
	return Call(ctx, s.c, ModelFieldFonts, ModelNameParams{ModelName: model})
}

func (s *ModelService) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	return Call(ctx, s.c, ModelFieldNames, ModelNameParams{ModelName: model})
}

func (s *ModelService) ModelFieldRemove(ctx context.Context, model, field string) error {
	return exec(ctx, s.c, ModelFieldRemove, ModelFieldParams{ModelName: model, FieldName: field})
}

func (s *ModelService) ModelFieldRename(ctx context.Context, model, oldName, newName string) error {
	return exec(ctx, s.c, ModelFieldRename, ModelFieldRenameParams{
		ModelName:    model,
		OldFieldName: oldName,
		NewFieldName: newName,
	})
}

func (s *ModelService) ModelFieldReposition(ctx context.Context, model, field string, index int) error {
	return exec(ctx, s.c, ModelFieldReposition, ModelFieldIndexParams{ModelName: model, FieldName: field, Index: index})
}

func (s *ModelService) ModelFieldSetDescription(ctx context.Context, p ModelFieldDescriptionParams) (bool, error) {
	return Call(ctx, s.c, ModelFieldSetDescription, p)
}

func (s *ModelService) ModelFieldSetFont(ctx context.Context, p ModelFieldFontParams) error {
	return exec(ctx, s.c, ModelFieldSetFont, p)
}

func (s *ModelService) ModelFieldSetFontSize(ctx context.Context, p ModelFieldFontSizeParams) error {
	return exec(ctx, s.c, ModelFieldSetFontSize, p)
}

// ModelFieldsOnTemplates returns, per template, the fields on the front and
// on the back.
func (s *ModelService) ModelFieldsOnTemplates(ctx context.Context, model string) (map[string][2][]string, error) {
	return Call(ctx, s.c, ModelFieldsOnTemplates, ModelNameParams{ModelName: model})
}

func (s *ModelService) ModelNames(ctx context.Context) ([]string, error) {
	return CallBare(ctx, s.c, ModelNames)
}

func (s *ModelService) ModelNamesAndIDs(ctx context.Context) (map[string]int64, error) {
	return CallBare(ctx, s.c, ModelNamesAndIDs)
}

func (s *ModelService) ModelStyling(ctx context.Context, model string) (string, error) {
	st, err := Call(ctx, s.c, ModelStyling, ModelNameParams{ModelName: model})
	return st.CSS, err
}

func (s *ModelService) ModelTemplateAdd(ctx context.Context, model string, tmpl CardTemplate) error {
	return exec(ctx, s.c, ModelTemplateAdd, ModelTemplateAddParams{ModelName: model, Template: tmpl})
}

func (s *ModelService) ModelTemplateRemove(ctx context.Context, model, template string) error {
	return exec(ctx, s.c, ModelTemplateRemove, ModelTemplateParams{ModelName: model, TemplateName: template})
}

func (s *ModelService) ModelTemplateRename(ctx context.Context, model, oldName, newName string) error {
	return exec(ctx, s.c, ModelTemplateRename, ModelTemplateRenameParams{
		ModelName:       model,
		OldTemplateName: oldName,
		NewTemplateName: newName,
	})
}

func (s *ModelService) ModelTemplateReposition(ctx context.Context, model, template string, index int) error {
	return exec(ctx, s.c, ModelTemplateReposition, ModelTemplateRepositionParams{
		ModelName:    model,
		TemplateName: template,
		Index:        index,
	})
}

// ModelTemplates returns the templates of a note type keyed by name.
func (s *ModelService) ModelTemplates(ctx context.Context, model string) (map[string]CardTemplate, error) {
	return Call(ctx, s.c, ModelTemplates, ModelNameParams{ModelName: model})
}

func (s *ModelService) UpdateModelStyling(ctx context.Context, model, css string) error {
	var p UpdateModelStylingParams
	p.Model.Name = model
	p.Model.CSS = css
	return exec(ctx, s.c, UpdateModelStyling, p)
}

// UpdateModelTemplates changes templates keyed by template name; empty sides
// are left unchanged.
func (s *ModelService) UpdateModelTemplates(ctx context.Context, model string, templates map[string]TemplateUpdate) error {
	var p UpdateModelTemplatesParams
	p.Model.Name = model
	p.Model.Templates = templates
	return exec(ctx, s.c, UpdateModelTemplates, p)
}
