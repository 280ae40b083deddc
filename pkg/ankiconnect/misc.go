package ankiconnect

import (
	"context"
	"encoding/json"
)

// Reflection describes which actions the server exposes.
type Reflection struct {
	Scopes  []string `json:"scopes"`
	Actions []string `json:"actions"`
}

// Permission is the reply to requestPermission.
type Permission struct {
	// Permission is "granted" or "denied".
	Permission    string `json:"permission"`
	RequireAPIKey bool   `json:"requireApiKey,omitempty"`
	Version       int    `json:"version,omitempty"`
}

// Granted reports whether the server granted access.
func (p Permission) Granted() bool { return p.Permission == "granted" }

// MultiAction is one request inside a multi batch.
type MultiAction struct {
	Action  string `json:"action"`
	Params  any    `json:"params,omitempty"`
	Version int    `json:"version,omitempty"`
}

// Misc params.
type (
	APIReflectParams struct {
		Scopes []string `json:"scopes"`
		// Actions limits the reply to these names; nil asks for all.
		Actions []string `json:"actions"`
	}
	ExportPackageParams struct {
		Deck         string `json:"deck"`
		Path         string `json:"path"`
		IncludeSched bool   `json:"includeSched,omitempty"`
	}
	MultiParams struct {
		Actions []MultiAction `json:"actions"`
	}
)

// Miscellaneous actions.
var (
	APIReflect        = define[APIReflectParams, Reflection](GroupMisc, "apiReflect")
	ExportPackage     = define[ExportPackageParams, bool](GroupMisc, "exportPackage")
	GetActiveProfile  = define[NoParams, string](GroupMisc, "getActiveProfile")
	GetProfiles       = define[NoParams, []string](GroupMisc, "getProfiles")
	ImportPackage     = define[PathParams, bool](GroupMisc, "importPackage")
	LoadProfile       = define[NameParams, bool](GroupMisc, "loadProfile")
	Multi             = define[MultiParams, []json.RawMessage](GroupMisc, "multi")
	ReloadCollection  = define[NoParams, NoResult](GroupMisc, "reloadCollection")
	RequestPermission = define[NoParams, Permission](GroupMisc, "requestPermission")
	Sync              = define[NoParams, NoResult](GroupMisc, "sync")
	Version           = define[NoParams, int](GroupMisc, "version")
)

// MiscService groups the miscellaneous actions.
type MiscService struct{ c *Client }

// APIReflect reports the actions the server supports, optionally limited to
// the given names.
func (s *MiscService) APIReflect(ctx context.Context, actions ...string) (Reflection, error) {
	return Call(ctx, s.c, APIReflect, APIReflectParams{Scopes: []string{"actions"}, Actions: actions})
}

func (s *MiscService) ExportPackage(ctx context.Context, p ExportPackageParams) (bool, error) {
	return Call(ctx, s.c, ExportPackage, p)
}

func (s *MiscService) GetActiveProfile(ctx context.Context) (string, error) {
	return CallBare(ctx, s.c, GetActiveProfile)
}

func (s *MiscService) GetProfiles(ctx context.Context) ([]string, error) {
	return CallBare(ctx, s.c, GetProfiles)
}

// ImportPackage imports an .apkg; path is relative to the media folder.
func (s *MiscService) ImportPackage(ctx context.Context, path string) (bool, error) {
	return Call(ctx, s.c, ImportPackage, PathParams{Path: path})
}

func (s *MiscService) LoadProfile(ctx context.Context, name string) (bool, error) {
	return Call(ctx, s.c, LoadProfile, NameParams{Name: name})
}

// Multi runs several actions in one request. Each entry of the result is the
// raw reply of the matching action, either a bare result or an envelope
// depending on the version requested for it.
func (s *MiscService) Multi(ctx context.Context, actions ...MultiAction) ([]json.RawMessage, error) {
	return Call(ctx, s.c, Multi, MultiParams{Actions: actions})
}

func (s *MiscService) ReloadCollection(ctx context.Context) error {
	return exec(ctx, s.c, ReloadCollection, NoParams{})
}

// RequestPermission is the only action accepted without a valid key.
func (s *MiscService) RequestPermission(ctx context.Context) (Permission, error) {
	return CallBare(ctx, s.c, RequestPermission)
}

// Sync synchronizes the collection with AnkiWeb.
func (s *MiscService) Sync(ctx context.Context) error {
	return exec(ctx, s.c, Sync, NoParams{})
}

// Version returns the AnkiConnect API version of the server.
func (s *MiscService) Version(ctx context.Context) (int, error) {
	return CallBare(ctx, s.c, Version)
}
