package ankiconnect

import "context"

// Media params.
type (
	FilenameParams struct {
		Filename string `json:"filename"`
	}
	PatternParams struct {
		Pattern string `json:"pattern"`
	}
	// StoreMediaFileParams stores a file in the media folder. Exactly one of
	// Data (base64), Path or URL should be set.
	StoreMediaFileParams struct {
		Filename       string `json:"filename"`
		Data           string `json:"data,omitempty"`
		Path           string `json:"path,omitempty"`
		URL            string `json:"url,omitempty"`
		DeleteExisting *bool  `json:"deleteExisting,omitempty"`
	}
)

// Media actions.
var (
	DeleteMediaFile    = define[FilenameParams, NoResult](GroupMedia, "deleteMediaFile")
	GetMediaDirPath    = define[NoParams, string](GroupMedia, "getMediaDirPath")
	GetMediaFilesNames = define[PatternParams, []string](GroupMedia, "getMediaFilesNames")
	RetrieveMediaFile  = define[FilenameParams, FalseOr[string]](GroupMedia, "retrieveMediaFile")
	StoreMediaFile     = define[StoreMediaFileParams, string](GroupMedia, "storeMediaFile")
)

// MediaService groups the media folder actions.
type MediaService struct{ c *Client }

func (s *MediaService) DeleteMediaFile(ctx context.Context, filename string) error {
	return exec(ctx, s.c, DeleteMediaFile, FilenameParams{Filename: filename})
}

func (s *MediaService) GetMediaDirPath(ctx context.Context) (string, error) {
	return CallBare(ctx, s.c, GetMediaDirPath)
}

// GetMediaFilesNames lists media files matching a glob pattern.
func (s *MediaService) GetMediaFilesNames(ctx context.Context, pattern string) ([]string, error) {
	return Call(ctx, s.c, GetMediaFilesNames, PatternParams{Pattern: pattern})
}

// RetrieveMediaFile returns the base64 content of a media file; ok is false if
// the file does not exist.
func (s *MediaService) RetrieveMediaFile(ctx context.Context, filename string) (data string, ok bool, err error) {
	res, err := Call(ctx, s.c, RetrieveMediaFile, FilenameParams{Filename: filename})
	return res.Value, res.Valid, err
}

// StoreMediaFile returns the name the file was stored under.
func (s *MediaService) StoreMediaFile(ctx context.Context, p StoreMediaFileParams) (string, error) {
	return Call(ctx, s.c, StoreMediaFile, p)
}
