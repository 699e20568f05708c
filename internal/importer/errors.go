package importer

import "errors"

var (
	// ErrNothingMatched indicates the match result carries no files, so
	// there is nothing to import. The confirm gate should have blocked
	// this upstream.
	ErrNothingMatched = errors.New("no matched files to import")

	// ErrFileNotFound indicates a matched file could not be located under
	// the download path.
	ErrFileNotFound = errors.New("matched file not found in download")

	// ErrMissingMetadataID indicates the request lacks the external
	// metadata ID needed to create the library entity.
	ErrMissingMetadataID = errors.New("request missing metadata id")
)
