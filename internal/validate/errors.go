package validate

import "errors"

var (
	// ErrMetadataFetch indicates the torrent engine could not deliver the
	// torrent's file list (magnet metadata timeout, engine down). Fatal
	// to the validation attempt; surfaced to the user, never swallowed.
	ErrMetadataFetch = errors.New("torrent file list unavailable")

	// ErrEpisodeList indicates the metadata API could not deliver the
	// authoritative episode list for the request.
	ErrEpisodeList = errors.New("episode list unavailable")
)
