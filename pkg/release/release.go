// Package release parses torrent and release file names: season/episode
// markers, video file classification, and quality detection.
package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// videoExtensions is the set of file suffixes treated as video content.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".webm": true,
	".ts":   true,
}

// IsVideoFile reports whether the path has a known video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Season/episode pattern families, tried in priority order.
// The first family that matches wins; later families are never consulted
// to reconcile a conflict.
var seasonEpisodePatterns = []*regexp.Regexp{
	// S01E05, s1e5
	regexp.MustCompile(`(?i)s(\d{1,3})e(\d{1,3})`),
	// 1x05
	regexp.MustCompile(`(\d{1,3})x(\d{1,3})`),
	// Season 1 ... Episode 5, any separator text between the markers
	regexp.MustCompile(`(?i)season[ ._-]*(\d{1,3}).*?episode[ ._-]*(\d{1,3})`),
}

// ParseSeasonEpisode extracts season and episode numbers from a file name.
// Returns ok=false when no pattern family matches; that is an expected
// condition for extras, samples, and junk files, not an error.
func ParseSeasonEpisode(name string) (season, episode int, ok bool) {
	base := filepath.Base(name)
	for _, re := range seasonEpisodePatterns {
		m := re.FindStringSubmatch(base)
		if len(m) != 3 {
			continue
		}
		s, err1 := strconv.Atoi(m[1])
		e, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		return s, e, true
	}
	return 0, 0, false
}

// DetectQuality extracts resolution from a release or file name.
// Best-effort ordered token scan; unknown when nothing matches.
func DetectQuality(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "2160p") || strings.Contains(lower, "4k"):
		return "2160p"
	case strings.Contains(lower, "1080p"):
		return "1080p"
	case strings.Contains(lower, "720p"):
		return "720p"
	case strings.Contains(lower, "480p") || strings.Contains(lower, "sd"):
		return "480p"
	default:
		return "unknown"
	}
}

// FormatEpisodeCode renders the canonical SxxEyy identifier for an episode.
func FormatEpisodeCode(season, episode int) string {
	return "S" + pad2(season) + "E" + pad2(episode)
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if n < 10 && n >= 0 {
		return "0" + s
	}
	return s
}
