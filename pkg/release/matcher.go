package release

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// MatchConfidence buckets a title similarity score.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // score < 0.70
	ConfidenceLow                           // score >= 0.70
	ConfidenceMedium                        // score >= 0.85
	ConfidenceHigh                          // score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// TitleSimilarity computes the Jaro-Winkler similarity between two titles
// after normalization. Jaro-Winkler favors shared prefixes, which suits
// media titles where release names append year/quality/group noise.
func TitleSimilarity(a, b string) float64 {
	ca, cb := CleanTitle(a), CleanTitle(b)
	if ca == "" || cb == "" {
		return 0
	}
	return float64(edlib.JaroWinklerSimilarity(ca, cb))
}

// TitleConfidence buckets the similarity between a release name and a
// wanted title. Release names usually embed the title as a prefix, so a
// containment check upgrades low scores caused by trailing noise.
func TitleConfidence(releaseName, wantedTitle string) MatchConfidence {
	score := TitleSimilarity(releaseName, wantedTitle)

	cleanRelease := CleanTitle(releaseName)
	cleanWanted := CleanTitle(wantedTitle)
	if cleanWanted != "" && len(cleanRelease) > len(cleanWanted) {
		if strings.HasPrefix(cleanRelease, cleanWanted) {
			return ConfidenceHigh
		}
		if strings.Contains(cleanRelease, cleanWanted) {
			return ConfidenceMedium
		}
	}

	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
