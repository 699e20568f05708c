package media

import (
	"encoding/json"
	"fmt"
)

// Request kind tags used in the serialized form.
const (
	kindMovie   = "movie"
	kindEpisode = "episode"
	kindSeason  = "season"
	kindSeries  = "series"
)

type requestEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeRequest serializes a request with a kind discriminator so it can
// be stored in the download tracker and decoded back to the right variant.
func EncodeRequest(r Request) ([]byte, error) {
	var kind string
	switch r.(type) {
	case MovieRequest:
		kind = kindMovie
	case EpisodeRequest:
		kind = kindEpisode
	case SeasonRequest:
		kind = kindSeason
	case SeriesRequest:
		kind = kindSeries
	default:
		return nil, fmt.Errorf("encode request: unknown variant %T", r)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode request payload: %w", err)
	}
	return json.Marshal(requestEnvelope{Kind: kind, Payload: payload})
}

// DecodeRequest deserializes a request produced by EncodeRequest.
func DecodeRequest(data []byte) (Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode request envelope: %w", err)
	}

	switch env.Kind {
	case kindMovie:
		var r MovieRequest
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, fmt.Errorf("decode movie request: %w", err)
		}
		return r, nil
	case kindEpisode:
		var r EpisodeRequest
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, fmt.Errorf("decode episode request: %w", err)
		}
		return r, nil
	case kindSeason:
		var r SeasonRequest
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, fmt.Errorf("decode season request: %w", err)
		}
		return r, nil
	case kindSeries:
		var r SeriesRequest
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, fmt.Errorf("decode series request: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("decode request: unknown kind %q", env.Kind)
	}
}
