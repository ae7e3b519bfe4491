package audiotag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/contre95/djsetlist/src/music"
)

// NoTrackRecognized is the NoMatch reason used for every unusable success response.
const NoTrackRecognized = "No track recognized"

// shape identifies which of the known AudioTag response layouts matched.
type shape int

const (
	shapeNone   shape = iota
	shapeData         // {"data":[{title|song, artist|performer, confidence}]}
	shapeResult       // {"result":[{title, artist, confidence}]}
	shapeFlat         // {title, artist, confidence}
)

func (s shape) String() string {
	switch s {
	case shapeData:
		return "data"
	case shapeResult:
		return "result"
	case shapeFlat:
		return "flat"
	default:
		return "none"
	}
}

// normalize turns a successful AudioTag body into an Outcome. Only malformed
// JSON is an error; every well-formed body yields Matched or NoMatch.
func normalize(body []byte, provider string) (music.Outcome, shape, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return music.Outcome{}, shapeNone, fmt.Errorf("failed to parse %s response: %w", provider, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return music.Outcome{}, shapeNone, fmt.Errorf("failed to parse %s response: trailing data after JSON value", provider)
	}

	candidate, matched := probe(root, provider)
	if matched != shapeNone && candidate.IsComplete() {
		return music.Matched(provider, candidate), matched, nil
	}
	return music.NoMatch(provider, NoTrackRecognized), matched, nil
}

// probe tries each shape in priority order and stops at the first that applies.
// A shape applies on structure alone, so an incomplete first element still
// shadows the later shapes.
func probe(root any, provider string) (music.TrackMatch, shape) {
	obj, ok := root.(map[string]any)
	if !ok {
		return music.TrackMatch{}, shapeNone
	}

	if first, ok := firstElement(obj["data"]); ok {
		track := fields(first)
		return music.TrackMatch{
			Title:      firstNonEmpty(stringField(track, "title"), stringField(track, "song")),
			Artist:     firstNonEmpty(stringField(track, "artist"), stringField(track, "performer")),
			Confidence: numberField(track, "confidence"),
			Source:     provider,
		}, shapeData
	}

	if first, ok := firstElement(obj["result"]); ok {
		track := fields(first)
		return music.TrackMatch{
			Title:      stringField(track, "title"),
			Artist:     stringField(track, "artist"),
			Confidence: numberField(track, "confidence"),
			Source:     provider,
		}, shapeResult
	}

	title, artist := stringField(obj, "title"), stringField(obj, "artist")
	if title != "" && artist != "" {
		return music.TrackMatch{
			Title:      title,
			Artist:     artist,
			Confidence: numberField(obj, "confidence"),
			Source:     provider,
		}, shapeFlat
	}

	return music.TrackMatch{}, shapeNone
}

// firstElement only accepts a non-empty JSON array; any other value leaves
// the shape unmatched.
func firstElement(v any) (any, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// fields returns v as an object, or an empty one when the element is not an object.
func fields(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

// stringField treats non-string values as absent.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// numberField accepts JSON numbers and numeric strings, defaulting to 0.
func numberField(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil && isFinite(f) {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && isFinite(f) {
			return f
		}
	}
	return 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
