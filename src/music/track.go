package music

import (
	"fmt"
	"strings"
)

// TrackMatch is a normalized identification returned by a recognition provider.
type TrackMatch struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// IsComplete reports whether both title and artist are present.
func (t TrackMatch) IsComplete() bool {
	return t.Title != "" && t.Artist != ""
}

// String formats the match as "Artist - Title".
func (t TrackMatch) String() string {
	return fmt.Sprintf("%s - %s", strings.TrimSpace(t.Artist), strings.TrimSpace(t.Title))
}
