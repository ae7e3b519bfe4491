package tag

import (
	"bytes"
	"mime"
	"strings"

	"github.com/contre95/djsetlist/src/music"
	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// TagReader inspects in-memory audio clips using the dhowden/tag and mimetype libraries.
type TagReader struct {
	fallbackMime string
}

// NewTagReader creates a new TagReader. fallbackMime is used when neither the
// client nor content sniffing yields a usable type.
func NewTagReader(fallbackMime string) *TagReader {
	if fallbackMime == "" {
		fallbackMime = "audio/wav"
	}
	return &TagReader{fallbackMime: fallbackMime}
}

// ResolveMimeType keeps a meaningful client-declared type and otherwise sniffs the content.
func (r *TagReader) ResolveMimeType(data []byte, declared string) string {
	if mediaType := baseType(declared); mediaType != "" && mediaType != octetStream {
		return declared
	}
	if detected := baseType(mimetype.Detect(data).String()); detected != "" && detected != octetStream && !strings.HasPrefix(detected, "text/") {
		return detected
	}
	return r.fallbackMime
}

// Inspect reads the container and any embedded tags. It never fails: unknown
// content just yields an empty ClipInfo apart from the MIME type.
func (r *TagReader) Inspect(data []byte) music.ClipInfo {
	info := music.ClipInfo{MimeType: baseType(mimetype.Detect(data).String())}
	if len(data) == 0 {
		return info
	}

	format, fileType, err := tag.Identify(bytes.NewReader(data))
	if err != nil {
		return info
	}
	info.Format = string(format)
	info.FileType = string(fileType)

	// Identify succeeded so ReadFrom has a known format to parse
	if tags, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		info.Title = strings.TrimSpace(tags.Title())
		info.Artist = strings.TrimSpace(tags.Artist())
	}
	return info
}

// baseType strips parameters such as charset from a media type.
func baseType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mediaType
}
