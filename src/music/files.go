package music

import (
	"errors"
)

var (
	// ErrEmptyAudio is returned when an upload carries no audio bytes.
	ErrEmptyAudio = errors.New("audio payload is empty")
	// ErrAudioTooLarge is returned when an upload exceeds the configured ceiling.
	ErrAudioTooLarge = errors.New("audio payload too large")
)

// AudioPayload is an uploaded audio clip held in memory for a single recognition.
type AudioPayload struct {
	Bytes     []byte
	MimeType  string
	SizeBytes int64
	Filename  string // as sent by the client, diagnostics only
}

// NewAudioPayload builds a payload from raw upload bytes.
func NewAudioPayload(filename, mimeType string, data []byte) (AudioPayload, error) {
	if len(data) == 0 {
		return AudioPayload{}, ErrEmptyAudio
	}
	return AudioPayload{
		Bytes:     data,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Filename:  filename,
	}, nil
}

// ClipInfo describes what could be learned about an upload by sniffing its bytes.
type ClipInfo struct {
	MimeType string // detected from content, not the client header
	Format   string // tag format, e.g. "ID3v2.3"
	FileType string // container, e.g. "MP3", "FLAC"
	Title    string // embedded tag, if any
	Artist   string // embedded tag, if any
}
