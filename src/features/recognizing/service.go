package recognizing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contre95/djsetlist/src/features/config"
	"github.com/contre95/djsetlist/src/music"
	"github.com/google/uuid"
)

// Recognizer sends a clip to a fingerprinting provider and normalizes the answer.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, payload music.AudioPayload) (music.Outcome, error)
}

// ClipInspector sniffs uploaded bytes for diagnostics and MIME resolution.
type ClipInspector interface {
	ResolveMimeType(data []byte, declared string) string
	Inspect(data []byte) music.ClipInfo
}

// OutcomeRecorder receives one observation per finished recognition.
type OutcomeRecorder interface {
	RecordRecognition(provider, outcome string, sizeBytes int64, duration time.Duration)
}

// Service runs a single recognition per call. It holds no per-request state.
type Service struct {
	config     *config.Manager
	recognizer Recognizer
	inspector  ClipInspector
	metrics    OutcomeRecorder
}

// NewService creates a new recognizing service. recorder may be nil.
func NewService(cfg *config.Manager, recognizer Recognizer, inspector ClipInspector, recorder OutcomeRecorder) *Service {
	return &Service{
		config:     cfg,
		recognizer: recognizer,
		inspector:  inspector,
		metrics:    recorder,
	}
}

// MaxUploadBytes returns the configured upload ceiling.
func (s *Service) MaxUploadBytes() int64 {
	if limit := s.config.Get().Server.MaxUploadBytes; limit > 0 {
		return limit
	}
	return config.DefaultMaxUploadBytes
}

// NewPayload builds an AudioPayload from raw upload bytes, resolving the MIME
// type from content when the client did not send a useful one.
func (s *Service) NewPayload(filename, declaredMime string, data []byte) (music.AudioPayload, error) {
	if len(data) == 0 {
		return music.AudioPayload{}, music.ErrEmptyAudio
	}
	if limit := s.MaxUploadBytes(); int64(len(data)) > limit {
		return music.AudioPayload{}, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", music.ErrAudioTooLarge, len(data), limit)
	}
	return music.NewAudioPayload(filename, s.inspector.ResolveMimeType(data, declaredMime), data)
}

// Recognize forwards the payload to the provider. A returned error means the
// attempt faulted before any outcome could be produced.
func (s *Service) Recognize(ctx context.Context, payload music.AudioPayload) (music.Outcome, error) {
	provider := s.recognizer.Name()
	logger := slog.With("recognition_id", requestIDFrom(ctx), "provider", provider)

	info := s.inspector.Inspect(payload.Bytes)
	logger.Info("Received recognition request",
		"size", payload.SizeBytes,
		"mime", payload.MimeType,
		"filename", payload.Filename,
		"container", info.FileType,
		"tag_format", info.Format,
	)
	if info.Title != "" || info.Artist != "" {
		logger.Debug("Clip carries embedded tags", "title", info.Title, "artist", info.Artist)
	}

	start := time.Now()
	outcome, err := s.recognizer.Recognize(ctx, payload)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("Recognition error", "error", err, "duration", elapsed.String())
		s.record(provider, "fault", payload.SizeBytes, elapsed)
		return music.Outcome{}, err
	}
	s.record(provider, outcome.Kind.String(), payload.SizeBytes, elapsed)

	switch outcome.Kind {
	case music.OutcomeMatched:
		logger.Info("Successfully recognized", "title", outcome.Track.Title, "artist", outcome.Track.Artist, "confidence", outcome.Track.Confidence, "duration", elapsed.String())
	case music.OutcomeNoMatch:
		logger.Info("No track recognized", "reason", outcome.Reason, "duration", elapsed.String())
	case music.OutcomeUpstreamError:
		logger.Warn("Recognition provider returned an error", "status", outcome.StatusCode, "duration", elapsed.String())
	}
	return outcome, nil
}

func (s *Service) record(provider, outcome string, size int64, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRecognition(provider, outcome, size, elapsed)
}

type requestIDKey struct{}

// ContextWithRequestID tags ctx so log lines of one recognition can be correlated.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
