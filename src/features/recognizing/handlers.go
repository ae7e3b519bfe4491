package recognizing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/contre95/djsetlist/src/music"
	"github.com/gofiber/fiber/v2"
)

// audioField is the multipart field clients upload the clip in.
const audioField = "audio"

// Handler handles recognition requests
type Handler struct {
	service *Service
}

// NewHandler creates a new recognition handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Recognize handles POST /recognize.
func (h *Handler) Recognize(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile(audioField)
	if err != nil || fileHeader == nil || fileHeader.Size == 0 {
		slog.Debug("Recognition request without audio", "error", err, "content_type", c.Get(fiber.HeaderContentType))
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{Success: false, Error: msgNoAudio})
	}

	if limit := h.service.MaxUploadBytes(); fileHeader.Size > limit {
		slog.Warn("Rejected oversized upload", "size", fileHeader.Size, "limit", limit)
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(Envelope{
			Success: false,
			Error:   fmt.Sprintf("Audio file exceeds the %d byte limit", limit),
		})
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		slog.Error("Failed to read uploaded audio", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(faultEnvelope(err))
	}

	payload, err := h.service.NewPayload(fileHeader.Filename, fileHeader.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		if errors.Is(err, music.ErrEmptyAudio) {
			return c.Status(fiber.StatusBadRequest).JSON(Envelope{Success: false, Error: msgNoAudio})
		}
		if errors.Is(err, music.ErrAudioTooLarge) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(Envelope{Success: false, Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(faultEnvelope(err))
	}

	ctx := ContextWithRequestID(c.UserContext(), c.GetRespHeader(fiber.HeaderXRequestID))
	outcome, err := h.service.Recognize(ctx, payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(faultEnvelope(err))
	}
	envelope, status := EnvelopeFor(outcome)
	if status != fiber.StatusOK {
		slog.Error("Recognition produced an unusable outcome", "kind", int(outcome.Kind))
	}
	return c.Status(status).JSON(envelope)
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}
