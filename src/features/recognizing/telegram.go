package recognizing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/contre95/djsetlist/src/music"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the part of *tgbotapi.BotAPI the recognition handler needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramHandler identifies audio, voice and audio document messages.
type TelegramHandler struct {
	service    *Service
	httpClient *http.Client
	timeout    time.Duration
}

// NewTelegramHandler creates a new telegram handler for recognition.
// timeout bounds the clip download and the recognition together.
func NewTelegramHandler(service *Service, timeout time.Duration) *TelegramHandler {
	return &TelegramHandler{
		service:    service,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// GetCommands returns command -> description mapping
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"help": "Send an audio clip, voice message or audio file to identify the track",
	}
}

type telegramClip struct {
	fileID   string
	filename string
	mimeType string
	size     int64
}

// clipFromMessage extracts the downloadable audio attached to message, if any.
func clipFromMessage(message *tgbotapi.Message) (telegramClip, bool) {
	switch {
	case message == nil:
		return telegramClip{}, false
	case message.Audio != nil:
		return telegramClip{
			fileID:   message.Audio.FileID,
			filename: message.Audio.FileName,
			mimeType: message.Audio.MimeType,
			size:     int64(message.Audio.FileSize),
		}, true
	case message.Voice != nil:
		return telegramClip{
			fileID:   message.Voice.FileID,
			filename: "voice.ogg",
			mimeType: message.Voice.MimeType,
			size:     int64(message.Voice.FileSize),
		}, true
	case message.Document != nil && strings.HasPrefix(message.Document.MimeType, "audio/"):
		return telegramClip{
			fileID:   message.Document.FileID,
			filename: message.Document.FileName,
			mimeType: message.Document.MimeType,
			size:     int64(message.Document.FileSize),
		}, true
	}
	return telegramClip{}, false
}

// HandleMessage answers message when it carries audio and reports whether it did.
func (h *TelegramHandler) HandleMessage(bot TelegramSender, message *tgbotapi.Message) bool {
	clip, ok := clipFromMessage(message)
	if !ok {
		return false
	}
	chatID := message.Chat.ID

	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*h.timeout)
		defer cancel()
	}

	limit := h.service.MaxUploadBytes()
	if clip.size > limit {
		h.reply(bot, chatID, message.MessageID, fmt.Sprintf("❌ Audio file is too large (limit %d MiB)", limit/(1024*1024)))
		return true
	}

	data, err := h.download(ctx, bot, clip.fileID, limit)
	if err != nil {
		slog.Error("Failed to download telegram audio", "error", err, "chat_id", chatID)
		if errors.Is(err, music.ErrAudioTooLarge) {
			h.reply(bot, chatID, message.MessageID, fmt.Sprintf("❌ Audio file is too large (limit %d MiB)", limit/(1024*1024)))
		} else {
			h.reply(bot, chatID, message.MessageID, "❌ Failed to download audio, please try again")
		}
		return true
	}

	payload, err := h.service.NewPayload(clip.filename, clip.mimeType, data)
	if err != nil {
		h.reply(bot, chatID, message.MessageID, "❌ "+err.Error())
		return true
	}

	outcome, err := h.service.Recognize(ContextWithRequestID(ctx, fmt.Sprintf("tg-%d-%d", chatID, message.MessageID)), payload)
	if err != nil {
		h.reply(bot, chatID, message.MessageID, "❌ "+msgRecognizeFailure)
		return true
	}
	h.reply(bot, chatID, message.MessageID, formatOutcome(outcome))
	return true
}

func (h *TelegramHandler) download(ctx context.Context, bot TelegramSender, fileID string, limit int64) ([]byte, error) {
	fileURL, err := bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, music.ErrAudioTooLarge
	}
	return data, nil
}

// formatOutcome renders an outcome as a chat reply.
func formatOutcome(outcome music.Outcome) string {
	switch outcome.Kind {
	case music.OutcomeMatched:
		return fmt.Sprintf("🎵 %s\nConfidence: %g (%s)", outcome.Track.String(), outcome.Track.Confidence, outcome.Track.Source)
	case music.OutcomeNoMatch:
		return "🤷 " + outcome.Reason
	case music.OutcomeUpstreamError:
		return "⚠️ " + upstreamMessage(outcome)
	default:
		return "❌ " + msgRecognizeFailure
	}
}

func (h *TelegramHandler) reply(bot TelegramSender, chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if _, err := bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram message", "error", err, "chat_id", chatID)
	}
}
