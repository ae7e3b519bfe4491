package recognizing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contre95/djsetlist/src/music"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

// fakeBot records replies and serves files from a local URL.
type fakeBot struct {
	fileURL string
	urlErr  error
	sent    []tgbotapi.MessageConfig
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if b.urlErr != nil {
		return "", b.urlErr
	}
	return b.fileURL + "/" + fileID, nil
}

func fileServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func voiceMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 42,
		Chat:      &tgbotapi.Chat{ID: 7},
		Voice:     &tgbotapi.Voice{FileID: "voice-1", MimeType: "audio/ogg", FileSize: 4},
	}
}

func TestClipFromMessage(t *testing.T) {
	_, ok := clipFromMessage(&tgbotapi.Message{Text: "hello"})
	require.False(t, ok)

	_, ok = clipFromMessage(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d", MimeType: "application/pdf"}})
	require.False(t, ok)

	clip, ok := clipFromMessage(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d", FileName: "set.flac", MimeType: "audio/flac", FileSize: 10}})
	require.True(t, ok)
	require.Equal(t, telegramClip{fileID: "d", filename: "set.flac", mimeType: "audio/flac", size: 10}, clip)

	clip, ok = clipFromMessage(&tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "a", FileName: "rip.mp3", MimeType: "audio/mpeg", FileSize: 20}})
	require.True(t, ok)
	require.Equal(t, "a", clip.fileID)

	clip, ok = clipFromMessage(voiceMessage())
	require.True(t, ok)
	require.Equal(t, "voice.ogg", clip.filename)
}

func TestHandleMessageRecognizesVoice(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.Matched("audiotag", music.TrackMatch{Title: "Strobe", Artist: "Deadmau5", Confidence: 0.92, Source: "audiotag"})}
	service := NewService(testManager(1024), recognizer, fakeInspector{}, nil)
	bot := &fakeBot{fileURL: fileServer(t, []byte("OggS")).URL}

	handled := NewTelegramHandler(service, 0).HandleMessage(bot, voiceMessage())
	require.True(t, handled)
	require.Equal(t, 1, recognizer.calls)
	require.Equal(t, []byte("OggS"), recognizer.last.Bytes)
	require.Equal(t, "audio/ogg", recognizer.last.MimeType)

	require.Len(t, bot.sent, 1)
	require.Equal(t, int64(7), bot.sent[0].ChatID)
	require.Equal(t, 42, bot.sent[0].ReplyToMessageID)
	require.Equal(t, "🎵 Deadmau5 - Strobe\nConfidence: 0.92 (audiotag)", bot.sent[0].Text)
}

func TestHandleMessageIgnoresText(t *testing.T) {
	recognizer := &fakeRecognizer{}
	service := NewService(testManager(1024), recognizer, fakeInspector{}, nil)
	bot := &fakeBot{}

	handled := NewTelegramHandler(service, 0).HandleMessage(bot, &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: 1}})
	require.False(t, handled)
	require.Empty(t, bot.sent)
	require.Zero(t, recognizer.calls)
}

func TestHandleMessageRejectsOversizedClip(t *testing.T) {
	recognizer := &fakeRecognizer{}
	service := NewService(testManager(8), recognizer, fakeInspector{}, nil)

	// Declared size over the limit is refused before downloading.
	msg := voiceMessage()
	msg.Voice.FileSize = 9
	bot := &fakeBot{urlErr: errors.New("must not be called")}
	require.True(t, NewTelegramHandler(service, 0).HandleMessage(bot, msg))
	require.Len(t, bot.sent, 1)
	require.Contains(t, bot.sent[0].Text, "too large")

	// Undeclared size is enforced while downloading.
	msg = voiceMessage()
	msg.Voice.FileSize = 0
	bot = &fakeBot{fileURL: fileServer(t, make([]byte, 32)).URL}
	require.True(t, NewTelegramHandler(service, 0).HandleMessage(bot, msg))
	require.Len(t, bot.sent, 1)
	require.Contains(t, bot.sent[0].Text, "too large")
	require.Zero(t, recognizer.calls)
}

func TestHandleMessageReportsDownloadFailure(t *testing.T) {
	recognizer := &fakeRecognizer{}
	service := NewService(testManager(1024), recognizer, fakeInspector{}, nil)
	bot := &fakeBot{urlErr: errors.New("file is too big for the bot API")}

	require.True(t, NewTelegramHandler(service, 0).HandleMessage(bot, voiceMessage()))
	require.Len(t, bot.sent, 1)
	require.Equal(t, "❌ Failed to download audio, please try again", bot.sent[0].Text)
	require.Zero(t, recognizer.calls)
}

func TestFormatOutcome(t *testing.T) {
	require.Equal(t, "🤷 No track recognized", formatOutcome(music.NoMatch("audiotag", "No track recognized")))
	require.Equal(t, "⚠️ audiotag error: 503", formatOutcome(music.UpstreamFailure("audiotag", 503, "rate limited")))
	require.Equal(t, "❌ Failed to recognize audio", formatOutcome(music.Outcome{}))
}
