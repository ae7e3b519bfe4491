package recognizing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/contre95/djsetlist/src/music"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newTestApp(recognizer *fakeRecognizer, maxUpload int64) *fiber.App {
	app := fiber.New()
	service := NewService(testManager(maxUpload), recognizer, fakeInspector{}, nil)
	RegisterRoutes(app, NewHandler(service))
	return app
}

func audioUpload(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recognize", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body
}

func TestRecognizeWithoutAudio(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "wrong field name",
			req: func(t *testing.T) *http.Request {
				return audioUpload(t, "file", "clip.wav", "audio/wav", []byte("RIFF"))
			},
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return audioUpload(t, "audio", "clip.wav", "audio/wav", nil)
			},
		},
		{
			name: "json body",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/recognize", strings.NewReader(`{"audio":"base64"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
		},
		{
			name: "no body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/recognize", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recognizer := &fakeRecognizer{}
			resp, err := newTestApp(recognizer, 1024).Test(tt.req(t), -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := decodeEnvelope(t, resp)
			require.Equal(t, false, body["success"])
			require.Equal(t, "No audio file provided", body["error"])
			require.Zero(t, recognizer.calls, "no upstream call without audio")
		})
	}
}

func TestRecognizeMatched(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.Matched("audiotag", music.TrackMatch{Title: "Strobe", Artist: "Deadmau5", Confidence: 0.92, Source: "audiotag"})}
	resp, err := newTestApp(recognizer, 1024).Test(audioUpload(t, "audio", "set.mp3", "audio/mpeg", []byte("ID3 audio")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, true, body["success"])
	require.Equal(t, map[string]any{"title": "Strobe", "artist": "Deadmau5", "confidence": 0.92, "source": "audiotag"}, body["track"])

	require.Equal(t, 1, recognizer.calls)
	require.Equal(t, "audio/mpeg", recognizer.last.MimeType)
	require.Equal(t, "set.mp3", recognizer.last.Filename)
	require.Equal(t, []byte("ID3 audio"), recognizer.last.Bytes)
}

func TestRecognizeNoMatchIsNotAnError(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.NoMatch("audiotag", "No track recognized")}
	resp, err := newTestApp(recognizer, 1024).Test(audioUpload(t, "audio", "clip.wav", "", []byte("RIFF")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, false, body["success"])
	require.Equal(t, "No track recognized", body["message"])
	require.NotContains(t, body, "error")
}

func TestRecognizeUpstreamErrorIsNotAnError(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.UpstreamFailure("audiotag", 503, "rate limited")}
	resp, err := newTestApp(recognizer, 1024).Test(audioUpload(t, "audio", "clip.wav", "audio/wav", []byte("RIFF")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, false, body["success"])
	require.Equal(t, "audiotag error: 503", body["message"])
	require.Equal(t, "rate limited", body["debug"])
}

func TestRecognizeFault(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("failed to query audiotag API: connection refused")}
	resp, err := newTestApp(recognizer, 1024).Test(audioUpload(t, "audio", "clip.wav", "audio/wav", []byte("RIFF")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, false, body["success"])
	require.Equal(t, "failed to query audiotag API: connection refused", body["error"])
	require.Equal(t, "Failed to recognize audio", body["message"])
}

func TestRecognizeUnknownOutcomeIsFault(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.Outcome{}}
	resp, err := newTestApp(recognizer, 1024).Test(audioUpload(t, "audio", "clip.wav", "audio/wav", []byte("RIFF")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Failed to recognize audio", body["message"])
	require.Contains(t, body["error"], "unknown outcome")
}

func TestRecognizeRejectsOversizedUpload(t *testing.T) {
	recognizer := &fakeRecognizer{outcome: music.NoMatch("audiotag", "No track recognized")}
	resp, err := newTestApp(recognizer, 16).Test(audioUpload(t, "audio", "clip.wav", "audio/wav", bytes.Repeat([]byte{1}, 64)), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, false, body["success"])
	require.Zero(t, recognizer.calls)
}
