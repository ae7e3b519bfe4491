package audiotag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"

	"github.com/contre95/djsetlist/src/features/config"
	"github.com/contre95/djsetlist/src/music"
)

const (
	// upstreamFilename is sent for every clip regardless of the client's filename.
	upstreamFilename = "audio.wav"
	maxResponseBytes = 1 << 20
	// truncatedMarker ends an error body cut at maxResponseBytes.
	truncatedMarker = " [truncated]"
)

// Client implements recognizing.Recognizer against the AudioTag.info API.
type Client struct {
	config     *config.Manager
	httpClient *http.Client
}

// NewClient creates a new AudioTag client. Endpoint, token and timeout are
// read from cfg on every call so a config reload applies to the next request.
func NewClient(cfg *config.Manager) *Client {
	return &Client{
		config:     cfg,
		httpClient: &http.Client{},
	}
}

// Name returns the configured provider name used in outcomes and messages.
func (c *Client) Name() string {
	return c.config.Get().Recognition.Provider
}

// Recognize performs a single upstream attempt. Non-success statuses and
// timeouts are reported as UpstreamError outcomes; transport failures and
// unparseable bodies are returned as errors.
func (c *Client) Recognize(ctx context.Context, payload music.AudioPayload) (music.Outcome, error) {
	cfg := c.config.Get().Recognition
	provider := cfg.Provider

	mimeType := payload.MimeType
	if mimeType == "" {
		mimeType = cfg.DefaultMimeType
	}
	body, contentType, err := buildForm(payload.Bytes, mimeType, cfg.APIToken)
	if err != nil {
		return music.Outcome{}, fmt.Errorf("failed to build %s request body: %w", provider, err)
	}

	callCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.Endpoint, body)
	if err != nil {
		return music.Outcome{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "DJSetlist/1.0")

	slog.Debug("Sending request to recognition provider", "provider", provider, "endpoint", cfg.Endpoint, "size", payload.SizeBytes, "mime", mimeType)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			slog.Warn("Recognition provider timed out", "provider", provider, "timeout", cfg.Timeout)
			return timeoutOutcome(provider, cfg.Timeout), nil
		}
		return music.Outcome{}, fmt.Errorf("failed to query %s API: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return timeoutOutcome(provider, cfg.Timeout), nil
		}
		return music.Outcome{}, fmt.Errorf("failed to read %s response: %w", provider, err)
	}
	oversized := len(raw) > maxResponseBytes
	slog.Debug("Recognition provider responded", "provider", provider, "status", resp.StatusCode, "duration", time.Since(start).String(), "truncated", oversized)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(raw)
		if oversized {
			detail = string(raw[:maxResponseBytes]) + truncatedMarker
		}
		slog.Error("Recognition provider error", "provider", provider, "status", resp.StatusCode, "body", detail)
		return music.UpstreamFailure(provider, resp.StatusCode, detail), nil
	}
	if oversized {
		return music.Outcome{}, fmt.Errorf("%s response too large: exceeds %d bytes", provider, maxResponseBytes)
	}

	outcome, matched, err := normalize(raw, provider)
	if err != nil {
		return music.Outcome{}, err
	}
	slog.Debug("Recognition response normalized", "provider", provider, "shape", matched.String(), "outcome", outcome.Kind.String())
	return outcome, nil
}

// buildForm encodes the clip as the "file" part plus the "api_token" field.
func buildForm(audio []byte, mimeType, token string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, upstreamFilename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("api_token", token); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// isTimeout reports whether err comes from our own deadline rather than the caller's.
func isTimeout(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func timeoutOutcome(provider string, timeout time.Duration) music.Outcome {
	return music.UpstreamFailure(provider, http.StatusGatewayTimeout, fmt.Sprintf("upstream request timed out after %s", timeout))
}
