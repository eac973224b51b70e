// Package transcribe talks to a speaches.ai-compatible speech-to-text API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/config"
)

// Transcriber sends recorded audio to the speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	Health(ctx context.Context) bool
}

// Result holds a completed transcription.
type Result struct {
	Text string `json:"text"`
}

type client struct {
	baseURL  string
	model    string
	language string
	http     *http.Client
	log      zerolog.Logger
}

// New creates a transcription client for the configured server.
func New(cfg config.APIConfig, log zerolog.Logger) Transcriber {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		language: cfg.Language,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Transcribe uploads the audio file as multipart form data and returns the
// transcription. A connection failure gets a remediation hint since the
// server usually just isn't running.
func (c *client) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	endpoint := c.baseURL + "/v1/audio/transcriptions"

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(audioPath)))
	header.Set("Content-Type", contentTypeFor(audioPath))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	mw.WriteField("model", c.model)
	mw.WriteField("response_format", "json")
	if c.language != "" {
		mw.WriteField("language", c.language)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	c.log.Info().Str("endpoint", endpoint).Str("model", c.model).Msg("Sending audio for transcription")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach transcription server at %s (is it running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %w", err)
	}

	c.log.Info().Int("chars", len(result.Text)).Msg("Transcription completed")
	return &result, nil
}

// Health reports whether the server answers on /health, falling back to
// /docs for older deployments that don't expose a health endpoint.
func (c *client) Health(ctx context.Context) bool {
	for _, path := range []string{"/health", "/docs"} {
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			cancel()
			continue
		}
		resp, err := c.http.Do(req)
		cancel()
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
	}
	return false
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".opus", ".ogg":
		return "audio/opus"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
