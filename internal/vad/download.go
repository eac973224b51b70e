package vad

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Canonical Silero VAD v5 ONNX model (~2 MB).
const sileroModelURL = "https://raw.githubusercontent.com/snakers4/silero-vad/master/src/silero_vad/data/silero_vad.onnx"

// progressWriter wraps an io.Writer to track download progress
type progressWriter struct {
	total      int64
	downloaded int64
	lastLog    time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	// Log progress every 2 seconds or when complete
	now := time.Now()
	if now.Sub(pw.lastLog) >= 2*time.Second || pw.downloaded >= pw.total {
		pw.lastLog = now
		percent := float64(pw.downloaded) / float64(pw.total) * 100
		kbDownloaded := float64(pw.downloaded) / 1024
		kbTotal := float64(pw.total) / 1024

		log.Info().
			Float64("percent", percent).
			Float64("downloaded_kb", kbDownloaded).
			Float64("total_kb", kbTotal).
			Msg("Downloading VAD model")
	}

	return n, nil
}

// downloadModel fetches the Silero VAD model to destPath if it doesn't exist
func downloadModel(destPath string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	// Download to temp file first
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	log.Info().Str("url", sileroModelURL).Msg("Starting VAD model download")

	resp, err := http.Get(sileroModelURL)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	// Get content length for progress tracking
	totalSize := resp.ContentLength
	if totalSize <= 0 {
		log.Warn().Msg("Content-Length not provided, progress tracking unavailable")
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	// Use progress writer if we know the size
	var writer io.Writer = out
	if totalSize > 0 {
		pw := &progressWriter{
			total:   totalSize,
			lastLog: time.Now(),
		}
		writer = io.MultiWriter(out, pw)
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	// Move to final location
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move model file: %w", err)
	}

	log.Info().
		Str("path", destPath).
		Float64("size_kb", float64(totalSize)/1024).
		Msg("VAD model downloaded successfully")

	return nil
}

// TODO: Add SHA256 verification
