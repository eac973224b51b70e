// Package compress shrinks recordings with ffmpeg before upload.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
)

// Compressor compresses recorded audio for upload.
type Compressor interface {
	Compress(ctx context.Context, inputPath, outputPath string) error
	Available() bool
}

// speechFilter trims leading silence and normalizes the stream to 16 kHz
// mono s16 ahead of the encoder (filter settings from the Epicenter project).
const speechFilter = "silenceremove=start_periods=1:start_duration=0.1:" +
	"start_threshold=-50dB:detection=peak," +
	"aformat=sample_fmts=s16:sample_rates=16000:channel_layouts=mono"

// codecArgs encode speech-bandwidth opus at 32 kbps.
var codecArgs = []string{
	"-c:a", "libopus",
	"-b:a", "32k",
	"-ar", "16000",
	"-ac", "1",
	"-compression_level", "10",
}

type ffmpegCompressor struct {
	ffmpegPath string
	log        zerolog.Logger
}

// New creates a compressor backed by the ffmpeg binary, looked up in PATH
// with a fallback to a portable copy in the working directory.
func New(log zerolog.Logger) Compressor {
	path := findFFmpeg(log)
	return &ffmpegCompressor{ffmpegPath: path, log: log}
}

func findFFmpeg(log zerolog.Logger) string {
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		log.Info().Str("path", path).Msg("Found ffmpeg in PATH")
		return path
	}

	local := filepath.Join("ffmpeg", "bin", ffmpegBinaryName())
	if _, err := os.Stat(local); err == nil {
		log.Info().Str("path", local).Msg("Found portable ffmpeg")
		return local
	}

	log.Warn().Msg("ffmpeg not found in PATH or local directory")
	return ""
}

func ffmpegBinaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// Available reports whether an ffmpeg binary was located.
func (c *ffmpegCompressor) Available() bool {
	return c.ffmpegPath != ""
}

// Compress converts inputPath to opus at outputPath.
func (c *ffmpegCompressor) Compress(ctx context.Context, inputPath, outputPath string) error {
	if !c.Available() {
		return fmt.Errorf("ffmpeg is not available; install it or place a portable copy under ffmpeg/bin " +
			"(download from https://ffmpeg.org/download.html)")
	}

	args := buildArgs(inputPath, outputPath)
	c.log.Debug().Strs("args", args).Msg("Running ffmpeg")

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg compression failed: %s", stderr.String())
	}

	// Log the size win; helpful when tuning the bitrate.
	if inInfo, err := os.Stat(inputPath); err == nil {
		if outInfo, err := os.Stat(outputPath); err == nil && inInfo.Size() > 0 {
			ratio := (1 - float64(outInfo.Size())/float64(inInfo.Size())) * 100
			c.log.Info().
				Int64("input_bytes", inInfo.Size()).
				Int64("output_bytes", outInfo.Size()).
				Float64("reduction_percent", ratio).
				Msg("Audio compression completed")
		}
	}

	return nil
}

// buildArgs assembles the ffmpeg invocation; split out for testing.
func buildArgs(inputPath, outputPath string) []string {
	args := []string{"-i", inputPath, "-af", speechFilter}
	args = append(args, codecArgs...)
	args = append(args, "-y", outputPath)
	return args
}
