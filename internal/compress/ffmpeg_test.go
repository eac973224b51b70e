package compress

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestBuildArgs(t *testing.T) {
	args := buildArgs("in.wav", "out.opus")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i in.wav",
		"silenceremove=start_periods=1",
		"sample_rates=16000",
		"-c:a libopus",
		"-b:a 32k",
		"-compression_level 10",
		"-y out.opus",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got: %s", want, joined)
		}
	}

	if args[len(args)-1] != "out.opus" {
		t.Errorf("expected output path last, got %q", args[len(args)-1])
	}
}

func TestCompressUnavailable(t *testing.T) {
	c := &ffmpegCompressor{ffmpegPath: "", log: zerolog.Nop()}

	if c.Available() {
		t.Error("expected Available() false with no binary")
	}
	if err := c.Compress(context.Background(), "in.wav", "out.opus"); err == nil {
		t.Error("expected error when ffmpeg is missing")
	}
}
