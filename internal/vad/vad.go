// Package vad segments a live capture stream into speech-only audio using a
// Silero-style voice activity model.
package vad

import "fmt"

// Supported model sample rates and the exact frame lengths the model requires
// at each rate.
const (
	SampleRate16k = 16000
	SampleRate8k  = 8000

	FrameSize16k = 512
	FrameSize8k  = 256
)

// Model is the probability-of-speech inference call. Implementations must
// accept frames of exactly FrameSizeFor(rate) samples at 8000 or 16000 Hz;
// any other shape is a caller error.
type Model interface {
	// Infer returns the speech probability in [0, 1] for one frame.
	Infer(frame []float32, sampleRate int) (float32, error)
	Close() error
}

// FrameSizeFor returns the frame length the model requires at the given rate.
func FrameSizeFor(sampleRate int) (int, error) {
	switch sampleRate {
	case SampleRate16k:
		return FrameSize16k, nil
	case SampleRate8k:
		return FrameSize8k, nil
	default:
		return 0, fmt.Errorf("vad: unsupported sample rate %d (want 8000 or 16000)", sampleRate)
	}
}
