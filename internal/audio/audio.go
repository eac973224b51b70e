package audio

import "context"

// Capture defines the interface for audio capture. Chunks sent on out are
// mono float32 at the requested sample rate; each chunk is freshly allocated
// and safe for the receiver to keep.
type Capture interface {
	Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error
	Stop() error
	ListDevices() ([]AudioDevice, error)
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID      string
	Name    string
	Default bool
}
