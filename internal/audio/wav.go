package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV saves float32 samples in [-1, 1] to path as 16-bit PCM. Samples
// outside the range are clipped rather than wrapped.
func WriteWAV(path string, samples []float32, sampleRate, channels int) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to write")
	}
	if channels <= 0 {
		channels = 1
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return f.Close()
}
