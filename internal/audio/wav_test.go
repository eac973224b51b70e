package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	samples := []float32{0, 0.5, -0.5, 1, -1, 2, -2} // last two clip
	if err := WriteWAV(path, samples, 44100, 1); err != nil {
		t.Fatalf("WriteWAV returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open written file: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode WAV: %v", err)
	}

	if buf.Format.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", buf.Format.SampleRate)
	}
	if buf.Format.NumChannels != 1 {
		t.Errorf("expected mono, got %d channels", buf.Format.NumChannels)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}

	if buf.Data[0] != 0 {
		t.Errorf("expected first sample 0, got %d", buf.Data[0])
	}
	if buf.Data[1] != 16383 { // 0.5 * 32767 truncated
		t.Errorf("expected second sample 16383, got %d", buf.Data[1])
	}
	// Out-of-range input clips to full scale instead of wrapping.
	if buf.Data[5] != 32767 {
		t.Errorf("expected clipped sample 32767, got %d", buf.Data[5])
	}
	if buf.Data[6] != -32767 {
		t.Errorf("expected clipped sample -32767, got %d", buf.Data[6])
	}
}

func TestWriteWAVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, nil, 44100, 1); err == nil {
		t.Error("expected error for empty sample slice")
	}
}
