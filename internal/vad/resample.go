package vad

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooFewSamples is returned when resampling is asked to interpolate over
// fewer than two points. Chunk sizing is a caller precondition.
var ErrTooFewSamples = errors.New("vad: resampling requires at least 2 samples")

// Resample converts audio between sample rates using linear interpolation.
// When the rates match the input slice is returned unchanged.
func Resample(audio []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("vad: invalid sample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return audio, nil
	}
	if len(audio) < 2 {
		return nil, ErrTooFewSamples
	}

	newLen := int(math.Round(float64(len(audio)) / float64(fromRate) * float64(toRate)))
	if newLen <= 0 {
		return nil, nil
	}

	out := make([]float32, newLen)
	if newLen == 1 {
		out[0] = audio[0]
		return out, nil
	}

	// Uniformly spaced fractional positions over the original indices
	// [0, len-1], interpolated between neighbouring samples.
	step := float64(len(audio)-1) / float64(newLen-1)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(audio)-1 {
			out[i] = audio[len(audio)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = audio[j] + (audio[j+1]-audio[j])*frac
	}

	return out, nil
}
