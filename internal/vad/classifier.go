package vad

import (
	"fmt"

	"github.com/petems/speaches-tray/internal/config"
)

// Result is a one-shot speech classification of a complete clip.
type Result struct {
	IsSpeech    bool
	Probability float64
}

// Classifier applies the model to a bounded-duration recording in a single
// call, without the streaming state machine.
type Classifier struct {
	model      Model
	sampleRate int
	frameSize  int
	threshold  float64
}

// NewClassifier creates a one-shot classifier from the same configuration the
// streaming path uses.
func NewClassifier(model Model, cfg config.VADConfig) (*Classifier, error) {
	frameSize, err := FrameSizeFor(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("vad: threshold %f out of range [0, 1]", cfg.Threshold)
	}
	return &Classifier{
		model:      model,
		sampleRate: cfg.SampleRate,
		frameSize:  frameSize,
		threshold:  cfg.Threshold,
	}, nil
}

// Classify resamples the whole clip once and averages per-frame speech
// probabilities. It applies the same exact-frame splitting discipline as the
// streaming path, so the model never sees a partial frame; a clip that is
// shorter than one frame after resampling is an error. Unlike the streaming
// path, inference failures are returned to the caller.
func (c *Classifier) Classify(chunk []float32, originalRate int) (Result, error) {
	resampled, err := Resample(chunk, originalRate, c.sampleRate)
	if err != nil {
		return Result{}, err
	}

	numFrames := len(resampled) / c.frameSize
	if numFrames == 0 {
		return Result{}, fmt.Errorf("vad: clip too short: %d resampled samples, need %d for one frame", len(resampled), c.frameSize)
	}

	var sum float64
	for i := 0; i < numFrames; i++ {
		frame := resampled[i*c.frameSize : (i+1)*c.frameSize]
		prob, err := c.model.Infer(frame, c.sampleRate)
		if err != nil {
			return Result{}, fmt.Errorf("vad: inference: %w", err)
		}
		sum += float64(prob)
	}

	avg := sum / float64(numFrames)
	return Result{IsSpeech: avg >= c.threshold, Probability: avg}, nil
}
