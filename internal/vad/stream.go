package vad

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/config"
)

// Window is the outcome of feeding one capture chunk to a Stream.
type Window struct {
	IsSpeech    bool
	Probability float64
	// Frames is the number of model frames evaluated for this decision.
	// Zero means no new decision was made (not enough audio buffered yet);
	// IsSpeech then carries the previous speech state forward.
	Frames int
}

// Stream consumes arbitrarily sized chunks from a live capture stream and
// incrementally builds a buffer of speech-only audio, applying a
// minimum-silence hangover so utterances survive short pauses.
//
// A Stream is owned by exactly one goroutine for the lifetime of a recording
// session; it is not safe for concurrent use.
type Stream struct {
	model Model
	log   zerolog.Logger

	captureRate  int
	vadRate      int
	frameSize    int
	threshold    float64
	minSilenceMs float64

	// Chunk accumulation. targetSamples is the capture-rate sample count
	// that survives resampling as at least one full model frame.
	pending       [][]float32
	pendingCount  int
	targetSamples int

	// Segmenter state.
	inSpeech    bool
	silenceMs   float64
	retained    [][]float32
	retainedLen int

	stats Stats
}

// NewStream creates a segmenter for one recording session. captureRate is the
// rate of the chunks that will be fed to ProcessChunk.
func NewStream(model Model, cfg config.VADConfig, captureRate int, log zerolog.Logger) (*Stream, error) {
	frameSize, err := FrameSizeFor(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	if captureRate <= 0 {
		return nil, fmt.Errorf("vad: invalid capture rate %d", captureRate)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("vad: threshold %f out of range [0, 1]", cfg.Threshold)
	}
	if cfg.MinSilenceMs < 0 {
		return nil, fmt.Errorf("vad: negative min silence duration %d", cfg.MinSilenceMs)
	}

	// Models carrying recurrent state must start each session clean.
	if r, ok := model.(interface{ Reset() error }); ok {
		if err := r.Reset(); err != nil {
			return nil, fmt.Errorf("vad: reset model: %w", err)
		}
	}

	return &Stream{
		model:        model,
		log:          log,
		captureRate:  captureRate,
		vadRate:      cfg.SampleRate,
		frameSize:    frameSize,
		threshold:    cfg.Threshold,
		minSilenceMs: float64(cfg.MinSilenceMs),
		// Ceiling, not truncation: the flushed buffer must survive
		// resampling as at least one full frame, and rounding down can
		// come up one sample short (352 of 353 at 11025 Hz).
		targetSamples: (frameSize*captureRate + cfg.SampleRate - 1) / cfg.SampleRate,
	}, nil
}

// ProcessChunk feeds one capture chunk through the detector. The chunk is
// copied, so callers may reuse their buffer. Chunks are accumulated until at
// least one full model frame is available after resampling; until then the
// returned Window carries the prior speech state with probability 0.
func (s *Stream) ProcessChunk(chunk []float32) Window {
	buf := make([]float32, len(chunk))
	copy(buf, chunk)
	s.pending = append(s.pending, buf)
	s.pendingCount += len(buf)

	if s.pendingCount < s.targetSamples {
		return Window{IsSpeech: s.inSpeech}
	}

	buffered := concat(s.pending, s.pendingCount)
	s.pending = s.pending[:0]
	s.pendingCount = 0

	resampled, err := Resample(buffered, s.captureRate, s.vadRate)
	if err != nil {
		s.log.Warn().Err(err).Msg("Resampling failed, dropping buffer")
		return Window{IsSpeech: s.inSpeech}
	}

	// The model only accepts exact frame lengths. A resampled remainder
	// shorter than one frame is discarded with its buffer rather than
	// carried forward; the loss is under one frame per flush.
	numFrames := len(resampled) / s.frameSize
	if numFrames == 0 {
		return Window{IsSpeech: s.inSpeech}
	}

	var sum float64
	for i := 0; i < numFrames; i++ {
		frame := resampled[i*s.frameSize : (i+1)*s.frameSize]
		prob, err := s.model.Infer(frame, s.vadRate)
		if err != nil {
			// Inference failures never abort the session; the frame
			// counts as silence.
			s.log.Warn().Err(err).Msg("VAD inference failed, treating frame as silence")
			prob = 0
		}
		sum += float64(prob)
	}

	avg := sum / float64(numFrames)
	isSpeech := avg >= s.threshold

	// Coarse accounting: the averaged decision drives the counters, so a
	// positive buffer credits all of its frames as speech.
	s.stats.TotalWindows += numFrames
	if isSpeech {
		s.stats.SpeechWindows += numFrames
	}

	s.observe(isSpeech, buffered)

	return Window{IsSpeech: isSpeech, Probability: avg, Frames: numFrames}
}

// observe advances the Idle/InSpeech state machine for one window decision.
// buffered is the original-rate audio the decision was made from.
func (s *Stream) observe(isSpeech bool, buffered []float32) {
	switch {
	case isSpeech:
		if !s.inSpeech {
			s.inSpeech = true
			s.log.Debug().Msg("Speech started")
		}
		s.retain(buffered)
		s.silenceMs = 0
	case s.inSpeech:
		// Keep the first silent windows so utterances are not clipped at
		// micro-pauses; close the segment only once the hangover expires.
		// The trailing silence stays in the retained audio.
		s.retain(buffered)
		s.silenceMs += float64(len(buffered)) / float64(s.captureRate) * 1000
		if s.silenceMs >= s.minSilenceMs {
			s.inSpeech = false
			s.silenceMs = 0
			s.log.Debug().Msg("Speech ended")
		}
	default:
		// Silence outside a segment is dropped.
	}
}

func (s *Stream) retain(buffered []float32) {
	s.retained = append(s.retained, buffered)
	s.retainedLen += len(buffered)
}

// SpeechAudio returns all retained speech audio at the capture rate, in
// arrival order, or nil if no speech was ever detected. Callers read this
// once after the capture stream has stopped.
func (s *Stream) SpeechAudio() []float32 {
	if len(s.retained) == 0 {
		return nil
	}
	return concat(s.retained, s.retainedLen)
}

// InSpeech reports whether the segmenter is currently inside a speech segment.
func (s *Stream) InSpeech() bool {
	return s.inSpeech
}

// Stats returns a snapshot of the session's window counters.
func (s *Stream) Stats() Stats {
	return s.stats
}

// Reset clears all accumulated audio and state so the Stream can serve a new
// session.
func (s *Stream) Reset() {
	s.pending = nil
	s.pendingCount = 0
	s.retained = nil
	s.retainedLen = 0
	s.inSpeech = false
	s.silenceMs = 0
	s.stats = Stats{}
	if r, ok := s.model.(interface{ Reset() error }); ok {
		_ = r.Reset()
	}
}

func concat(chunks [][]float32, total int) []float32 {
	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
