// Package app coordinates a recording session: hotkey-driven capture,
// speech gating, compression, remote transcription and text delivery.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/audio"
	"github.com/petems/speaches-tray/internal/compress"
	"github.com/petems/speaches-tray/internal/config"
	"github.com/petems/speaches-tray/internal/inject"
	"github.com/petems/speaches-tray/internal/transcribe"
	"github.com/petems/speaches-tray/internal/vad"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetSpeaking()
	SetProcessing()
	SetError()
}

type Config struct {
	Audio         audio.Capture
	Transcriber   transcribe.Transcriber
	Compressor    compress.Compressor // Optional - can be nil
	VADModel      vad.Model           // nil only when speech gating is disabled
	Injector      inject.Injector
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	audio  audio.Capture
	stt    transcribe.Transcriber
	comp   compress.Compressor
	model  vad.Model
	inj    inject.Injector
	cfg    *config.Config
	log    zerolog.Logger
	status StatusUpdater

	mu          sync.Mutex
	recording   bool
	captureStop context.CancelFunc
	workerDone  chan struct{}
	stream      *vad.Stream
	raw         []float32
}

func New(cfg Config) *App {
	return &App{
		audio:  cfg.Audio,
		stt:    cfg.Transcriber,
		comp:   cfg.Compressor,
		model:  cfg.VADModel,
		inj:    cfg.Injector,
		cfg:    cfg.Config,
		log:    cfg.Logger,
		status: cfg.StatusUpdater,
	}
}

func (a *App) OnHotkey(pressed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.cfg.Mode {
	case config.ModeToggle:
		if !pressed {
			return
		}
		if !a.recording {
			a.startRecordingLocked()
		} else {
			a.stopAndTranscribeLocked()
		}
	default: // push-to-talk
		if pressed {
			a.startRecordingLocked()
		} else {
			a.stopAndTranscribeLocked()
		}
	}
}

func (a *App) startRecordingLocked() {
	if a.recording {
		return
	}

	a.log.Info().Msg("Starting recording")
	a.recording = true
	a.raw = nil
	a.stream = nil

	if a.status != nil {
		a.status.SetRecording()
	}

	// A session that cannot start speech detection does not start at all;
	// silently recording unfiltered would upload everything, silence included.
	if a.cfg.VAD.Enabled && a.model != nil {
		stream, err := vad.NewStream(a.model, a.cfg.VAD, a.cfg.Audio.SampleRate, a.log)
		if err != nil {
			a.log.Error().Err(err).Msg("Failed to start speech detection; check the vad settings in config.json")
			a.recording = false
			if a.status != nil {
				a.status.SetError()
			}
			return
		}
		a.stream = stream
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.captureStop = cancel
	a.workerDone = make(chan struct{})

	// Bounded audio buffer
	audioChan := make(chan []float32, 8)

	go func() {
		if err := a.audio.Start(ctx, a.cfg.Audio.DeviceID, a.cfg.Audio.SampleRate, audioChan); err != nil {
			a.log.Error().Err(err).Msg("Audio error")
		}
	}()

	go a.consumeAudio(ctx, audioChan, a.stream, a.workerDone)
}

// consumeAudio is the single goroutine that owns the session's VAD stream.
// The capture side only enqueues chunks into the bounded channel. When no
// stream is active the raw audio is kept instead; the result is published to
// a.raw before done closes, so the stopping goroutine reads it race-free.
func (a *App) consumeAudio(ctx context.Context, in <-chan []float32, stream *vad.Stream, done chan<- struct{}) {
	var rawChunks [][]float32
	var rawLen int
	defer func() {
		a.raw = flatten(rawChunks, rawLen)
		close(done)
	}()

	speaking := false
	handle := func(chunk []float32) {
		if stream == nil {
			rawChunks = append(rawChunks, chunk)
			rawLen += len(chunk)
			return
		}
		w := stream.ProcessChunk(chunk)
		if w.Frames == 0 {
			return
		}
		if w.IsSpeech != speaking {
			speaking = w.IsSpeech
			if a.status != nil {
				if speaking {
					a.status.SetSpeaking()
				} else {
					a.status.SetRecording()
				}
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Capture has stopped; drain whatever is still buffered so
			// the tail of the recording is not lost.
			for {
				select {
				case chunk, ok := <-in:
					if !ok {
						return
					}
					handle(chunk)
				default:
					return
				}
			}
		case chunk, ok := <-in:
			if !ok {
				return
			}
			handle(chunk)
		}
	}
}

func (a *App) stopAndTranscribeLocked() {
	if !a.recording {
		return
	}

	a.log.Info().Msg("Stopping recording")
	a.recording = false

	if a.status != nil {
		a.status.SetProcessing()
	}

	if a.captureStop != nil {
		a.captureStop()
	}
	if err := a.audio.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop capture")
	}
	<-a.workerDone

	var samples []float32
	if a.stream != nil {
		stats := a.stream.Stats()
		a.log.Info().
			Int("total_windows", stats.TotalWindows).
			Int("speech_windows", stats.SpeechWindows).
			Float64("speech_ratio", stats.SpeechRatio()).
			Msg("Session statistics")
		samples = a.stream.SpeechAudio()
	} else {
		samples = a.raw
	}
	a.stream = nil
	a.raw = nil

	if len(samples) == 0 {
		a.log.Info().Msg("No speech detected, nothing to transcribe")
		if a.status != nil {
			a.status.SetIdle()
		}
		return
	}

	text, err := a.transcribeSamples(context.Background(), samples)
	if err != nil {
		a.log.Error().Err(err).Msg("Transcription failed")
		if a.status != nil {
			a.status.SetError()
		}
		return
	}
	if text == "" {
		a.log.Info().Msg("Transcript came back empty")
		if a.status != nil {
			a.status.SetIdle()
		}
		return
	}

	text = a.applyFilters(text)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.inj.Deliver(ctx, text); err != nil {
		a.log.Error().Err(err).Msg("Failed to deliver transcript")
		if a.status != nil {
			a.status.SetError()
		}
		return
	}
	a.log.Info().Str("text", text).Msg("Delivered transcript")
	if a.status != nil {
		a.status.SetIdle()
	}
}

// transcribeSamples writes samples to a temporary WAV, compresses it when a
// compressor is available, and sends the result to the transcription API.
// Temporary files are removed unless KeepFiles is set.
func (a *App) transcribeSamples(ctx context.Context, samples []float32) (string, error) {
	id := uuid.NewString()
	wavPath := filepath.Join(os.TempDir(), "speaches-tray-"+id+".wav")
	if err := audio.WriteWAV(wavPath, samples, a.cfg.Audio.SampleRate, 1); err != nil {
		return "", fmt.Errorf("failed to write recording: %w", err)
	}

	uploadPath := wavPath
	if a.comp != nil && a.comp.Available() {
		opusPath := filepath.Join(os.TempDir(), "speaches-tray-"+id+".opus")
		if err := a.comp.Compress(ctx, wavPath, opusPath); err != nil {
			a.log.Warn().Err(err).Msg("Compression failed, uploading WAV")
		} else {
			uploadPath = opusPath
		}
	}
	if !a.cfg.KeepFiles {
		defer func() {
			os.Remove(wavPath)
			if uploadPath != wavPath {
				os.Remove(uploadPath)
			}
		}()
	} else {
		a.log.Info().Str("path", uploadPath).Msg("Keeping recording")
	}

	tctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.API.TimeoutSeconds)*time.Second)
	defer cancel()

	res, err := a.stt.Transcribe(tctx, uploadPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

// RecordOnce captures for a fixed duration, checks the whole clip for speech
// and returns the transcript. Used for one-shot command-line invocations; an
// empty string with nil error means no speech was detected.
func (a *App) RecordOnce(ctx context.Context, duration time.Duration) (string, error) {
	a.mu.Lock()
	if a.recording {
		a.mu.Unlock()
		return "", fmt.Errorf("already recording")
	}
	a.recording = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.recording = false
		a.mu.Unlock()
	}()

	captureCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	audioChan := make(chan []float32, 8)
	go func() {
		if err := a.audio.Start(captureCtx, a.cfg.Audio.DeviceID, a.cfg.Audio.SampleRate, audioChan); err != nil {
			a.log.Error().Err(err).Msg("Audio error")
		}
	}()

	var chunks [][]float32
	var total int
collect:
	for {
		select {
		case <-captureCtx.Done():
			break collect
		case chunk, ok := <-audioChan:
			if !ok {
				break collect
			}
			chunks = append(chunks, chunk)
			total += len(chunk)
		}
	}
	if err := a.audio.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop capture")
	}

	samples := flatten(chunks, total)
	if len(samples) == 0 {
		return "", fmt.Errorf("no audio captured")
	}

	if a.cfg.VAD.Enabled && a.model != nil {
		clf, err := vad.NewClassifier(a.model, a.cfg.VAD)
		if err != nil {
			return "", err
		}
		res, err := clf.Classify(samples, a.cfg.Audio.SampleRate)
		if err != nil {
			a.log.Warn().Err(err).Msg("Speech check failed, transcribing anyway")
		} else if !res.IsSpeech {
			a.log.Info().Float64("probability", res.Probability).Msg("No speech detected")
			return "", nil
		}
	}

	return a.transcribeSamples(ctx, samples)
}

func (a *App) applyFilters(text string) string {
	if len(text) == 0 {
		return text
	}

	// Auto-capitalize first letter
	if text[0] >= 'a' && text[0] <= 'z' {
		text = string(text[0]-32) + text[1:]
	}

	if a.cfg.AppendSpace {
		text += " "
	}

	return text
}

func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		a.stopAndTranscribeLocked()
	}

	return nil
}

// Tray actions

func (a *App) SetMode(mode string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Mode = mode
	a.cfg.Save()
}

func (a *App) SetDevice(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		return fmt.Errorf("cannot change while recording")
	}

	a.cfg.Audio.DeviceID = id
	return a.cfg.Save()
}

func (a *App) SetModel(model string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		return fmt.Errorf("cannot change while recording")
	}

	a.cfg.API.Model = model
	return a.cfg.Save()
}

func (a *App) SetVADEnabled(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		return fmt.Errorf("cannot change while recording")
	}

	a.cfg.VAD.Enabled = enabled
	return a.cfg.Save()
}

func (a *App) IsRecording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

func (a *App) ListDevices() ([]audio.AudioDevice, error) {
	return a.audio.ListDevices()
}

func flatten(chunks [][]float32, total int) []float32 {
	if total == 0 {
		return nil
	}
	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
