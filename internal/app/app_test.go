package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/audio"
	"github.com/petems/speaches-tray/internal/config"
	"github.com/petems/speaches-tray/internal/transcribe"
)

// Mock implementations for testing

type mockCapture struct {
	chunks  [][]float32
	started chan struct{}
}

func (m *mockCapture) Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error {
	for _, c := range m.chunks {
		out <- c
	}
	if m.started != nil {
		close(m.started)
	}
	<-ctx.Done()
	return nil
}

func (m *mockCapture) Stop() error {
	return nil
}

func (m *mockCapture) ListDevices() ([]audio.AudioDevice, error) {
	return []audio.AudioDevice{{ID: "default", Name: "Default", Default: true}}, nil
}

func (m *mockCapture) Close() error {
	return nil
}

type mockTranscriber struct {
	text  string
	calls int
	path  string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	m.calls++
	m.path = audioPath
	return &transcribe.Result{Text: m.text}, nil
}

func (m *mockTranscriber) Health(ctx context.Context) bool {
	return true
}

type mockInjector struct {
	delivered []string
}

func (m *mockInjector) Deliver(ctx context.Context, text string) error {
	m.delivered = append(m.delivered, text)
	return nil
}

type mockModel struct {
	prob  float32
	calls int
}

func (m *mockModel) Infer(frame []float32, sampleRate int) (float32, error) {
	m.calls++
	return m.prob, nil
}

func (m *mockModel) Close() error {
	return nil
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		Mode: mode,
		Audio: config.AudioConfig{
			DeviceID:   "default",
			SampleRate: 16000,
			Channels:   1,
		},
		VAD: config.VADConfig{
			Enabled:      true,
			SampleRate:   16000,
			Threshold:    0.5,
			MinSilenceMs: 100,
		},
		API: config.APIConfig{
			BaseURL:        "http://localhost:8000",
			Model:          "test-model",
			Language:       "en",
			TimeoutSeconds: 30,
		},
	}
}

// samplesOf returns n chunks of chunkLen samples each.
func samplesOf(n, chunkLen int) [][]float32 {
	chunks := make([][]float32, n)
	for i := range chunks {
		chunks[i] = make([]float32, chunkLen)
	}
	return chunks
}

func TestToggleModeKeyPress(t *testing.T) {
	cfg := testConfig(config.ModeToggle)
	cfg.VAD.Enabled = false

	app := New(Config{
		Audio:       &mockCapture{},
		Transcriber: &mockTranscriber{},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	// Initially not recording
	if app.IsRecording() {
		t.Error("App should not be recording initially")
	}

	// First key press - should start recording
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after first key press")
	}

	// Key release - should NOT stop recording in Toggle mode
	app.OnHotkey(false)
	if !app.IsRecording() {
		t.Error("App should still be recording after key release in Toggle mode")
	}

	// Second key press - should stop recording
	app.OnHotkey(true)

	// Wait for recording to stop
	var stopped bool
	for i := 0; i < 100; i++ { // Poll for 1 second
		if !app.IsRecording() {
			stopped = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !stopped {
		t.Error("App should have stopped recording after second key press")
	}
}

func TestPushToTalkModeKeyPress(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)
	cfg.VAD.Enabled = false

	app := New(Config{
		Audio:       &mockCapture{},
		Transcriber: &mockTranscriber{},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	// Initially not recording
	if app.IsRecording() {
		t.Error("App should not be recording initially")
	}

	// Key press - should start recording
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after key press")
	}

	// Key release - should stop recording in PushToTalk mode
	app.OnHotkey(false)

	// Wait for recording to stop
	var stopped bool
	for i := 0; i < 100; i++ { // Poll for 1 second
		if !app.IsRecording() {
			stopped = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !stopped {
		t.Error("App should have stopped recording after key release")
	}
}

func TestToggleModeIgnoresKeyRelease(t *testing.T) {
	cfg := testConfig(config.ModeToggle)
	cfg.VAD.Enabled = false

	app := New(Config{
		Audio:       &mockCapture{},
		Transcriber: &mockTranscriber{},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	// Key release when not recording - should do nothing
	app.OnHotkey(false)
	if app.IsRecording() {
		t.Error("App should not start recording on key release")
	}

	// Start recording with key press
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after key press")
	}

	// Multiple key releases - should not stop recording
	app.OnHotkey(false)
	app.OnHotkey(false)
	app.OnHotkey(false)
	if !app.IsRecording() {
		t.Error("App should still be recording after multiple key releases in Toggle mode")
	}
}

func TestSessionDeliversTranscript(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)
	cfg.AppendSpace = true

	capture := &mockCapture{
		// Four 512-sample chunks at 16kHz: each is exactly one model frame.
		chunks:  samplesOf(4, 512),
		started: make(chan struct{}),
	}
	stt := &mockTranscriber{text: "hello world"}
	inj := &mockInjector{}

	app := New(Config{
		Audio:       capture,
		Transcriber: stt,
		VADModel:    &mockModel{prob: 0.9},
		Injector:    inj,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	<-capture.started
	app.OnHotkey(false)

	if stt.calls != 1 {
		t.Fatalf("expected one transcription call, got %d", stt.calls)
	}
	if !strings.HasSuffix(stt.path, ".wav") {
		t.Errorf("expected WAV upload, got %q", stt.path)
	}
	if len(inj.delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(inj.delivered))
	}
	if inj.delivered[0] != "Hello world " {
		t.Errorf("expected capitalized text with trailing space, got %q", inj.delivered[0])
	}
}

func TestNoSpeechSkipsUpload(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)

	capture := &mockCapture{
		chunks:  samplesOf(4, 512),
		started: make(chan struct{}),
	}
	stt := &mockTranscriber{text: "should not appear"}
	inj := &mockInjector{}

	app := New(Config{
		Audio:       capture,
		Transcriber: stt,
		VADModel:    &mockModel{prob: 0.1},
		Injector:    inj,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	<-capture.started
	app.OnHotkey(false)

	if stt.calls != 0 {
		t.Errorf("silent session should not be uploaded, got %d calls", stt.calls)
	}
	if len(inj.delivered) != 0 {
		t.Errorf("silent session should not deliver text, got %v", inj.delivered)
	}
}

func TestRecordingWithoutVADKeepsEverything(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)
	cfg.VAD.Enabled = false

	capture := &mockCapture{
		chunks:  samplesOf(4, 512),
		started: make(chan struct{}),
	}
	stt := &mockTranscriber{text: "unfiltered"}
	inj := &mockInjector{}

	app := New(Config{
		Audio:       capture,
		Transcriber: stt,
		Injector:    inj,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	<-capture.started
	app.OnHotkey(false)

	if stt.calls != 1 {
		t.Fatalf("expected one transcription call, got %d", stt.calls)
	}
	if len(inj.delivered) != 1 || inj.delivered[0] != "Unfiltered" {
		t.Errorf("unexpected delivery: %v", inj.delivered)
	}
}

func TestRecordOnce(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)

	capture := &mockCapture{chunks: samplesOf(2, 512)}
	stt := &mockTranscriber{text: "once"}

	app := New(Config{
		Audio:       capture,
		Transcriber: stt,
		VADModel:    &mockModel{prob: 0.9},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	text, err := app.RecordOnce(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("RecordOnce: %v", err)
	}
	if text != "once" {
		t.Errorf("expected transcript 'once', got %q", text)
	}
}

func TestRecordOnceNoSpeech(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)

	capture := &mockCapture{chunks: samplesOf(2, 512)}
	stt := &mockTranscriber{text: "should not appear"}

	app := New(Config{
		Audio:       capture,
		Transcriber: stt,
		VADModel:    &mockModel{prob: 0.1},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	text, err := app.RecordOnce(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("RecordOnce: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty transcript for silence, got %q", text)
	}
	if stt.calls != 0 {
		t.Errorf("silent clip should not be uploaded, got %d calls", stt.calls)
	}
}

func TestSessionAbortsWhenVADMisconfigured(t *testing.T) {
	cfg := testConfig(config.ModePushToTalk)
	cfg.VAD.Threshold = 1.5 // rejected by the stream constructor

	stt := &mockTranscriber{text: "should not appear"}
	inj := &mockInjector{}

	app := New(Config{
		Audio:       &mockCapture{},
		Transcriber: stt,
		VADModel:    &mockModel{prob: 0.9},
		Injector:    inj,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	if app.IsRecording() {
		t.Error("session must not start when speech detection cannot")
	}

	app.OnHotkey(false)
	if stt.calls != 0 || len(inj.delivered) != 0 {
		t.Errorf("aborted session must not transcribe or deliver (calls=%d, delivered=%v)", stt.calls, inj.delivered)
	}
}

func TestSettersRejectedWhileRecording(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := testConfig(config.ModePushToTalk)
	cfg.VAD.Enabled = false

	app := New(Config{
		Audio:       &mockCapture{},
		Transcriber: &mockTranscriber{},
		Injector:    &mockInjector{},
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	if err := app.SetDevice("other"); err == nil {
		t.Error("SetDevice should fail while recording")
	}
	if err := app.SetModel("other-model"); err == nil {
		t.Error("SetModel should fail while recording")
	}
	if err := app.SetVADEnabled(true); err == nil {
		t.Error("SetVADEnabled should fail while recording")
	}
	app.OnHotkey(false)

	if err := app.SetModel("other-model"); err != nil {
		t.Fatalf("SetModel after stop: %v", err)
	}
	if cfg.API.Model != "other-model" {
		t.Errorf("expected model to change, got %q", cfg.API.Model)
	}
}
