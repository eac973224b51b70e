package vad

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// sileroStateSize is the hidden state dimension per layer. Silero VAD v5 uses
// a combined state tensor of shape [2, 1, 128].
const sileroStateSize = 128

// ortInitOnce ensures the ONNX Runtime environment is initialized exactly
// once. The error is kept at package scope so later NewSilero calls surface
// the failure instead of proceeding with an uninitialized environment.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Silero runs Silero VAD v5 inference through ONNX Runtime. It implements
// Model for a single configured sample rate. The recurrent state tensor is
// carried between calls, so frames must be fed in stream order; call Reset
// between sessions.
type Silero struct {
	session   *ort.AdvancedSession
	modelPath string

	sampleRate int
	frameSize  int

	// Input and output tensors, reused between calls.
	inputTensor  *ort.Tensor[float32] // [1, frameSize]
	stateTensor  *ort.Tensor[float32] // [2, 1, 128]
	srTensor     *ort.Tensor[int64]   // scalar
	outputTensor *ort.Tensor[float32] // [1, 1]
	stateNTensor *ort.Tensor[float32] // [2, 1, 128]
}

// NewSilero loads the Silero VAD model for the given sample rate, downloading
// the model file first if it does not exist yet. A failure here is fatal for
// the session: the caller must not start capture without a working model.
func NewSilero(modelPath string, sampleRate int) (*Silero, error) {
	frameSize, err := FrameSizeFor(sampleRate)
	if err != nil {
		return nil, err
	}

	// Download the model on first use, like any other managed asset.
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(modelPath); err != nil {
			return nil, fmt.Errorf("vad: download silero model: %w", err)
		}
	}

	ortInitOnce.Do(func() {
		if libPath := os.Getenv("SPEACHES_TRAY_ORT_LIB"); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		} else {
			ort.SetSharedLibraryPath(ortLibFilename())
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("vad: initialize onnxruntime: %w", ortInitErr)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(frameSize)))
	if err != nil {
		return nil, fmt.Errorf("vad: create input tensor: %w", err)
	}
	stateTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, sileroStateSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("vad: create state tensor: %w", err)
	}
	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(sampleRate)})
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		return nil, fmt.Errorf("vad: create sr tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		return nil, fmt.Errorf("vad: create output tensor: %w", err)
	}
	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, sileroStateSize))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("vad: create stateN tensor: %w", err)
	}

	// onnxruntime_go does not guarantee zeroed tensor memory.
	clearFloat32(stateTensor.GetData())
	clearFloat32(stateNTensor.GetData())

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{inputTensor, stateTensor, srTensor},
		[]ort.Value{outputTensor, stateNTensor},
		nil, // default session options
	)
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		stateNTensor.Destroy()
		return nil, fmt.Errorf("vad: create silero session: %w", err)
	}

	return &Silero{
		session:      session,
		modelPath:    modelPath,
		sampleRate:   sampleRate,
		frameSize:    frameSize,
		inputTensor:  inputTensor,
		stateTensor:  stateTensor,
		srTensor:     srTensor,
		outputTensor: outputTensor,
		stateNTensor: stateNTensor,
	}, nil
}

// Infer runs one inference on exactly one model frame and returns the speech
// probability.
func (m *Silero) Infer(frame []float32, sampleRate int) (float32, error) {
	if sampleRate != m.sampleRate {
		return 0, fmt.Errorf("vad: silero configured for %d Hz, got %d", m.sampleRate, sampleRate)
	}
	if len(frame) != m.frameSize {
		return 0, fmt.Errorf("vad: silero requires exactly %d samples at %d Hz, got %d", m.frameSize, m.sampleRate, len(frame))
	}

	copy(m.inputTensor.GetData(), frame)

	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("vad: silero inference: %w", err)
	}

	prob := m.outputTensor.GetData()[0]

	// Carry the recurrent state forward: stateN -> state.
	copy(m.stateTensor.GetData(), m.stateNTensor.GetData())

	return prob, nil
}

// Reset clears the recurrent state so the next frame starts a fresh stream.
func (m *Silero) Reset() error {
	clearFloat32(m.stateTensor.GetData())
	return nil
}

// Close releases ONNX Runtime resources. Safe to call multiple times.
func (m *Silero) Close() error {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	for _, t := range []*ort.Tensor[float32]{m.inputTensor, m.stateTensor, m.outputTensor, m.stateNTensor} {
		if t != nil {
			t.Destroy()
		}
	}
	m.inputTensor, m.stateTensor, m.outputTensor, m.stateNTensor = nil, nil, nil, nil
	if m.srTensor != nil {
		m.srTensor.Destroy()
		m.srTensor = nil
	}
	return nil
}

// ortLibFilename returns the platform-specific ONNX Runtime library name,
// resolved through the system loader when no explicit path is configured.
func ortLibFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default: // linux and others
		return "libonnxruntime.so"
	}
}

func clearFloat32(s []float32) {
	for i := range s {
		s[i] = 0
	}
}
