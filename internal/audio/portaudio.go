package audio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/petems/speaches-tray/internal/config"
)

type portAudioCapture struct {
	cfg    config.AudioConfig
	stream *portaudio.Stream
}

// New creates a new PortAudio-based audio capture
func New(cfg config.AudioConfig) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &portAudioCapture{cfg: cfg}, nil
}

func (p *portAudioCapture) Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error {
	// Find device
	var device *portaudio.DeviceInfo
	if deviceID == "" {
		var err error
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return fmt.Errorf("failed to get default input device: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", err)
		}
		for _, d := range devices {
			if d.Name == deviceID {
				device = d
				break
			}
		}
	}

	if device == nil {
		return fmt.Errorf("device not found: %s", deviceID)
	}

	channels := p.cfg.Channels
	if channels > device.MaxInputChannels {
		channels = device.MaxInputChannels
	}
	if channels < 1 {
		return fmt.Errorf("device has no input channels: %s", device.Name)
	}

	// Open stream: interleaved float32 at the requested rate.
	const framesPerBuffer = 512
	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, buffer)

	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	p.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	// Read loop
	go func() {
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := stream.Read(); err != nil {
					return
				}
				samples := downmixInterleaved(buffer, channels, framesPerBuffer)

				select {
				case out <- samples:
				case <-ctx.Done():
					return
				default:
					// Drop if channel full (backpressure)
				}
			}
		}
	}()

	return nil
}

// downmixInterleaved averages interleaved multi-channel frames into a fresh
// mono slice. Mono input is copied so the stream buffer can be reused.
func downmixInterleaved(input []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels == 1 {
		copy(out, input[:frames])
		return out
	}
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += input[f*channels+c]
		}
		out[f] = sum / float32(channels)
	}
	return out
}

func (p *portAudioCapture) Stop() error {
	if p.stream != nil {
		return p.stream.Stop()
	}
	return nil
}

func (p *portAudioCapture) ListDevices() ([]AudioDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]AudioDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioCapture) Close() error {
	if p.stream != nil {
		p.stream.Close()
	}
	portaudio.Terminate()
	return nil
}
