package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/petems/speaches-tray/internal/app"
	"github.com/petems/speaches-tray/internal/audio"
	"github.com/petems/speaches-tray/internal/compress"
	"github.com/petems/speaches-tray/internal/config"
	"github.com/petems/speaches-tray/internal/hotkey"
	"github.com/petems/speaches-tray/internal/inject"
	"github.com/petems/speaches-tray/internal/logging"
	"github.com/petems/speaches-tray/internal/permissions"
	"github.com/petems/speaches-tray/internal/singleinstance"
	"github.com/petems/speaches-tray/internal/transcribe"
	"github.com/petems/speaches-tray/internal/tray"
	"github.com/petems/speaches-tray/internal/vad"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	listDevices := flag.Bool("list-devices", false, "list audio input devices and exit")
	once := flag.Duration("once", 0, "record for the given duration, print the transcript and exit")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// Initialize audio capture
	capture, err := audio.New(cfg.Audio)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer capture.Close()

	if *listDevices {
		devices, err := capture.ListDevices()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list audio devices")
		}
		for _, dev := range devices {
			marker := " "
			if dev.Default {
				marker = "*"
			}
			fmt.Printf("%s %s: %s\n", marker, dev.ID, dev.Name)
		}
		return
	}

	// Hotkeys and capture misbehave when two copies run at once
	lock, err := singleinstance.Acquire("speaches-tray")
	if err != nil {
		log.Fatal().Err(err).Msg("Another instance is already running")
	}
	defer lock.Release()

	// macOS requires explicit microphone + accessibility approval before capture or hotkeys work
	if err := permissions.EnsurePermissions(log); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the speech detection model. A broken model must not silently
	// degrade into uploading whole recordings, silence included.
	var model vad.Model
	if cfg.VAD.Enabled {
		modelPath := cfg.VAD.ModelPath
		if modelPath == "" {
			modelPath = filepath.Join(config.ModelsPath(), "silero_vad.onnx")
		}
		silero, err := vad.NewSilero(modelPath, cfg.VAD.SampleRate)
		if err != nil {
			log.Fatal().Err(err).Str("model_path", modelPath).
				Msg("Failed to load the speech detection model; fix vad.model_path or set vad.enabled to false in config.json")
		}
		model = silero
		defer silero.Close()
	}

	// Initialize transcription client
	transcriber := transcribe.New(cfg.API, log)
	healthCtx, healthCancel := context.WithTimeout(ctx, 10*time.Second)
	if !transcriber.Health(healthCtx) {
		log.Warn().Str("base_url", cfg.API.BaseURL).Msg("Transcription API is not responding (is the speaches server running?)")
	}
	healthCancel()

	// Initialize compressor
	compressor := compress.New(log)
	if !compressor.Available() {
		log.Warn().Msg("ffmpeg not found, recordings will be uploaded as WAV")
	}

	// Initialize text injector
	injector := inject.New(cfg.Inject, log)

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, Version, Commit) // App reference set below

	// Create app with tray as status updater
	application := app.New(app.Config{
		Audio:         capture,
		Transcriber:   transcriber,
		Compressor:    compressor,
		VADModel:      model,
		Injector:      injector,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	if *once > 0 {
		text, err := application.RecordOnce(ctx, *once)
		if err != nil {
			log.Fatal().Err(err).Msg("Recording failed")
		}
		if text == "" {
			log.Info().Msg("No speech detected")
			return
		}
		fmt.Println(text)
		return
	}

	// Set app reference in tray
	trayUI.SetApp(application)

	// Initialize hotkey manager
	hkManager, err := hotkey.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize hotkeys")
	}
	defer hkManager.Close()

	// Register global hotkey
	if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
		log.Fatal().Err(err).Msg("Failed to register hotkey")
	}

	log.Info().Str("version", Version).Msg("SpeachesTray starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		lock.Release()
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
