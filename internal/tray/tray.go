package tray

import (
	"context"
	"fmt"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/app"
	"github.com/petems/speaches-tray/internal/config"
	"github.com/petems/speaches-tray/internal/logging"
)

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mStartStop   *systray.MenuItem
	mMode        *systray.MenuItem
	mDevices     *systray.MenuItem
	mModels      *systray.MenuItem
	mVAD         *systray.MenuItem
	mPastePrefer *systray.MenuItem
	mKeepFiles   *systray.MenuItem
	mRunAtLogin  *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetRecording() {
	u.updateStatus("recording")
}

func (u *UI) SetSpeaking() {
	u.updateStatus("speaking")
}

func (u *UI) SetProcessing() {
	u.updateStatus("processing")
}

func (u *UI) SetError() {
	u.updateStatus("error")
}

func New(application *app.App, cfg *config.Config, version, commit string) *UI {
	log := logging.New()
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	// Use emoji instead of icon - microphone with initial status
	u.updateStatus("idle")
	systray.SetTooltip("Voice dictation via speaches")

	// Build menu
	u.mStartStop = systray.AddMenuItem("Start Recording", "Press hotkey to record")
	systray.AddSeparator()

	u.mMode = systray.AddMenuItem(modeTitle(u.cfg.Mode), "Toggle between modes")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	u.mModels = systray.AddMenuItem("Model", "Select transcription model")
	u.buildModelMenu()

	systray.AddSeparator()
	u.mVAD = systray.AddMenuItemCheckbox("Speech Detection", "Upload only detected speech", u.cfg.VAD.Enabled)
	u.mPastePrefer = systray.AddMenuItemCheckbox("Prefer Paste", "Send a paste keystroke after copying", u.cfg.Inject.PreferPaste)
	u.mKeepFiles = systray.AddMenuItemCheckbox("Keep Recordings", "Keep temporary audio files", u.cfg.KeepFiles)
	u.mRunAtLogin = systray.AddMenuItemCheckbox("Run at Login", "Start on system boot", u.cfg.RunAtLogin)

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About SpeachesTray")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mMode.ClickedCh:
			u.toggleMode()
		case <-u.mVAD.ClickedCh:
			u.toggleVAD()
		case <-u.mPastePrefer.ClickedCh:
			u.togglePastePrefer()
		case <-u.mKeepFiles.ClickedCh:
			u.toggleKeepFiles()
		case <-u.mRunAtLogin.ClickedCh:
			u.toggleRunAtLogin()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildDeviceMenu() {
	// Get devices from app
	devices, err := u.app.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	deviceItems := make(map[string]*systray.MenuItem)

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(dev.Name, "")
		if dev.ID == u.cfg.Audio.DeviceID || (u.cfg.Audio.DeviceID == "" && dev.Default) {
			item.Check()
		}
		deviceItems[dev.ID] = item

		go func(deviceID, deviceName string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := u.app.SetDevice(deviceID); err != nil {
					u.log.Warn().Err(err).Msg("Failed to change audio device")
					continue
				}
				// Uncheck all other items
				for id, itm := range deviceItems {
					if id != deviceID {
						itm.Uncheck()
					}
				}
				// Check this item
				menuItem.Check()
				u.log.Info().Str("device", deviceName).Msg("Changed audio device")
			}
		}(dev.ID, dev.Name, item)
	}
}

func (u *UI) buildModelMenu() {
	models := []string{
		"Systran/faster-distil-whisper-large-v3",
		"Systran/faster-whisper-large-v3",
		"Systran/faster-whisper-medium",
		"Systran/faster-whisper-small",
	}
	modelItems := make(map[string]*systray.MenuItem)

	for _, model := range models {
		item := u.mModels.AddSubMenuItem(model, "")
		if model == u.cfg.API.Model {
			item.Check()
		}
		modelItems[model] = item

		go func(m string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				oldModel := u.cfg.API.Model
				if err := u.app.SetModel(m); err != nil {
					u.log.Warn().Err(err).Msg("Failed to change model")
					continue
				}
				// Uncheck all other items
				for mdl, itm := range modelItems {
					if mdl != m {
						itm.Uncheck()
					}
				}
				// Check this item
				menuItem.Check()
				u.log.Info().Str("from", oldModel).Str("to", m).Msg("Changed transcription model")
			}
		}(model, item)
	}
}

func (u *UI) toggleMode() {
	oldMode := u.cfg.Mode
	if u.cfg.Mode == config.ModePushToTalk {
		u.app.SetMode(config.ModeToggle)
	} else {
		u.app.SetMode(config.ModePushToTalk)
	}
	u.mMode.SetTitle(modeTitle(u.cfg.Mode))
	u.log.Info().Str("from", oldMode).Str("to", u.cfg.Mode).Msg("Changed mode")
}

func (u *UI) toggleVAD() {
	if err := u.app.SetVADEnabled(!u.cfg.VAD.Enabled); err != nil {
		u.log.Warn().Err(err).Msg("Failed to toggle speech detection")
		return
	}
	if u.cfg.VAD.Enabled {
		u.mVAD.Check()
		u.log.Info().Msg("Enabled speech detection")
	} else {
		u.mVAD.Uncheck()
		u.log.Info().Msg("Disabled speech detection (uploading full recordings)")
	}
}

func (u *UI) togglePastePrefer() {
	u.cfg.Inject.PreferPaste = !u.cfg.Inject.PreferPaste
	if u.cfg.Inject.PreferPaste {
		u.mPastePrefer.Check()
		u.log.Info().Msg("Enabled paste keystroke after copy")
	} else {
		u.mPastePrefer.Uncheck()
		u.log.Info().Msg("Disabled paste keystroke (clipboard only)")
	}
	u.cfg.Save()
}

func (u *UI) toggleKeepFiles() {
	u.cfg.KeepFiles = !u.cfg.KeepFiles
	if u.cfg.KeepFiles {
		u.mKeepFiles.Check()
		u.log.Info().Msg("Keeping temporary recordings")
	} else {
		u.mKeepFiles.Uncheck()
		u.log.Info().Msg("Deleting temporary recordings after upload")
	}
	u.cfg.Save()
}

func (u *UI) toggleRunAtLogin() {
	u.cfg.RunAtLogin = !u.cfg.RunAtLogin
	if u.cfg.RunAtLogin {
		u.mRunAtLogin.Check()
		u.log.Info().Msg("Enabled run at login")
	} else {
		u.mRunAtLogin.Uncheck()
		u.log.Info().Msg("Disabled run at login")
	}
	u.cfg.Save()
	// TODO: Platform-specific login item registration
}

func (u *UI) openLogs() {
	// TODO: Open log file with default app
	fmt.Println("Open logs...")
}

func (u *UI) showAbout() {
	// TODO: Show about dialog with native UI
	fmt.Printf("SpeachesTray %s (%s)\nVoice dictation via the speaches API\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

func modeTitle(mode string) string {
	if mode == config.ModeToggle {
		return "Mode: Toggle"
	}
	return "Mode: Push-to-Talk"
}

// updateStatus sets the tray title with microphone emoji and status indicator
func (u *UI) updateStatus(status string) {
	emoji := emojiForStatus(status)
	systray.SetTitle(fmt.Sprintf("🎤 %s", emoji))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴" // Red - recording, waiting for speech
	case "speaking":
		return "🟠" // Orange - speech detected
	case "processing":
		return "🟡" // Yellow - transcription in flight
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}
