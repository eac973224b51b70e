//go:build linux

package inject

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// platformPaste sends a Ctrl+V keystroke on Linux. X11 sessions use
// xdotool, Wayland sessions use wtype. The clipboard already holds the
// text by the time this runs.
func platformPaste(ctx context.Context) error {
	time.Sleep(50 * time.Millisecond)

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wtype"); err == nil {
			return exec.CommandContext(ctx, "wtype", "-M", "ctrl", "v", "-m", "ctrl").Run()
		}
	}
	if _, err := exec.LookPath("xdotool"); err == nil {
		return exec.CommandContext(ctx, "xdotool", "key", "--clearmodifiers", "ctrl+v").Run()
	}
	return fmt.Errorf("no paste tool found (install xdotool or wtype)")
}
