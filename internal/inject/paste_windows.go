//go:build windows

package inject

import (
	"context"
	"fmt"
)

// platformPaste sends a Ctrl+V keystroke on Windows.
// TODO: Implement using Win32 SendInput
func platformPaste(ctx context.Context) error {
	return fmt.Errorf("paste keystroke not yet implemented on Windows")
}
