//go:build darwin

package inject

/*
#cgo LDFLAGS: -framework ApplicationServices -framework Carbon
#include <ApplicationServices/ApplicationServices.h>
#include <Carbon/Carbon.h>

// Send Cmd+V paste shortcut
void sendPasteShortcut() {
    CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);

    // Press Cmd+V
    CGEventRef cmdDown = CGEventCreateKeyboardEvent(source, (CGKeyCode)55, true); // Cmd key
    CGEventSetFlags(cmdDown, kCGEventFlagMaskCommand);
    CGEventRef vDown = CGEventCreateKeyboardEvent(source, (CGKeyCode)9, true); // V key
    CGEventSetFlags(vDown, kCGEventFlagMaskCommand);

    // Release V+Cmd
    CGEventRef vUp = CGEventCreateKeyboardEvent(source, (CGKeyCode)9, false);
    CGEventRef cmdUp = CGEventCreateKeyboardEvent(source, (CGKeyCode)55, false);

    // Post events
    CGEventPost(kCGHIDEventTap, cmdDown);
    CGEventPost(kCGHIDEventTap, vDown);
    CGEventPost(kCGHIDEventTap, vUp);
    CGEventPost(kCGHIDEventTap, cmdUp);

    CFRelease(cmdDown);
    CFRelease(vDown);
    CFRelease(vUp);
    CFRelease(cmdUp);
    CFRelease(source);
}
*/
import "C"

import (
	"context"
	"time"
)

// platformPaste sends Cmd+V on macOS. The clipboard already holds the
// text by the time this runs.
func platformPaste(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Small delay so the clipboard write settles before the keystroke.
	time.Sleep(50 * time.Millisecond)
	C.sendPasteShortcut()
	return nil
}
