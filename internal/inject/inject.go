package inject

import "context"

// Injector delivers transcribed text to the focused application.
type Injector interface {
	// Deliver puts text onto the clipboard and, when configured,
	// sends a paste keystroke to the focused window.
	Deliver(ctx context.Context, text string) error
}
