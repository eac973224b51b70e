//go:build linux

package hotkey

/*
#cgo pkg-config: x11 xtst
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

Display* displayPtr = NULL;

static int ensureDisplay() {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    return displayPtr != NULL;
}

int keycodeFor(unsigned long keysym) {
    if (!ensureDisplay()) return 0;
    return XKeysymToKeycode(displayPtr, keysym);
}

int grabKey(int keycode, int modifiers) {
    if (!ensureDisplay()) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return 1;
}

void ungrabKey(int keycode, int modifiers) {
    if (displayPtr == NULL) return;
    XUngrabKey(displayPtr, keycode, modifiers, DefaultRootWindow(displayPtr));
    XSync(displayPtr, False);
}

int checkEvent(int* keycode, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"time"
)

// X11 modifier masks.
var linuxMods = map[string]int{
	"shift":   1,  // ShiftMask
	"ctrl":    4,  // ControlMask
	"control": 4,
	"alt":     8, // Mod1Mask
	"option":  8,
	"super":   64, // Mod4Mask
	"cmd":     64,
	"meta":    64,
}

// X11 keysyms for named keys; single letters and digits map to their
// ASCII keysym directly.
var linuxKeysyms = map[string]uint64{
	"space":  0x0020,
	"return": 0xff0d,
	"enter":  0xff0d,
	"tab":    0xff09,
	"escape": 0xff1b,
	"f1":     0xffbe, "f2": 0xffbf, "f3": 0xffc0, "f4": 0xffc1,
	"f5": 0xffc2, "f6": 0xffc3, "f7": 0xffc4, "f8": 0xffc5,
	"f9": 0xffc6, "f10": 0xffc7, "f11": 0xffc8, "f12": 0xffc9,
}

type grabbedKey struct {
	keycode   int
	modifiers int
}

type linuxManager struct {
	callbacks map[int]func(bool)
	grabs     map[string]grabbedKey
	stop      chan struct{}
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	mgr := &linuxManager{
		callbacks: make(map[int]func(bool)),
		grabs:     make(map[string]grabbedKey),
		stop:      make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

func parseLinuxAccel(accel string) (keysym uint64, modifiers int, err error) {
	mods, key, err := splitAccel(accel)
	if err != nil {
		return 0, 0, err
	}
	for _, m := range mods {
		mask, ok := linuxMods[m]
		if !ok {
			return 0, 0, fmt.Errorf("unknown modifier %q in %q", m, accel)
		}
		modifiers |= mask
	}
	if sym, ok := linuxKeysyms[key]; ok {
		return sym, modifiers, nil
	}
	if len(key) == 1 {
		c := key[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return uint64(c), modifiers, nil
		}
	}
	return 0, 0, fmt.Errorf("unknown key %q in %q", key, accel)
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	keysym, modifiers, err := parseLinuxAccel(accel)
	if err != nil {
		return err
	}

	keycode := int(C.keycodeFor(C.ulong(keysym)))
	if keycode == 0 {
		return fmt.Errorf("no keycode for %q (is X11 available?)", accel)
	}

	if C.grabKey(C.int(keycode), C.int(modifiers)) == 0 {
		return fmt.Errorf("failed to grab key for %q", accel)
	}

	m.callbacks[keycode] = callback
	m.grabs[accel] = grabbedKey{keycode: keycode, modifiers: modifiers}
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, pressed C.int
			if C.checkEvent(&keycode, &pressed) != 0 {
				if cb, ok := m.callbacks[int(keycode)]; ok {
					cb(pressed == 1)
				}
			}
		}
	}
}

func (m *linuxManager) Unregister(accel string) error {
	g, ok := m.grabs[accel]
	if !ok {
		return nil
	}
	C.ungrabKey(C.int(g.keycode), C.int(g.modifiers))
	delete(m.callbacks, g.keycode)
	delete(m.grabs, accel)
	return nil
}

func (m *linuxManager) Close() error {
	close(m.stop)
	return nil
}
