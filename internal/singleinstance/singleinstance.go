// Package singleinstance prevents two copies of the app from fighting over
// the microphone and the hotkey.
package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when another live instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running (check the system tray)")

// Lock is a held single-instance lock. Release it on shutdown.
type Lock struct {
	path string
}

// Acquire takes the named lock, or fails with ErrAlreadyRunning. A lockfile
// left behind by a dead process is taken over.
func Acquire(name string) (*Lock, error) {
	path := filepath.Join(os.TempDir(), name+".lock")

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		data, readErr := os.ReadFile(path)
		if readErr == nil {
			pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
			if pid > 0 && processAlive(pid) {
				return nil, ErrAlreadyRunning
			}
		}

		// Stale or unreadable lock; remove and retry once.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}

	return nil, ErrAlreadyRunning
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() {
	if l.path != "" {
		os.Remove(l.path)
		l.path = ""
	}
}

// processAlive probes the pid with signal 0. Pidfd-backed processes report
// os.ErrProcessDone instead of ESRCH, so both count as dead. Any other error
// treats the lock as live, erring on the safe side.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return false
	}
	return true
}
