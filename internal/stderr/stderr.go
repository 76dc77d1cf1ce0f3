//go:build !windows

// Package stderr captures output that C libraries (miniaudio, ALSA) write
// directly to file descriptor 2, bypassing Go's os.Stderr, and forwards it
// to the logger so it does not corrupt the TUI layout.
package stderr

import (
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	done       chan struct{}
)

// Start begins capturing stderr output into log.
// Must be called early in main(), before any C library initialization.
// Returns an error if capture cannot be set up, but the program can continue
// without stderr capture (errors will just go to the original stderr).
func Start(log logrus.FieldLogger) error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	// Save original stderr file descriptor
	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	err = syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	done = make(chan struct{})

	go func() {
		defer close(done)
		Forward(pipeRead, log)
	}()

	return nil
}

// Stop restores the original stderr and waits for pending lines to be
// logged. Should be called on program exit.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)
	origStderr = 0

	// fd 2 no longer refers to the pipe; closing our end delivers EOF
	pipeWrite.Close()
	<-done
	pipeRead.Close()

	started = false
}
