//go:build unix

package main

import (
	"os"
	"syscall"
)

// focusSignals are delivered when the terminal process is resumed in the foreground.
func focusSignals() []os.Signal {
	return []os.Signal{syscall.SIGCONT}
}
