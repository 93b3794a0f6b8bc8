//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify relays interrupt and terminate signals to ch.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
