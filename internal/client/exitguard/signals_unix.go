//go:build unix

package exitguard

import (
	"os"
	"syscall"
)

// DefaultUnloadSignals завершение процесса
var DefaultUnloadSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// DefaultBackgroundSignals уход в фон: Ctrl+Z и внешний SIGUSR1
var DefaultBackgroundSignals = []os.Signal{syscall.SIGTSTP, syscall.SIGUSR1}

// afterBackground restores the default Ctrl+Z behaviour once the local save is done.
func afterBackground(sig os.Signal) {
	if sig == syscall.SIGTSTP {
		_ = syscall.Kill(os.Getpid(), syscall.SIGSTOP)
	}
}
