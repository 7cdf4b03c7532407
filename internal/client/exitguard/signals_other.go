//go:build !unix

package exitguard

import "os"

// DefaultUnloadSignals завершение процесса
var DefaultUnloadSignals = []os.Signal{os.Interrupt}

// DefaultBackgroundSignals на этой платформе сигнала ухода в фон нет
var DefaultBackgroundSignals []os.Signal

func afterBackground(os.Signal) {}
