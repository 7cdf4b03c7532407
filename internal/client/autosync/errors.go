package autosync

import "errors"

var (
	// ErrOffline is returned by FlushNow when the write was deferred until connectivity returns
	ErrOffline = errors.New("remote write deferred: offline")

	// ErrNoEntity is returned for an entity without an id
	ErrNoEntity = errors.New("entity has no id")

	// ErrDisposed is returned after Dispose
	ErrDisposed = errors.New("scheduler disposed")
)
