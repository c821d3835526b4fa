package core

import "errors"

const Namespace = "dispatcher"

var (
	ErrRunnerClosed    = errors.New(Namespace + ": runner is closed")
	ErrAlreadyRunning  = errors.New(Namespace + ": runner loop already running")
	ErrShutdownTimeout = errors.New(Namespace + ": graceful shutdown timed out")
	ErrNotSupported    = errors.New(Namespace + ": not supported")
)
