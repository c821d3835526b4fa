package dispatcher

import (
	"errors"

	"github.com/Swind/go-dispatcher/core"
)

var (
	ErrInvalidConfig     = errors.New(core.Namespace + ": invalid configuration")
	ErrDefaultConfigured = errors.New(core.Namespace + ": default dispatcher already configured")
)
