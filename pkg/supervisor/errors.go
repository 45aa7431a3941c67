package supervisor

import (
	"errors"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
)

// Supervisor errors.
var (
	// ErrNotStarted is returned by operations that need a live session.
	ErrNotStarted = errors.New("lighting server not started")

	// ErrServerExited indicates the server process exited during start.
	ErrServerExited = errors.New("lighting server exited")

	// ErrStopped is returned to recovery attempts after an explicit Stop.
	ErrStopped = errors.New("supervisor stopped")

	// ErrUnknownEffect is returned for names missing from the registry.
	ErrUnknownEffect = effect.ErrUnknownEffect
)
