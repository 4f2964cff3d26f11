package padsynth

import "errors"

var (
	// ErrInvalidConfig marks configuration errors detected before any
	// transform work begins (bad loop windows, non-positive spreads, ...).
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNotImplemented marks declared but unimplemented configuration
	// variants (preserve-spectrum/formants modes, amplitude randomization).
	ErrNotImplemented = errors.New("not implemented")
)
