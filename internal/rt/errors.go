package rt

import "errors"

// Error taxonomy: configuration errors (bad device string, bad index) and
// resource errors (allocation, copy, tensor creation) abort the operation
// that raised them and leave the instance unusable; state errors below are
// programmer-error class. None are retried internally.
var (
	ErrNoRun               = errors.New("rt: no run has been started")
	ErrEventNotInitialized = errors.New("rt: completion event not initialized")
	ErrNoConstantsMap      = errors.New("rt: constants map not set")
	ErrNoWeightsSource     = errors.New("rt: no weights source configured")
	ErrSkipCopyOnHost      = errors.New("rt: host-resident constants do not support skip-copy")
)
