package amr

import "errors"

// Sentinel errors surfaced by Open and the extractor operations.
var (
	// ErrBadMagic means neither container magic matched at offset 0.
	ErrBadMagic = errors.New("amr: unrecognized container magic")
	// ErrEmptyStream means the magic matched but no valid frame followed.
	ErrEmptyStream = errors.New("amr: no valid frames after magic")
	// ErrNotInitialized is returned by every operation on an extractor that
	// was not produced by a successful Open.
	ErrNotInitialized = errors.New("amr: extractor not initialized")
)

// Classification sentinels used while walking the frame stream. Neither is
// fatal on its own: the index builder stops at the last good frame and keeps
// the valid prefix.
var (
	errInvalidFrameType = errors.New("invalid frame type")
	errTruncatedFrame   = errors.New("truncated frame")
)
