package documents

import "errors"

var (
	ErrRequestNotFound   = errors.New("signing request not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoSignedVersion   = errors.New("document has no signed version")
	ErrRequestExpired    = errors.New("signing deadline has passed")
)
