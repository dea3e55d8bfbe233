package stamping

import "errors"

var (
	// ErrAssetLoad marks a font or QR image that could not be produced.
	ErrAssetLoad = errors.New("stamping: asset load failed")
	// ErrSerialization marks a failure to render or write the stamped PDF.
	ErrSerialization = errors.New("stamping: serialization failed")
)
