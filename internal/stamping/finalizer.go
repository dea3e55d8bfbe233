package stamping

import (
	"context"
	"fmt"
	"strings"

	"contract961/signing-backend/pkg/security"
)

// SignedDir is the storage directory of signed copies.
const SignedDir = "signed"

// Persister stores a finished file and returns its reference.
type Persister interface {
	Persist(ctx context.Context, dir, name string, data []byte) (string, error)
}

// Serializer produces the final bytes of a document.
type Serializer interface {
	Bytes() ([]byte, error)
}

// Finalizer serializes, hashes and stores a stamped document.
type Finalizer struct {
	store Persister
}

func NewFinalizer(store Persister) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize hashes exactly the bytes it persists.
func (f *Finalizer) Finalize(ctx context.Context, doc Serializer, displayID string) (*SignedResult, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	hash := security.HashHex(data)

	ref, err := f.store.Persist(ctx, SignedDir, SignedFileName(displayID), data)
	if err != nil {
		return nil, fmt.Errorf("persist signed copy: %w", err)
	}
	return &SignedResult{StorageReference: ref, SHA256Hash: hash}, nil
}

// SignedFileName is the file name of the signed copy of displayID.
func SignedFileName(displayID string) string {
	return SanitizeDisplayID(displayID) + "_signed.pdf"
}

// SanitizeDisplayID replaces every character other than ASCII letters,
// digits and '-' with '_'.
func SanitizeDisplayID(displayID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, displayID)
}
