package storage

import (
	"errors"
	"fmt"
	"strings"
)

const objectScheme = "s3://"

var ErrInvalidRef = errors.New("storage: invalid object reference")

// ObjectRef addresses an object in a bucket.
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return objectScheme + r.Bucket + "/" + r.Key
}

// IsObjectRef reports whether ref points into object storage rather than
// the local filesystem.
func IsObjectRef(ref string) bool {
	return strings.HasPrefix(ref, objectScheme)
}

// ParseObjectRef splits s3://bucket/key.
func ParseObjectRef(ref string) (ObjectRef, error) {
	if !IsObjectRef(ref) {
		return ObjectRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, objectScheme), "/")
	if !ok || bucket == "" || key == "" {
		return ObjectRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return ObjectRef{Bucket: bucket, Key: key}, nil
}
