package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IntegrityInfo is the outcome of checking stored bytes against a recorded
// digest.
type IntegrityInfo struct {
	ExpectedHash string
	ActualHash   string
	Size         int64
	CheckedAt    time.Time
	IsValid      bool
}

type Validator interface {
	ValidateHash(ctx context.Context, r io.Reader, expected string) (*IntegrityInfo, error)
}

type sha256Validator struct {
	now func() time.Time
}

func NewValidator() Validator {
	return &sha256Validator{now: time.Now}
}

func (v *sha256Validator) ValidateHash(ctx context.Context, r io.Reader, expected string) (*IntegrityInfo, error) {
	h := sha256.New()
	n, err := io.Copy(h, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return nil, fmt.Errorf("hash content: %w", err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	return &IntegrityInfo{
		ExpectedHash: expected,
		ActualHash:   actual,
		Size:         n,
		CheckedAt:    v.now(),
		IsValid:      strings.EqualFold(actual, strings.TrimSpace(expected)),
	}, nil
}

// HashHex returns the lowercase hex SHA-256 digest of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewVerificationToken returns an unguessable token for public
// verification links.
func NewVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
