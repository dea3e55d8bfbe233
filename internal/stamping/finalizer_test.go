package stamping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contract961/signing-backend/pkg/security"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	args := m.Called(ctx, dir, name, data)
	return args.String(0), args.Error(1)
}

type staticDoc struct {
	data []byte
	err  error
}

func (d staticDoc) Bytes() ([]byte, error) { return d.data, d.err }

func TestSanitizeDisplayID(t *testing.T) {
	assert.Equal(t, "REQ-2026-001", SanitizeDisplayID("REQ-2026-001"))
	assert.Equal(t, "REQ_2026_001", SanitizeDisplayID("REQ/2026 001"))
	assert.Equal(t, "______-1", SanitizeDisplayID("../../-1"))
	assert.Equal(t, "_____-7", SanitizeDisplayID("Заявк-7"))
	assert.Equal(t, "REQ-1_signed.pdf", SignedFileName("REQ-1"))
}

func TestFinalize(t *testing.T) {
	store := new(MockPersister)
	f := NewFinalizer(store)
	ctx := context.Background()
	data := []byte("%PDF-1.7 stamped")

	store.On("Persist", ctx, "signed", "REQ-2026-001_signed.pdf", data).Return("s3://docs/signed/REQ-2026-001_signed.pdf", nil)

	res, err := f.Finalize(ctx, staticDoc{data: data}, "REQ-2026-001")
	require.NoError(t, err)
	assert.Equal(t, "s3://docs/signed/REQ-2026-001_signed.pdf", res.StorageReference)
	assert.Equal(t, security.HashHex(data), res.SHA256Hash)
	store.AssertExpectations(t)
}

func TestFinalizeSerializationError(t *testing.T) {
	store := new(MockPersister)
	f := NewFinalizer(store)

	_, err := f.Finalize(context.Background(), staticDoc{err: errors.New("broken xref")}, "REQ-1")
	assert.ErrorIs(t, err, ErrSerialization)
	store.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizePersistError(t *testing.T) {
	store := new(MockPersister)
	f := NewFinalizer(store)
	ctx := context.Background()

	store.On("Persist", ctx, "signed", "REQ-1_signed.pdf", mock.Anything).Return("", errors.New("disk full"))

	_, err := f.Finalize(ctx, staticDoc{data: []byte("x")}, "REQ-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSerialization)
}
