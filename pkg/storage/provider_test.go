package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	args := m.Called(ctx, bucket, key, body)
	return args.Error(0)
}

func (m *MockS3Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockS3Client) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockS3Client) GetPresignedURL(ctx context.Context, bucket, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expiration)
	return args.String(0), args.Error(1)
}

func TestPersistLocal(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(NewLocalClient(), nil, Policy{UploadDir: dir}, zap.NewNop())
	ctx := context.Background()

	ref, err := p.Persist(ctx, "signed", "REQ-1_signed.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "signed", "REQ-1_signed.pdf"), ref)

	data, err := p.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)

	require.NoError(t, p.Delete(ctx, ref))
	_, err = os.Stat(ref)
	assert.True(t, os.IsNotExist(err))
}

func TestPersistObjectStorageRemovesStagingCopy(t *testing.T) {
	dir := t.TempDir()
	s3 := new(MockS3Client)
	p := NewProvider(NewLocalClient(), s3, Policy{UploadDir: dir, Bucket: "docs", ObjectStorage: true}, zap.NewNop())
	ctx := context.Background()

	var uploaded []byte
	s3.On("Upload", ctx, "docs", "signed/REQ-1_signed.pdf", mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(nil)

	ref, err := p.Persist(ctx, "signed", "REQ-1_signed.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "s3://docs/signed/REQ-1_signed.pdf", ref)
	assert.Equal(t, []byte("pdf"), uploaded)

	_, err = os.Stat(filepath.Join(dir, "signed", "REQ-1_signed.pdf"))
	assert.True(t, os.IsNotExist(err))
	s3.AssertExpectations(t)
}

func TestPersistUploadFailureKeepsStagingCopy(t *testing.T) {
	dir := t.TempDir()
	s3 := new(MockS3Client)
	p := NewProvider(NewLocalClient(), s3, Policy{UploadDir: dir, Bucket: "docs", ObjectStorage: true}, zap.NewNop())
	ctx := context.Background()

	s3.On("Upload", ctx, "docs", "signed/a.pdf", mock.Anything).Return(errors.New("network down"))

	_, err := p.Persist(ctx, "signed", "a.pdf", []byte("pdf"))
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "signed", "a.pdf"))
	assert.NoError(t, err)
}

func TestPolicyWithoutClientStaysLocal(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(NewLocalClient(), nil, Policy{UploadDir: dir, Bucket: "docs", ObjectStorage: true}, zap.NewNop())

	assert.False(t, p.ObjectStorageEnabled())
	ref, err := p.Persist(context.Background(), "signed", "a.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.False(t, IsObjectRef(ref))
}

func TestLoadObject(t *testing.T) {
	s3 := new(MockS3Client)
	p := NewProvider(NewLocalClient(), s3, Policy{Bucket: "docs", ObjectStorage: true}, zap.NewNop())
	ctx := context.Background()

	s3.On("Download", ctx, "archive", "documents/a.pdf").
		Return(io.NopCloser(strings.NewReader("original")), nil)

	data, err := p.Load(ctx, "s3://archive/documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
	s3.AssertExpectations(t)
}

func TestObjectRefWithoutClient(t *testing.T) {
	p := NewProvider(NewLocalClient(), nil, Policy{}, zap.NewNop())
	ctx := context.Background()

	_, err := p.Load(ctx, "s3://docs/a.pdf")
	assert.ErrorIs(t, err, ErrObjectStorageDisabled)
	assert.ErrorIs(t, p.Delete(ctx, "s3://docs/a.pdf"), ErrObjectStorageDisabled)

	_, err = p.Load(ctx, "s3://docs")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestPresignedURL(t *testing.T) {
	s3 := new(MockS3Client)
	p := NewProvider(NewLocalClient(), s3, Policy{Bucket: "docs", ObjectStorage: true}, zap.NewNop())
	ctx := context.Background()

	s3.On("GetPresignedURL", ctx, "docs", "signed/a.pdf", time.Hour).Return("https://docs.s3/signed/a.pdf?X-Amz", nil)

	url, err := p.PresignedURL(ctx, "s3://docs/signed/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "signed/a.pdf")

	_, err = p.PresignedURL(ctx, "/local/a.pdf", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidRef)
}
