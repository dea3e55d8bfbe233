package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

var ErrObjectStorageDisabled = errors.New("storage: object storage is not configured")

// Policy decides where persisted files end up.
type Policy struct {
	// UploadDir is the local root; files are staged below it.
	UploadDir string
	Bucket    string
	// ObjectStorage sends persisted files to Bucket and drops the staging
	// copy.
	ObjectStorage bool
}

// Provider routes storage references to the local disk or object storage.
// References are either local paths or s3://bucket/key.
type Provider struct {
	local  LocalClient
	s3     S3Client
	policy Policy
	logger *zap.Logger
}

// NewProvider wires the clients. s3 may be nil when the policy keeps files
// local.
func NewProvider(local LocalClient, s3 S3Client, policy Policy, logger *zap.Logger) *Provider {
	return &Provider{
		local:  local,
		s3:     s3,
		policy: policy,
		logger: logger,
	}
}

func (p *Provider) ObjectStorageEnabled() bool {
	return p.policy.ObjectStorage && p.s3 != nil && p.policy.Bucket != ""
}

// Persist stages data at {UploadDir}/{dir}/{name} and, when object storage
// is enabled, uploads it to {dir}/{name} and removes the staging copy. It
// returns the reference of the authoritative copy.
func (p *Provider) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	localPath := filepath.Join(p.policy.UploadDir, dir, name)
	if err := p.local.Write(ctx, localPath, data); err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if !p.ObjectStorageEnabled() {
		return localPath, nil
	}

	ref := ObjectRef{Bucket: p.policy.Bucket, Key: path.Join(dir, name)}
	if err := p.s3.Upload(ctx, ref.Bucket, ref.Key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	if err := p.local.Remove(ctx, localPath); err != nil {
		p.logger.Warn("Failed to remove staging copy",
			zap.String("path", localPath),
			zap.Error(err),
		)
	}
	p.logger.Debug("Persisted to object storage",
		zap.String("ref", ref.String()),
		zap.Int("bytes", len(data)),
	)
	return ref.String(), nil
}

// Open streams the file behind ref.
func (p *Provider) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !IsObjectRef(ref) {
		return p.local.Open(ctx, ref)
	}
	obj, err := ParseObjectRef(ref)
	if err != nil {
		return nil, err
	}
	if p.s3 == nil {
		return nil, ErrObjectStorageDisabled
	}
	return p.s3.Download(ctx, obj.Bucket, obj.Key)
}

// Load reads the whole file behind ref.
func (p *Provider) Load(ctx context.Context, ref string) ([]byte, error) {
	rc, err := p.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return data, nil
}

func (p *Provider) Delete(ctx context.Context, ref string) error {
	if !IsObjectRef(ref) {
		return p.local.Remove(ctx, ref)
	}
	obj, err := ParseObjectRef(ref)
	if err != nil {
		return err
	}
	if p.s3 == nil {
		return ErrObjectStorageDisabled
	}
	return p.s3.Delete(ctx, obj.Bucket, obj.Key)
}

// PresignedURL returns a temporary download link for an object reference.
func (p *Provider) PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error) {
	obj, err := ParseObjectRef(ref)
	if err != nil {
		return "", err
	}
	if p.s3 == nil {
		return "", ErrObjectStorageDisabled
	}
	return p.s3.GetPresignedURL(ctx, obj.Bucket, obj.Key, expiration)
}
