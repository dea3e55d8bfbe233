package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contract961/signing-backend/pkg/storage"
	"contract961/signing-backend/pkg/workflows"
)

type Service interface {
	CompleteSigning(ctx context.Context, requestID uuid.UUID, signedAt time.Time) (*SigningOutcome, error)
	VerifySignedCopy(ctx context.Context, documentID uuid.UUID) (*VerificationResult, error)
	SignedCopyURL(ctx context.Context, documentID uuid.UUID, expiration time.Duration) (string, error)
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error)
}

// FileStore reads stored documents by reference.
type FileStore interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error)
	Delete(ctx context.Context, ref string) error
}

type ServiceOptions struct {
	// RequireVisualStamp makes a stamping failure fail the signing.
	RequireVisualStamp bool
}

type documentService struct {
	repo     Repository
	storage  FileStore
	stamp    *StampService
	sig      *SignatureService
	workflow *WorkflowService
	opts     ServiceOptions
	logger   *zap.Logger
}

func NewService(repo Repository, storage FileStore, stamp *StampService, sig *SignatureService, workflow *WorkflowService, opts ServiceOptions, logger *zap.Logger) Service {
	return &documentService{
		repo:     repo,
		storage:  storage,
		stamp:    stamp,
		sig:      sig,
		workflow: workflow,
		opts:     opts,
		logger:   logger,
	}
}

// CompleteSigning finalizes a request whose code was verified: it stamps the
// document, records the signed version and marks the request signed. The
// request stays locked from the status check until the signed state is
// committed.
func (s *documentService) CompleteSigning(ctx context.Context, requestID uuid.UUID, signedAt time.Time) (*SigningOutcome, error) {
	var (
		outcome *SigningOutcome
		logger  = s.logger
		stamped string
	)
	err := s.repo.SignRequest(ctx, requestID, signedAt, func(req *SigningRequest) (*DocumentVersion, error) {
		if err := s.workflow.Check(req, workflows.StatusSigned); err != nil {
			return nil, err
		}
		if req.Deadline != nil && signedAt.After(*req.Deadline) {
			return nil, fmt.Errorf("%w: %s", ErrRequestExpired, req.DisplayID)
		}

		logger = s.logger.With(
			zap.String("request_id", req.ID.String()),
			zap.String("display_id", req.DisplayID),
		)
		outcome = &SigningOutcome{
			RequestID: req.ID,
			Status:    workflows.StatusSigned,
			SignedAt:  signedAt,
		}
		if req.DocumentID == nil {
			return nil, nil
		}

		version, err := s.signedCopy(ctx, req, signedAt)
		if err != nil {
			if s.opts.RequireVisualStamp {
				return nil, fmt.Errorf("stamp %s: %w", req.DisplayID, err)
			}
			logger.Error("PDF stamping failed, completing signing without stamp", zap.Error(err))
			return nil, nil
		}
		stamped = version.StoragePath
		outcome.Version = version
		outcome.PDFStamped = true
		return version, nil
	})
	if err != nil {
		if stamped != "" {
			s.discard(ctx, logger, stamped)
		}
		return nil, err
	}

	logger.Info("Request signed", zap.Bool("pdf_stamped", outcome.PDFStamped))
	return outcome, nil
}

func (s *documentService) signedCopy(ctx context.Context, req *SigningRequest, signedAt time.Time) (*DocumentVersion, error) {
	result, err := s.stamp.StampRequest(ctx, req, signedAt)
	if err != nil {
		return nil, err
	}
	return &DocumentVersion{
		ID:          uuid.New(),
		DocumentID:  *req.DocumentID,
		VersionType: VersionSigned,
		StoragePath: result.StorageReference,
		FileHash:    result.SHA256Hash,
		CreatedAt:   time.Now(),
	}, nil
}

// discard removes a stamped copy whose signing was rolled back.
func (s *documentService) discard(ctx context.Context, logger *zap.Logger, ref string) {
	if err := s.storage.Delete(ctx, ref); err != nil {
		logger.Warn("Failed to remove unrecorded signed copy",
			zap.String("ref", ref),
			zap.Error(err),
		)
		return
	}
	logger.Info("Removed unrecorded signed copy", zap.String("ref", ref))
}

// VerifySignedCopy re-hashes the stored signed copy against the recorded
// hash.
func (s *documentService) VerifySignedCopy(ctx context.Context, documentID uuid.UUID) (*VerificationResult, error) {
	version, err := s.signedVersion(ctx, documentID)
	if err != nil {
		return nil, err
	}

	reader, err := s.storage.Open(ctx, version.StoragePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	info, err := s.sig.VerifyIntegrity(ctx, reader, version.FileHash)
	if err != nil {
		return nil, err
	}
	if !info.IsValid {
		s.logger.Warn("Signed copy does not match recorded hash",
			zap.String("document_id", documentID.String()),
			zap.String("storage_path", version.StoragePath),
		)
	}
	return &VerificationResult{
		DocumentID:   documentID,
		StoragePath:  version.StoragePath,
		ExpectedHash: info.ExpectedHash,
		ActualHash:   info.ActualHash,
		IsValid:      info.IsValid,
		CheckedAt:    info.CheckedAt,
	}, nil
}

// SignedCopyURL returns a presigned link for copies in object storage and
// the local path otherwise.
func (s *documentService) SignedCopyURL(ctx context.Context, documentID uuid.UUID, expiration time.Duration) (string, error) {
	version, err := s.signedVersion(ctx, documentID)
	if err != nil {
		return "", err
	}
	if !storage.IsObjectRef(version.StoragePath) {
		return version.StoragePath, nil
	}
	return s.storage.PresignedURL(ctx, version.StoragePath, expiration)
}

func (s *documentService) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	return s.repo.ListVersions(ctx, documentID)
}

func (s *documentService) signedVersion(ctx context.Context, documentID uuid.UUID) (*DocumentVersion, error) {
	version, err := s.repo.GetSignedVersion(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSignedVersion, documentID)
	}
	return version, nil
}
