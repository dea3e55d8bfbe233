package documents

import (
	"context"
	"io"

	"contract961/signing-backend/pkg/security"
)

type SignatureService struct {
	validator security.Validator
}

func NewSignatureService(validator security.Validator) *SignatureService {
	return &SignatureService{
		validator: validator,
	}
}

func (s *SignatureService) VerifyIntegrity(ctx context.Context, pdf io.Reader, expectedHash string) (*security.IntegrityInfo, error) {
	return s.validator.ValidateHash(ctx, pdf, expectedHash)
}
