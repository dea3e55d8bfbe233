package documents

import (
	"context"
	"errors"
	"time"

	"contract961/signing-backend/internal/stamping"
)

// Stamper produces the signed copy of a document.
type Stamper interface {
	Stamp(ctx context.Context, req stamping.Request) (*stamping.SignedResult, error)
}

type StampService struct {
	stamper Stamper
}

func NewStampService(stamper Stamper) *StampService {
	return &StampService{stamper: stamper}
}

var errNoOriginal = errors.New("request has no original document")

// StampRequest draws the signature block for req signed at signedAt.
func (s *StampService) StampRequest(ctx context.Context, req *SigningRequest, signedAt time.Time) (*stamping.SignedResult, error) {
	if req.OriginalPath == nil || *req.OriginalPath == "" {
		return nil, errNoOriginal
	}
	sr := stamping.Request{
		OriginalRef:       *req.OriginalPath,
		DisplayID:         req.DisplayID,
		VerificationToken: req.VerificationToken,
		SignerName:        req.ClientName,
		SignerContact:     req.ClientPhone,
		SignedAt:          signedAt,
	}
	if req.OrganizationName != nil {
		sr.OrganizationName = *req.OrganizationName
	}
	return s.stamper.Stamp(ctx, sr)
}
