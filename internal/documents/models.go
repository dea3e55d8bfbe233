package documents

import (
	"time"

	"github.com/google/uuid"
)

type VersionType string

const VersionSigned VersionType = "signed"

// SigningRequest is a request for a client to sign one document, joined
// with the fields of its document and organization the stamp needs.
type SigningRequest struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	DisplayID         string     `json:"display_id" db:"display_id"`
	OrganizationID    uuid.UUID  `json:"organization_id" db:"organization_id"`
	OrganizationName  *string    `json:"organization_name,omitempty" db:"organization_name"`
	DocumentID        *uuid.UUID `json:"document_id,omitempty" db:"document_id"`
	DocumentName      string     `json:"document_name" db:"document_name"`
	OriginalPath      *string    `json:"original_path,omitempty" db:"original_path"`
	ClientName        string     `json:"client_name" db:"client_name"`
	ClientPhone       string     `json:"client_phone" db:"client_phone"`
	VerificationToken string     `json:"-" db:"verify_token"`
	Status            string     `json:"status" db:"status"`
	PDFStamped        bool       `json:"pdf_stamped" db:"pdf_stamped"`
	SignedAt          *time.Time `json:"signed_at,omitempty" db:"signed_at"`
	Deadline          *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

type DocumentVersion struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	DocumentID  uuid.UUID   `json:"document_id" db:"document_id"`
	VersionType VersionType `json:"version_type" db:"version_type"`
	StoragePath string      `json:"storage_path" db:"storage_path"`
	FileHash    string      `json:"file_hash" db:"file_hash"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// SigningOutcome reports what CompleteSigning recorded.
type SigningOutcome struct {
	RequestID  uuid.UUID        `json:"request_id"`
	Status     string           `json:"status"`
	SignedAt   time.Time        `json:"signed_at"`
	PDFStamped bool             `json:"pdf_stamped"`
	Version    *DocumentVersion `json:"version,omitempty"`
}

// VerificationResult compares a stored signed copy with its recorded hash.
type VerificationResult struct {
	DocumentID   uuid.UUID `json:"document_id"`
	StoragePath  string    `json:"storage_path"`
	ExpectedHash string    `json:"expected_hash"`
	ActualHash   string    `json:"actual_hash"`
	IsValid      bool      `json:"is_valid"`
	CheckedAt    time.Time `json:"checked_at"`
}

// ExpiredRequest identifies a request moved to expired by a sweep.
type ExpiredRequest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DisplayID string    `json:"display_id" db:"display_id"`
}
