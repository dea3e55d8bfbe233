package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SignFunc runs while the request row is locked. It returns the signed
// version to record, or nil when no stamped copy exists.
type SignFunc func(req *SigningRequest) (*DocumentVersion, error)

type Repository interface {
	SignRequest(ctx context.Context, id uuid.UUID, signedAt time.Time, sign SignFunc) error
	ExpireOverdue(ctx context.Context, now time.Time, from []string) ([]ExpiredRequest, error)

	ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error)
	GetSignedVersion(ctx context.Context, documentID uuid.UUID) (*DocumentVersion, error)
}

const insertVersionQuery = `
	INSERT INTO document_versions (
		id, document_id, version_type, storage_path, file_hash, created_at
	) VALUES (
		:id, :document_id, :version_type, :storage_path, :file_hash, :created_at
	)`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// SignRequest locks the request, hands it to sign and, if sign succeeds,
// marks it signed and records the returned version in one transaction.
// Concurrent signers of the same request run one after the other, so the
// later one sees the signed status.
func (r *postgresRepository) SignRequest(ctx context.Context, id uuid.UUID, signedAt time.Time, sign SignFunc) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		SELECT
			r.id, r.display_id, r.organization_id, o.name AS organization_name,
			r.document_id, r.document_name, d.original_path, r.client_name,
			r.client_phone, r.verify_token, r.status, r.pdf_stamped, r.signed_at, r.deadline, r.created_at
		FROM requests r
		LEFT JOIN organizations o ON o.id = r.organization_id
		LEFT JOIN documents d ON d.id = r.document_id
		WHERE r.id = $1
		FOR UPDATE OF r`
	var req SigningRequest
	err = tx.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	if err != nil {
		return err
	}

	version, err := sign(&req)
	if err != nil {
		return err
	}

	update := `
		UPDATE requests SET
			status = 'signed',
			signed_at = $2,
			pdf_stamped = $3
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, signedAt, version != nil); err != nil {
		return err
	}
	if version != nil {
		if _, err := tx.NamedExecContext(ctx, insertVersionQuery, version); err != nil {
			return fmt.Errorf("record signed version: %w", err)
		}
	}
	return tx.Commit()
}

// ExpireOverdue moves requests past their deadline whose status is in from
// to expired and returns them.
func (r *postgresRepository) ExpireOverdue(ctx context.Context, now time.Time, from []string) ([]ExpiredRequest, error) {
	query := `
		UPDATE requests SET status = 'expired'
		WHERE deadline IS NOT NULL AND deadline < $1 AND status = ANY($2)
		RETURNING id, display_id`
	var expired []ExpiredRequest
	if err := r.db.SelectContext(ctx, &expired, query, now, pq.Array(from)); err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *postgresRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	var versions []DocumentVersion
	err := r.db.SelectContext(ctx, &versions, "SELECT * FROM document_versions WHERE document_id = $1 ORDER BY created_at DESC", documentID)
	return versions, err
}

func (r *postgresRepository) GetSignedVersion(ctx context.Context, documentID uuid.UUID) (*DocumentVersion, error) {
	var version DocumentVersion
	err := r.db.GetContext(ctx, &version,
		"SELECT * FROM document_versions WHERE document_id = $1 AND version_type = $2 ORDER BY created_at DESC LIMIT 1",
		documentID, VersionSigned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}
