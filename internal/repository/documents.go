package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StagedStatus enumerates the lifecycle of a staged claim document: persisted
// to object storage, queued/forwarding to the upstream, done or failed.
type StagedStatus string

const (
	StagedQueued     StagedStatus = "queued"
	StagedForwarding StagedStatus = "forwarding"
	StagedForwarded  StagedStatus = "forwarded"
	StagedFailed     StagedStatus = "failed"
)

// ErrDocumentNotFound is returned for unknown staged document ids.
var ErrDocumentNotFound = errors.New("staged document not found")

// StagedDocument is a row in the staged_documents table.
type StagedDocument struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	FileName     string       `json:"file_name"`
	ContentType  string       `json:"content_type"`
	SizeBytes    int64        `json:"size_bytes"`
	ObjectKey    string       `json:"object_key"`
	Status       StagedStatus `json:"status"`
	UpstreamURL  *string      `json:"upstream_url,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DocumentRepository wraps SQL for staged documents.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts a queued staged document.
func (r *DocumentRepository) Create(ctx context.Context, doc *StagedDocument) error {
	now := time.Now().UTC()
	doc.Status = StagedQueued
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staged_documents (id, owner_id, file_name, content_type, size_bytes, object_key, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, doc.ID, doc.OwnerID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.ObjectKey, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert staged document: %w", err)
	}
	return nil
}

// Get returns a staged document by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*StagedDocument, error) {
	var (
		doc         StagedDocument
		upstreamURL sql.NullString
		errorMsg    sql.NullString
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, file_name, content_type, size_bytes, object_key, status, upstream_url, error_message, created_at, updated_at
		FROM staged_documents WHERE id=$1
	`, id)
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.FileName, &doc.ContentType, &doc.SizeBytes, &doc.ObjectKey,
		&doc.Status, &upstreamURL, &errorMsg, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("select staged document: %w", err)
	}
	if upstreamURL.Valid {
		u := upstreamURL.String
		doc.UpstreamURL = &u
	}
	if errorMsg.Valid {
		m := errorMsg.String
		doc.ErrorMessage = &m
	}
	return &doc, nil
}

// ListByOwner returns the owner's staged documents, newest first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]StagedDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, file_name, content_type, size_bytes, object_key, status, upstream_url, error_message, created_at, updated_at
		FROM staged_documents WHERE owner_id=$1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list staged documents: %w", err)
	}
	defer rows.Close()
	var docs []StagedDocument
	for rows.Next() {
		var (
			doc         StagedDocument
			upstreamURL sql.NullString
			errorMsg    sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.FileName, &doc.ContentType, &doc.SizeBytes, &doc.ObjectKey,
			&doc.Status, &upstreamURL, &errorMsg, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staged document: %w", err)
		}
		if upstreamURL.Valid {
			u := upstreamURL.String
			doc.UpstreamURL = &u
		}
		if errorMsg.Valid {
			m := errorMsg.String
			doc.ErrorMessage = &m
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkForwarding sets the status to forwarding.
func (r *DocumentRepository) MarkForwarding(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, StagedForwarding, nil, nil)
}

// MarkForwarded records the upstream file URL after a successful forward.
func (r *DocumentRepository) MarkForwarded(ctx context.Context, id, upstreamURL string) error {
	return r.updateStatus(ctx, id, StagedForwarded, &upstreamURL, nil)
}

// MarkFailed records the failure message.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id, msg string) error {
	return r.updateStatus(ctx, id, StagedFailed, nil, &msg)
}

func (r *DocumentRepository) updateStatus(ctx context.Context, id string, status StagedStatus, upstreamURL, errorMsg *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE staged_documents
		SET status=$1,
			upstream_url = COALESCE($2, upstream_url),
			error_message = $3,
			updated_at=$4
		WHERE id=$5
	`, status, upstreamURL, errorMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update staged document: %w", err)
	}
	return nil
}
