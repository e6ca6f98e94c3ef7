// Package document holds the controlled document and compliance task
// models, the version and lifecycle rules, and the error taxonomy shared
// by the control and extraction services.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Document is a controlled record in the master document register.
//
// Two digests protect it independently: FileHash covers the physical file
// content and VersionHash covers the mutable metadata fields, so record
// tampering is detectable even when the file is untouched.
type Document struct {
	ID         string     `json:"id"`
	DocID      string     `json:"doc_id"`
	Title      string     `json:"title"`
	Department Department `json:"department"`
	Version    string     `json:"version"`
	Status     Status     `json:"status"`

	PreparedBy   string     `json:"prepared_by"`
	ApprovedBy   string     `json:"approved_by"`
	RecordKeeper string     `json:"record_keeper"`
	ApprovalDate *time.Time `json:"approval_date,omitempty"`

	FilePath string `json:"file_path,omitempty"`
	FileHash string `json:"file_hash,omitempty"`

	// VersionHash is the digest over the metadata fields, recomputed on
	// every metadata change.
	VersionHash string `json:"version_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeVersionHash digests the mutable metadata fields. The pipe-joined
// field order is part of the stored-hash contract and must not change.
func (d *Document) ComputeVersionHash() string {
	data := strings.Join([]string{
		d.DocID, d.Title, string(d.Department), d.Version, string(d.Status),
		d.PreparedBy, d.ApprovedBy, d.RecordKeeper, d.FileHash,
	}, "|")
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// SealMetadata recomputes and stores the version hash and bumps UpdatedAt.
func (d *Document) SealMetadata(now time.Time) {
	d.VersionHash = d.ComputeVersionHash()
	d.UpdatedAt = now
}

// MissingApprovalFields returns the ownership fields that are empty and
// therefore block approval, in a fixed order.
func (d *Document) MissingApprovalFields() []string {
	var missing []string
	if strings.TrimSpace(d.PreparedBy) == "" {
		missing = append(missing, "prepared_by")
	}
	if strings.TrimSpace(d.ApprovedBy) == "" {
		missing = append(missing, "approved_by")
	}
	if strings.TrimSpace(d.RecordKeeper) == "" {
		missing = append(missing, "record_keeper")
	}
	if strings.TrimSpace(string(d.Department)) == "" {
		missing = append(missing, "department")
	}
	return missing
}

// Validate checks the structural invariants that hold in every lifecycle
// state: a doc ID, a valid department, status, and version format.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.DocID) == "" {
		return fmt.Errorf("%w: doc_id is required", ErrValidation)
	}
	if !d.Department.Valid() {
		return fmt.Errorf("%w: invalid department %q", ErrValidation, string(d.Department))
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, string(d.Status))
	}
	if _, err := ParseVersion(d.Version); err != nil {
		return err
	}
	return nil
}
