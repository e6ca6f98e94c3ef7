package control

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

// ApprovalResult reports a completed Draft -> Controlled transition.
type ApprovalResult struct {
	Document        *document.Document `json:"document"`
	PreviousVersion string             `json:"previous_version"`
	FilePath        string             `json:"file_path"`
	FileHash        string             `json:"file_hash"`
	ApprovedAt      time.Time          `json:"approved_at"`
}

// Approve transitions a Draft document to Controlled.
//
// Preconditions: the document is in Draft (Obsolete is terminal), all
// ownership fields are set, the doc_id matches its department pattern,
// and the compliance gate passes. A blocked approval reports the exact
// missing fields via document.ValidationError.
//
// Side effects: the source file is hashed, moved to the controlled area
// under the canonical name, and locked read-only; the record becomes
// Controlled at v1.0 with a fresh metadata hash. The file move and the
// record update succeed or fail as a unit: a failed update rolls the
// move back.
func (c *Controller) Approve(ctx context.Context, documentID, approver string) (*ApprovalResult, error) {
	doc, err := c.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.lock(doc.DocID)
	defer unlock()

	// Re-read under the lock so a concurrent transition is observed.
	doc, err = c.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.Status == document.StatusObsolete {
		return nil, fmt.Errorf("%w: document %s is Obsolete, create a new version instead", document.ErrState, doc.DocID)
	}
	if doc.Status != document.StatusDraft {
		return nil, fmt.Errorf("%w: approve requires Draft status, document %s is %s", document.ErrState, doc.DocID, doc.Status)
	}

	if missing := doc.MissingApprovalFields(); len(missing) > 0 {
		return nil, &document.ValidationError{Missing: missing}
	}
	if err := document.ValidateDocID(doc.DocID, doc.Department); err != nil {
		return nil, err
	}
	if c.compliance != nil {
		if err := c.compliance.Check(ctx, doc); err != nil {
			return nil, fmt.Errorf("compliance check failed for %s: %w", doc.DocID, err)
		}
	}

	previousVersion := doc.Version
	newVersion := document.FirstControlled().String()
	sourcePath := doc.FilePath

	controlledPath, err := c.vault.MoveToControlled(sourcePath, doc.DocID, newVersion, doc.Title)
	if err != nil {
		return nil, err
	}
	fileHash, err := vault.HashFile(controlledPath)
	if err != nil {
		return nil, err
	}

	now := c.now()
	doc.Status = document.StatusControlled
	doc.Version = newVersion
	doc.ApprovalDate = &now
	doc.FilePath = controlledPath
	doc.FileHash = fileHash
	doc.SealMetadata(now)

	if err := c.store.UpdateDocument(ctx, doc); err != nil {
		// The file already moved; undo it so the unit stays atomic.
		if rbErr := c.vault.Rollback(controlledPath, sourcePath); rbErr != nil {
			c.logger.Error("rollback after failed approval update",
				zap.String("doc_id", doc.DocID), zap.Error(rbErr))
			return nil, fmt.Errorf("approval update failed (%v) and rollback failed: %w", err, rbErr)
		}
		return nil, fmt.Errorf("updating approved document %s: %w", doc.DocID, err)
	}

	if err := c.audit.Record(ctx, audit.Event{
		Action:     audit.ActionApproved,
		DocID:      doc.DocID,
		Actor:      approver,
		OldVersion: previousVersion,
		NewVersion: newVersion,
		FilePath:   controlledPath,
	}); err != nil {
		c.logger.Warn("audit record failed", zap.String("doc_id", doc.DocID), zap.Error(err))
	}

	c.logger.Info("document approved",
		zap.String("doc_id", doc.DocID),
		zap.String("version", newVersion),
		zap.String("approver", approver))

	return &ApprovalResult{
		Document:        doc,
		PreviousVersion: previousVersion,
		FilePath:        controlledPath,
		FileHash:        fileHash,
		ApprovedAt:      now,
	}, nil
}
