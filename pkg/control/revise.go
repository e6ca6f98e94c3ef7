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

// RevisionKind selects the version bump for a revision.
type RevisionKind string

const (
	RevisionMinor RevisionKind = "minor"
	RevisionMajor RevisionKind = "major"
)

// RevisionResult reports a completed revision.
type RevisionResult struct {
	Document        *document.Document `json:"document"`
	PreviousVersion string             `json:"previous_version"`
	ArchivedPath    string             `json:"archived_path"`

	// ReextractionRequired is true only for major revisions: the version
	// lock on existing tasks is invalidated and the new text must be
	// mined again. Minor revisions never re-run extraction.
	ReextractionRequired bool `json:"reextraction_required"`

	// SupersededTasks is how many tasks of the prior version were
	// disposed of (marked obsolete or deleted, per policy).
	SupersededTasks int `json:"superseded_tasks"`
}

// Revise processes a new source file for a Controlled document.
//
// Minor revisions bump the minor version in place; the previous controlled
// file is archived. Major revisions bump the major version (minor resets),
// create a fresh Controlled record, mark the prior record Obsolete, and
// signal that extraction must re-run. Tasks locked to the superseded
// version are handled per the configured disposal policy.
func (c *Controller) Revise(ctx context.Context, documentID string, kind RevisionKind, sourcePath, approver string) (*RevisionResult, error) {
	if kind != RevisionMinor && kind != RevisionMajor {
		return nil, fmt.Errorf("%w: unknown revision kind %q", document.ErrValidation, string(kind))
	}

	doc, err := c.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.lock(doc.DocID)
	defer unlock()

	doc, err = c.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != document.StatusControlled {
		return nil, fmt.Errorf("%w: revise requires Controlled status, document %s is %s", document.ErrState, doc.DocID, doc.Status)
	}

	current, err := document.ParseVersion(doc.Version)
	if err != nil {
		return nil, err
	}
	var next document.Version
	if kind == RevisionMajor {
		next = current.BumpMajor()
	} else {
		next = current.BumpMinor()
	}

	now := c.now()

	// Retire the current controlled file first; the new file is then
	// processed exactly like an approval.
	archivedPath, err := c.vault.Archive(doc.FilePath, doc.DocID, doc.Version, now)
	if err != nil {
		return nil, err
	}
	controlledPath, err := c.vault.MoveToControlled(sourcePath, doc.DocID, next.String(), doc.Title)
	if err != nil {
		return nil, err
	}
	fileHash, err := vault.HashFile(controlledPath)
	if err != nil {
		return nil, err
	}

	result := &RevisionResult{
		PreviousVersion:      doc.Version,
		ArchivedPath:         archivedPath,
		ReextractionRequired: kind == RevisionMajor,
	}

	if kind == RevisionMajor {
		updated, superseded, err := c.reviseMajor(ctx, doc, next, controlledPath, fileHash, now)
		if err != nil {
			return nil, err
		}
		result.Document = updated
		result.SupersededTasks = superseded
	} else {
		updated, err := c.reviseMinor(ctx, doc, next, controlledPath, fileHash, now)
		if err != nil {
			return nil, err
		}
		result.Document = updated
	}

	if err := c.audit.Record(ctx, audit.Event{
		Action:     audit.ActionRevised,
		DocID:      doc.DocID,
		Actor:      approver,
		OldVersion: result.PreviousVersion,
		NewVersion: next.String(),
		FilePath:   controlledPath,
		Detail:     string(kind) + " revision",
	}); err != nil {
		c.logger.Warn("audit record failed", zap.String("doc_id", doc.DocID), zap.Error(err))
	}

	c.logger.Info("document revised",
		zap.String("doc_id", doc.DocID),
		zap.String("kind", string(kind)),
		zap.String("from", result.PreviousVersion),
		zap.String("to", next.String()))

	return result, nil
}

// reviseMinor updates the Controlled record in place.
func (c *Controller) reviseMinor(ctx context.Context, doc *document.Document, next document.Version, controlledPath, fileHash string, now time.Time) (*document.Document, error) {
	doc.Version = next.String()
	doc.ApprovalDate = &now
	doc.FilePath = controlledPath
	doc.FileHash = fileHash
	doc.SealMetadata(now)

	if err := c.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating revised document %s: %w", doc.DocID, err)
	}
	return doc, nil
}

// reviseMajor creates a new Controlled record at the next major version
// and marks the prior record Obsolete, preserving it for the audit trail.
func (c *Controller) reviseMajor(ctx context.Context, prior *document.Document, next document.Version, controlledPath, fileHash string, now time.Time) (*document.Document, int, error) {
	successor := &document.Document{
		DocID:        prior.DocID,
		Title:        prior.Title,
		Department:   prior.Department,
		Version:      next.String(),
		Status:       document.StatusControlled,
		PreparedBy:   prior.PreparedBy,
		ApprovedBy:   prior.ApprovedBy,
		RecordKeeper: prior.RecordKeeper,
		ApprovalDate: &now,
		FilePath:     controlledPath,
		FileHash:     fileHash,
	}
	successor.SealMetadata(now)

	// Obsolete the prior record first so the register never holds two
	// Controlled rows for the same doc_id.
	prior.Status = document.StatusObsolete
	prior.SealMetadata(now)
	if err := c.store.UpdateDocument(ctx, prior); err != nil {
		return nil, 0, fmt.Errorf("obsoleting prior version of %s: %w", prior.DocID, err)
	}

	if err := c.store.CreateDocument(ctx, successor); err != nil {
		return nil, 0, fmt.Errorf("creating successor record for %s: %w", prior.DocID, err)
	}

	superseded, err := c.disposeTasks(ctx, prior.ID, prior.Version)
	if err != nil {
		c.logger.Warn("task disposal failed",
			zap.String("doc_id", prior.DocID),
			zap.String("version", prior.Version),
			zap.Error(err))
	}

	if err := c.audit.Record(ctx, audit.Event{
		Action:     audit.ActionMarkedObsolete,
		DocID:      prior.DocID,
		Actor:      "System",
		OldVersion: prior.Version,
		Detail:     fmt.Sprintf("superseded by %s", next),
	}); err != nil {
		c.logger.Warn("audit record failed", zap.String("doc_id", prior.DocID), zap.Error(err))
	}

	return successor, superseded, nil
}

func (c *Controller) disposeTasks(ctx context.Context, documentID, version string) (int, error) {
	if c.disposal == DisposalDelete {
		return c.store.DeleteTasksForVersion(ctx, documentID, version)
	}
	return c.store.MarkTasksObsolete(ctx, documentID, version)
}
