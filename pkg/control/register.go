package control

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
)

// DraftRequest carries the inputs for registering a new Draft document.
type DraftRequest struct {
	Title        string              `json:"title"`
	Department   document.Department `json:"department"`
	DocType      document.DocType    `json:"doc_type"`
	PreparedBy   string              `json:"prepared_by"`
	ApprovedBy   string              `json:"approved_by"`
	RecordKeeper string              `json:"record_keeper"`
	FilePath     string              `json:"file_path"`
}

// RegisterDraft creates a new Draft at v0.1 with a generated doc_id.
func (c *Controller) RegisterDraft(ctx context.Context, req DraftRequest) (*document.Document, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", document.ErrValidation)
	}
	if !req.Department.Valid() {
		return nil, fmt.Errorf("%w: unknown department %q", document.ErrValidation, string(req.Department))
	}
	if !req.DocType.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", document.ErrValidation, string(req.DocType))
	}

	code, err := req.Department.Code()
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%s-%s-", code, req.DocType)
	existing, err := c.store.CountDocIDPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("counting %s documents: %w", prefix, err)
	}
	docID, err := document.NextDocID(req.Department, req.DocType, existing)
	if err != nil {
		return nil, err
	}

	now := c.now()
	doc := &document.Document{
		DocID:        docID,
		Title:        req.Title,
		Department:   req.Department,
		Version:      "v0.1",
		Status:       document.StatusDraft,
		PreparedBy:   req.PreparedBy,
		ApprovedBy:   req.ApprovedBy,
		RecordKeeper: req.RecordKeeper,
		FilePath:     req.FilePath,
	}
	doc.SealMetadata(now)

	if err := c.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := c.audit.Record(ctx, audit.Event{
		Action:     audit.ActionDraftCreated,
		DocID:      doc.DocID,
		Actor:      req.PreparedBy,
		NewVersion: doc.Version,
		FilePath:   req.FilePath,
	}); err != nil {
		c.logger.Warn("audit record failed", zap.String("doc_id", doc.DocID), zap.Error(err))
	}

	c.logger.Info("draft registered",
		zap.String("doc_id", doc.DocID),
		zap.String("department", string(doc.Department)))
	return doc, nil
}

// RegisterConflict is a doc_id holding more than one Controlled record,
// a state the register must never reach.
type RegisterConflict struct {
	DocID     string               `json:"doc_id"`
	Documents []*document.Document `json:"documents"`
}

// CheckRegister scans for doc_ids with more than one Controlled record.
// A clean register returns an empty slice.
func (c *Controller) CheckRegister(ctx context.Context) ([]RegisterConflict, error) {
	docs, err := c.store.ListDocuments(ctx, store.DocumentFilter{Status: document.StatusControlled})
	if err != nil {
		return nil, fmt.Errorf("listing controlled documents: %w", err)
	}

	byDocID := make(map[string][]*document.Document)
	for _, doc := range docs {
		byDocID[doc.DocID] = append(byDocID[doc.DocID], doc)
	}

	var conflicts []RegisterConflict
	for docID, group := range byDocID {
		if len(group) < 2 {
			continue
		}
		conflicts = append(conflicts, RegisterConflict{DocID: docID, Documents: group})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].DocID < conflicts[j].DocID })
	return conflicts, nil
}

// RepairRegister restores the one-Controlled-per-doc_id invariant. For
// each conflicting doc_id the record with the highest version stays
// Controlled and the rest are marked Obsolete. Idempotent: a clean
// register repairs to zero changes.
func (c *Controller) RepairRegister(ctx context.Context, actor string) (int, error) {
	conflicts, err := c.CheckRegister(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, conflict := range conflicts {
		unlock := c.locks.lock(conflict.DocID)

		keep, losers := splitByVersion(conflict.Documents)
		for _, doc := range losers {
			doc.Status = document.StatusObsolete
			doc.SealMetadata(c.now())
			if err := c.store.UpdateDocument(ctx, doc); err != nil {
				unlock()
				return repaired, fmt.Errorf("obsoleting duplicate %s %s: %w", doc.DocID, doc.Version, err)
			}
			repaired++

			if err := c.audit.Record(ctx, audit.Event{
				Action:     audit.ActionRegisterRepair,
				DocID:      doc.DocID,
				Actor:      actor,
				OldVersion: doc.Version,
				Detail:     fmt.Sprintf("duplicate Controlled record obsoleted, %s retained", keep.Version),
			}); err != nil {
				c.logger.Warn("audit record failed", zap.String("doc_id", doc.DocID), zap.Error(err))
			}
		}
		unlock()

		c.logger.Warn("register conflict repaired",
			zap.String("doc_id", conflict.DocID),
			zap.String("kept", keep.Version),
			zap.Int("obsoleted", len(losers)))
	}
	return repaired, nil
}

// splitByVersion picks the record to keep from a conflicting group: the
// highest parseable version wins, with latest update as the tiebreak.
func splitByVersion(group []*document.Document) (*document.Document, []*document.Document) {
	keep := group[0]
	for _, doc := range group[1:] {
		kv, kerr := document.ParseVersion(keep.Version)
		dv, derr := document.ParseVersion(doc.Version)
		switch {
		case kerr != nil && derr == nil:
			keep = doc
		case kerr == nil && derr == nil && dv.Newer(kv):
			keep = doc
		case kerr == nil && derr == nil && kv == dv && doc.UpdatedAt.After(keep.UpdatedAt):
			keep = doc
		}
	}
	var losers []*document.Document
	for _, doc := range group {
		if doc.ID != keep.ID {
			losers = append(losers, doc)
		}
	}
	return keep, losers
}

// IntegrityReport names what diverged during verification, if anything.
type IntegrityReport struct {
	DocID        string `json:"doc_id"`
	Version      string `json:"version"`
	FileOK       bool   `json:"file_ok"`
	MetadataOK   bool   `json:"metadata_ok"`
	StoredHash   string `json:"stored_hash,omitempty"`
	ComputedHash string `json:"computed_hash,omitempty"`
}

// VerifyIntegrity checks a Controlled document for tampering: the
// controlled file against its recorded content hash, and the register
// metadata against its sealed version hash. The report says which
// check failed; the returned error wraps document.ErrIntegrity when
// either one does.
func (c *Controller) VerifyIntegrity(ctx context.Context, docID string) (*IntegrityReport, error) {
	doc, err := c.store.GetByDocID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != document.StatusControlled {
		return nil, fmt.Errorf("%w: integrity verification requires Controlled status, document %s is %s", document.ErrState, doc.DocID, doc.Status)
	}

	report := &IntegrityReport{
		DocID:      doc.DocID,
		Version:    doc.Version,
		FileOK:     true,
		MetadataOK: true,
		StoredHash: doc.VersionHash,
	}

	if err := c.vault.Verify(doc.FilePath, doc.FileHash); err != nil {
		if !errors.Is(err, document.ErrIntegrity) {
			return nil, err
		}
		report.FileOK = false
	}

	report.ComputedHash = doc.ComputeVersionHash()
	if report.ComputedHash != doc.VersionHash {
		report.MetadataOK = false
	}

	if !report.FileOK || !report.MetadataOK {
		c.logger.Error("integrity check failed",
			zap.String("doc_id", doc.DocID),
			zap.Bool("file_ok", report.FileOK),
			zap.Bool("metadata_ok", report.MetadataOK))
		return report, fmt.Errorf("%w: document %s failed verification (file_ok=%t metadata_ok=%t)",
			document.ErrIntegrity, doc.DocID, report.FileOK, report.MetadataOK)
	}
	return report, nil
}
