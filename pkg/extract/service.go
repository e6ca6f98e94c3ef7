package extract

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
)

// Mode selects what the orchestrator does with the pipeline output.
type Mode string

const (
	// ModeCommit runs the pipeline and persists the tasks.
	ModeCommit Mode = "commit"
	// ModePreview runs the pipeline and returns the would-be result
	// without persisting anything.
	ModePreview Mode = "preview"
	// ModeAutoMap merges suggested mappings for unmapped actors into a
	// working copy of the config, re-runs the pipeline, then persists.
	ModeAutoMap Mode = "auto_map"
)

// Result summarizes one extraction run.
type Result struct {
	DocID      string `json:"doc_id"`
	DocumentID string `json:"document_id"`
	Version    string `json:"version"`
	Mode       Mode   `json:"mode"`

	// Skipped is set when tasks already exist for this document version
	// and the run was a no-op.
	Skipped       bool `json:"skipped"`
	ExistingCount int  `json:"existing_count,omitempty"`

	TotalTasks    int                         `json:"total_tasks"`
	Tasks         []ExtractedTask             `json:"tasks,omitempty"`
	ByDepartment  map[document.Department]int `json:"tasks_by_department,omitempty"`
	ByPriority    map[document.Priority]int   `json:"tasks_by_priority,omitempty"`
	MappedCount   int                         `json:"mapped_count"`
	InferredCount int                         `json:"inferred_count"`

	Context           Context               `json:"context"`
	UnmappedActors    []string              `json:"unmapped_actors,omitempty"`
	SuggestedMappings map[string]Assignment `json:"suggested_mappings,omitempty"`

	Message string `json:"message"`
}

// Service is the extraction orchestrator. It gates runs on document
// state, guarantees idempotence per (document, version), and persists
// task batches atomically.
type Service struct {
	store   store.Store
	source  textsource.Source
	audit   audit.Sink
	matcher Matcher
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMatcher swaps the actor matching strategy.
func WithMatcher(m Matcher) ServiceOption {
	return func(s *Service) { s.matcher = m }
}

// NewService creates the orchestrator.
func NewService(st store.Store, source textsource.Source, sink audit.Sink, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	if source == nil {
		source = textsource.PlainText{}
	}
	s := &Service{
		store:   st,
		source:  source,
		audit:   sink,
		matcher: SubstringMatcher{},
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockVersion serializes the duplicate check-then-create sequence per
// (document, version) so concurrent requests cannot double-extract.
func (s *Service) lockVersion(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Extract runs the pipeline for a controlled document identified by its
// register doc_id.
//
// Preconditions: the document is Controlled; extraction against a Draft
// or Obsolete document fails with a state error. If tasks already exist
// for the document's current version the call is a no-op reporting the
// existing count, wrapped in document.ErrDuplicate so callers can treat
// it as the non-fatal skip it is. A document with no mandatory-action
// statements yields a zero-task result wrapped in
// document.ErrNoStatements, also non-fatal.
func (s *Service) Extract(ctx context.Context, docID string, mode Mode, cfg Config) (*Result, error) {
	switch mode {
	case ModeCommit, ModePreview, ModeAutoMap:
	default:
		return nil, fmt.Errorf("%w: unknown extraction mode %q", document.ErrValidation, string(mode))
	}

	doc, err := s.store.GetByDocID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != document.StatusControlled {
		return nil, fmt.Errorf("%w: extraction requires Controlled status, document %s is %s",
			document.ErrState, doc.DocID, doc.Status)
	}

	unlock := s.lockVersion(doc.ID + "|" + doc.Version)
	defer unlock()

	result := &Result{
		DocID:      doc.DocID,
		DocumentID: doc.ID,
		Version:    doc.Version,
		Mode:       mode,
	}

	if mode != ModePreview {
		existing, err := s.store.TasksByDocumentVersion(ctx, doc.ID, doc.Version)
		if err != nil {
			return nil, fmt.Errorf("querying existing tasks for %s %s: %w", doc.DocID, doc.Version, err)
		}
		if len(existing) > 0 {
			result.Skipped = true
			result.ExistingCount = len(existing)
			result.TotalTasks = len(existing)
			result.Message = fmt.Sprintf("tasks already extracted for %s %s (%d tasks exist)",
				doc.DocID, doc.Version, len(existing))
			s.logger.Info("extraction skipped",
				zap.String("doc_id", doc.DocID),
				zap.String("version", doc.Version),
				zap.Int("existing", len(existing)))
			return result, fmt.Errorf("%w: %s", document.ErrDuplicate, result.Message)
		}
	}

	pages, err := s.source.Extract(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", doc.FilePath, err)
	}

	tasks, docCtx := AnalyzeAndExtract(pages, cfg, s.matcher)
	suggestions := SuggestMappings(docCtx)

	if mode == ModeAutoMap && len(docCtx.UnmappedActors) > 0 {
		merged := cfg.WithActorMappings(suggestions)
		tasks = ExtractTasks(pages, merged, &docCtx, s.matcher)
	}

	result.Context = docCtx
	result.UnmappedActors = docCtx.UnmappedActors
	result.SuggestedMappings = suggestions
	result.Tasks = tasks
	s.summarize(result, tasks)

	if len(tasks) == 0 {
		result.Message = fmt.Sprintf("no mandatory action statements found in %s %s", doc.DocID, doc.Version)
		return result, fmt.Errorf("%w: %s", document.ErrNoStatements, result.Message)
	}

	if mode == ModePreview {
		result.Message = fmt.Sprintf("preview: %d tasks would be created for %s %s",
			len(tasks), doc.DocID, doc.Version)
		return result, nil
	}

	records := make([]*document.Task, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, &document.Task{
			DocumentID:         doc.ID,
			Description:        t.Sentence,
			Action:             t.Action,
			Object:             t.Object,
			ISOClause:          t.ISOClause,
			CriticalLimit:      t.CriticalLimit,
			Frequency:          t.Frequency,
			AssignedDepartment: t.Resolution.Department,
			AssignedRole:       t.Resolution.Role,
			Priority:           t.Priority,
			Status:             document.TaskPending,
			SourceVersion:      doc.Version,
			Page:               t.Page,
			Confidence:         t.Resolution.Tier.Confidence(),
			Inferred:           t.Resolution.Tier.Inferred(),
		})
	}
	if err := s.store.CreateTasksBulk(ctx, records); err != nil {
		return nil, fmt.Errorf("persisting %d tasks for %s %s: %w", len(records), doc.DocID, doc.Version, err)
	}

	if err := s.audit.Record(ctx, audit.Event{
		Action:     audit.ActionTasksExtracted,
		DocID:      doc.DocID,
		Actor:      "System",
		NewVersion: doc.Version,
		FilePath:   doc.FilePath,
		Detail:     fmt.Sprintf("%d tasks created (%d inferred)", len(records), result.InferredCount),
	}); err != nil {
		s.logger.Warn("audit record failed", zap.String("doc_id", doc.DocID), zap.Error(err))
	}

	result.Message = fmt.Sprintf("extracted %d tasks from %s %s", len(records), doc.DocID, doc.Version)
	if result.InferredCount > 0 {
		result.Message += fmt.Sprintf(" (%d with inferred mappings)", result.InferredCount)
	}
	s.logger.Info("tasks extracted",
		zap.String("doc_id", doc.DocID),
		zap.String("version", doc.Version),
		zap.String("mode", string(mode)),
		zap.Int("tasks", len(records)),
		zap.Int("inferred", result.InferredCount))
	return result, nil
}

func (s *Service) summarize(result *Result, tasks []ExtractedTask) {
	result.TotalTasks = len(tasks)
	result.ByDepartment = make(map[document.Department]int)
	result.ByPriority = make(map[document.Priority]int)
	for _, t := range tasks {
		result.ByDepartment[t.Resolution.Department]++
		result.ByPriority[t.Priority]++
		if t.Resolution.Tier.Inferred() {
			result.InferredCount++
		} else {
			result.MappedCount++
		}
	}
}
