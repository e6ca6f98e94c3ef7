package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// Memory is a mutex-guarded in-memory Store. It backs the test suites and
// standalone deployments without a database.
type Memory struct {
	mu    sync.RWMutex
	docs  map[string]*document.Document // keyed by ID
	tasks map[string]*document.Task     // keyed by ID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]*document.Document),
		tasks: make(map[string]*document.Task),
	}
}

func (m *Memory) CreateDocument(ctx context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Obsolete rows stay behind for the audit trail; uniqueness only
	// applies among rows still in circulation, same as the partial
	// index in the PostgreSQL schema.
	if doc.Status != document.StatusObsolete {
		for _, existing := range m.docs {
			if existing.DocID == doc.DocID && existing.Status != document.StatusObsolete {
				return fmt.Errorf("%w: doc_id %s", ErrAlreadyExists, doc.DocID)
			}
		}
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (m *Memory) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", document.ErrNotFound, id)
	}
	return cloneDoc(doc), nil
}

func (m *Memory) GetByDocID(ctx context.Context, docID string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Prefer the Controlled row when several versions share a doc_id.
	var found *document.Document
	for _, doc := range m.docs {
		if doc.DocID != docID {
			continue
		}
		if doc.Status == document.StatusControlled {
			return cloneDoc(doc), nil
		}
		if found == nil || doc.UpdatedAt.After(found.UpdatedAt) {
			found = doc
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: doc_id %s", document.ErrNotFound, docID)
	}
	return cloneDoc(found), nil
}

func (m *Memory) UpdateDocument(ctx context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; !ok {
		return fmt.Errorf("%w: document %s", document.ErrNotFound, doc.ID)
	}
	doc.UpdatedAt = time.Now()
	m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (m *Memory) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*document.Document
	for _, doc := range m.docs {
		if filter.Department != "" && doc.Department != filter.Department {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.DocID != "" && doc.DocID != filter.DocID {
			continue
		}
		out = append(out, cloneDoc(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}

func (m *Memory) CountDocIDPrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, doc := range m.docs {
		if strings.HasPrefix(doc.DocID, prefix) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) TasksByDocumentVersion(ctx context.Context, documentID, version string) ([]*document.Task, error) {
	return m.ListTasks(ctx, TaskFilter{DocumentID: documentID, SourceVersion: version})
}

func (m *Memory) CreateTasksBulk(ctx context.Context, tasks []*document.Task) error {
	// Validate everything up front so the batch is all-or-nothing.
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		clone := *t
		m.tasks[t.ID] = &clone
	}
	return nil
}

func (m *Memory) ListTasks(ctx context.Context, filter TaskFilter) ([]*document.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*document.Task
	for _, t := range m.tasks {
		if filter.DocumentID != "" && t.DocumentID != filter.DocumentID {
			continue
		}
		if filter.SourceVersion != "" && t.SourceVersion != filter.SourceVersion {
			continue
		}
		if filter.Department != "" && t.AssignedDepartment != filter.Department {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkTasksObsolete(ctx context.Context, documentID, version string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if t.DocumentID == documentID && t.SourceVersion == version {
			t.Status = document.TaskObsolete
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteTasksForVersion(ctx context.Context, documentID, version string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, t := range m.tasks {
		if t.DocumentID == documentID && t.SourceVersion == version {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

func cloneDoc(doc *document.Document) *document.Document {
	clone := *doc
	if doc.ApprovalDate != nil {
		date := *doc.ApprovalDate
		clone.ApprovalDate = &date
	}
	return &clone
}

var _ Store = (*Memory)(nil)
