// Package store defines the persistence collaborator for documents and
// tasks, with an in-memory implementation for tests and standalone use
// and a PostgreSQL implementation for deployments.
package store

import (
	"context"
	"errors"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// ErrAlreadyExists indicates a uniqueness violation, such as registering
// a doc_id twice.
var ErrAlreadyExists = errors.New("record already exists")

// DocumentFilter narrows document queries. Zero-valued fields match all.
type DocumentFilter struct {
	Department document.Department
	Status     document.Status
	DocID      string
}

// TaskFilter narrows task queries. Zero-valued fields match all.
type TaskFilter struct {
	DocumentID    string
	SourceVersion string
	Department    document.Department
	Priority      document.Priority
	Status        document.TaskStatus
}

// DocumentStore is the document side of the persistence collaborator.
// Implementations enforce doc_id uniqueness.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *document.Document) error
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	GetByDocID(ctx context.Context, docID string) (*document.Document, error)
	UpdateDocument(ctx context.Context, doc *document.Document) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*document.Document, error)

	// CountDocIDPrefix counts registered doc_ids with the given prefix,
	// used for sequential ID generation.
	CountDocIDPrefix(ctx context.Context, prefix string) (int, error)
}

// TaskStore is the task side of the persistence collaborator.
type TaskStore interface {
	// TasksByDocumentVersion serves the duplicate-prevention query keyed
	// by (document_id, source_document_version).
	TasksByDocumentVersion(ctx context.Context, documentID, version string) ([]*document.Task, error)

	// CreateTasksBulk persists all tasks or none of them.
	CreateTasksBulk(ctx context.Context, tasks []*document.Task) error

	ListTasks(ctx context.Context, filter TaskFilter) ([]*document.Task, error)

	// MarkTasksObsolete flags every task locked to the given version and
	// returns how many were flagged.
	MarkTasksObsolete(ctx context.Context, documentID, version string) (int, error)

	// DeleteTasksForVersion removes every task locked to the given
	// version and returns how many were removed.
	DeleteTasksForVersion(ctx context.Context, documentID, version string) (int, error)
}

// Store combines both sides of the persistence collaborator.
type Store interface {
	DocumentStore
	TaskStore
}
