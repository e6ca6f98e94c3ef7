package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// PgStore is a PostgreSQL-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore on an existing connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the documents and tasks tables if they don't exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id            TEXT PRIMARY KEY,
			doc_id        TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			department    TEXT NOT NULL,
			version       TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'Draft',
			prepared_by   TEXT NOT NULL DEFAULT '',
			approved_by   TEXT NOT NULL DEFAULT '',
			record_keeper TEXT NOT NULL DEFAULT '',
			approval_date TIMESTAMPTZ,
			file_path     TEXT NOT NULL DEFAULT '',
			file_hash     TEXT NOT NULL DEFAULT '',
			version_hash  TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ DEFAULT NOW(),
			updated_at    TIMESTAMPTZ DEFAULT NOW(),
			CONSTRAINT valid_department CHECK (department IN ('Milling','Quality','Exports','Packaging','Storage')),
			CONSTRAINT valid_status CHECK (status IN ('Draft','Controlled','Obsolete'))
		)`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id                      TEXT PRIMARY KEY,
			document_id             TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			task_description        TEXT NOT NULL,
			action                  TEXT NOT NULL DEFAULT '',
			object                  TEXT NOT NULL DEFAULT '',
			iso_clause              TEXT NOT NULL CHECK (iso_clause <> ''),
			critical_limit          TEXT NOT NULL DEFAULT '',
			frequency               TEXT NOT NULL DEFAULT '',
			assigned_department     TEXT NOT NULL,
			assigned_role           TEXT NOT NULL DEFAULT '',
			priority                TEXT NOT NULL DEFAULT 'Medium',
			status                  TEXT NOT NULL DEFAULT 'Pending',
			source_document_version TEXT NOT NULL,
			extracted_from_page     INTEGER NOT NULL DEFAULT 0,
			confidence              DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			inferred                BOOLEAN NOT NULL DEFAULT FALSE,
			created_at              TIMESTAMPTZ DEFAULT NOW(),
			CONSTRAINT valid_priority CHECK (priority IN ('Critical','High','Medium','Low'))
		)`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	// Obsolete rows stay behind for the audit trail, so uniqueness only
	// covers rows still in circulation.
	_, err = s.pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_active_doc_id
		ON documents(doc_id) WHERE status <> 'Obsolete'`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_doc_version ON tasks(document_id, source_document_version)`)
	return err
}

const docColumns = `id, doc_id, title, department, version, status, prepared_by, approved_by,
	record_keeper, approval_date, file_path, file_hash, version_hash, created_at, updated_at`

func (s *PgStore) CreateDocument(ctx context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().Truncate(time.Microsecond)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (`+docColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		doc.ID, doc.DocID, doc.Title, doc.Department, doc.Version, doc.Status,
		doc.PreparedBy, doc.ApprovedBy, doc.RecordKeeper, doc.ApprovalDate,
		doc.FilePath, doc.FileHash, doc.VersionHash, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: doc_id %s", ErrAlreadyExists, doc.DocID)
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PgStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+docColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", document.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *PgStore) GetByDocID(ctx context.Context, docID string) (*document.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+docColumns+` FROM documents WHERE doc_id = $1
		ORDER BY (status = 'Controlled') DESC, updated_at DESC LIMIT 1`, docID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: doc_id %s", document.ErrNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document by doc_id %s: %w", docID, err)
	}
	return doc, nil
}

func (s *PgStore) UpdateDocument(ctx context.Context, doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().Truncate(time.Microsecond)

	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET title = $2, department = $3, version = $4, status = $5,
			prepared_by = $6, approved_by = $7, record_keeper = $8, approval_date = $9,
			file_path = $10, file_hash = $11, version_hash = $12, updated_at = $13
		WHERE id = $1`,
		doc.ID, doc.Title, doc.Department, doc.Version, doc.Status,
		doc.PreparedBy, doc.ApprovedBy, doc.RecordKeeper, doc.ApprovalDate,
		doc.FilePath, doc.FileHash, doc.VersionHash, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document %s: %w", doc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %s", document.ErrNotFound, doc.ID)
	}
	return nil
}

func (s *PgStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*document.Document, error) {
	query := `SELECT ` + docColumns + ` FROM documents WHERE 1=1`
	var args []any
	if filter.Department != "" {
		args = append(args, filter.Department)
		query += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DocID != "" {
		args = append(args, filter.DocID)
		query += fmt.Sprintf(" AND doc_id = $%d", len(args))
	}
	query += " ORDER BY doc_id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document rows: %w", err)
	}
	return docs, nil
}

func (s *PgStore) CountDocIDPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE doc_id LIKE $1 || '%'`, prefix).Scan(&n)
	return n, err
}

const taskColumns = `id, document_id, task_description, action, object, iso_clause,
	critical_limit, frequency, assigned_department, assigned_role, priority, status,
	source_document_version, extracted_from_page, confidence, inferred, created_at`

func (s *PgStore) TasksByDocumentVersion(ctx context.Context, documentID, version string) ([]*document.Task, error) {
	return s.ListTasks(ctx, TaskFilter{DocumentID: documentID, SourceVersion: version})
}

// CreateTasksBulk inserts the whole batch inside one transaction so a
// partial failure leaves no subset behind.
func (s *PgStore) CreateTasksBulk(ctx context.Context, tasks []*document.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk create: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().Truncate(time.Microsecond)
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO tasks (`+taskColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			t.ID, t.DocumentID, t.Description, t.Action, t.Object, t.ISOClause,
			t.CriticalLimit, t.Frequency, t.AssignedDepartment, t.AssignedRole,
			t.Priority, t.Status, t.SourceVersion, t.Page, t.Confidence, t.Inferred, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("bulk create task: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*document.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if filter.DocumentID != "" {
		args = append(args, filter.DocumentID)
		query += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	if filter.SourceVersion != "" {
		args = append(args, filter.SourceVersion)
		query += fmt.Sprintf(" AND source_document_version = $%d", len(args))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		query += fmt.Sprintf(" AND assigned_department = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*document.Task
	for rows.Next() {
		var t document.Task
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Description, &t.Action, &t.Object,
			&t.ISOClause, &t.CriticalLimit, &t.Frequency, &t.AssignedDepartment,
			&t.AssignedRole, &t.Priority, &t.Status, &t.SourceVersion, &t.Page,
			&t.Confidence, &t.Inferred, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task rows: %w", err)
	}
	return tasks, nil
}

func (s *PgStore) MarkTasksObsolete(ctx context.Context, documentID, version string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = 'Obsolete'
		WHERE document_id = $1 AND source_document_version = $2`, documentID, version)
	if err != nil {
		return 0, fmt.Errorf("mark tasks obsolete: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStore) DeleteTasksForVersion(ctx context.Context, documentID, version string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM tasks WHERE document_id = $1 AND source_document_version = $2`, documentID, version)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var doc document.Document
	err := row.Scan(&doc.ID, &doc.DocID, &doc.Title, &doc.Department, &doc.Version,
		&doc.Status, &doc.PreparedBy, &doc.ApprovedBy, &doc.RecordKeeper,
		&doc.ApprovalDate, &doc.FilePath, &doc.FileHash, &doc.VersionHash,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

var _ Store = (*PgStore)(nil)
