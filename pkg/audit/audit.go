// Package audit emits append-only records of document state transitions.
// The core produces structured events; formatting and long-term storage
// belong to the deployment.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actions recorded on the audit trail.
const (
	ActionApproved       = "APPROVED"
	ActionRevised        = "REVISED"
	ActionMarkedObsolete = "MARKED_OBSOLETE"
	ActionRegisterRepair = "REGISTER_REPAIR"
	ActionDraftCreated   = "DRAFT_CREATED"
	ActionTasksExtracted = "TASKS_EXTRACTED"
)

// Event is one state transition on a controlled document.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	DocID      string    `json:"doc_id"`
	Actor      string    `json:"actor"`
	OldVersion string    `json:"old_version,omitempty"`
	NewVersion string    `json:"new_version,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink receives audit events. Implementations must be append-only.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// FileSink appends events as JSON lines to a single file.
type FileSink struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileSink creates a JSON-lines sink at path.
func NewFileSink(path string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{path: path, logger: logger}
}

// Record appends one event. Missing IDs and timestamps are filled in.
func (s *FileSink) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}

	s.logger.Debug("audit event recorded",
		zap.String("action", event.Action),
		zap.String("doc_id", event.DocID))
	return nil
}

// NopSink discards all events. Used in tests.
type NopSink struct{}

func (NopSink) Record(ctx context.Context, event Event) error { return nil }

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = NopSink{}
)
