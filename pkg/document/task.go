package document

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task by food-safety impact.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists all priorities from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskStatus tracks operational completion of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "Pending"
	TaskCompleted TaskStatus = "Completed"
	TaskOverdue   TaskStatus = "Overdue"
	// TaskObsolete marks tasks whose source document advanced to a new
	// major version, when the disposal policy retains them.
	TaskObsolete TaskStatus = "Obsolete"
)

// Confidence tiers for the actor resolution that produced a task.
const (
	ConfidenceMapped   = 1.0
	ConfidenceInferred = 0.7
	ConfidenceFallback = 0.5
)

// Task is a structured compliance obligation mined from one mandatory
// sentence of a controlled document.
type Task struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`

	// Description is the full source sentence for traceability.
	Description string `json:"task_description"`
	Action      string `json:"action,omitempty"`
	Object      string `json:"object,omitempty"`

	// ISOClause is required and non-empty; a task without a compliance
	// reference is meaningless.
	ISOClause string `json:"iso_clause"`

	CriticalLimit string `json:"critical_limit,omitempty"`
	Frequency     string `json:"frequency,omitempty"`

	AssignedDepartment Department `json:"assigned_department"`
	AssignedRole       string     `json:"assigned_role,omitempty"`

	Priority Priority   `json:"priority"`
	Status   TaskStatus `json:"status"`

	// SourceVersion locks the task to the document text that produced it.
	SourceVersion string `json:"source_document_version"`
	Page          int    `json:"extracted_from_page,omitempty"`

	// Confidence and Inferred record whether the actor resolution came
	// from the configured table or was guessed.
	Confidence float64 `json:"confidence"`
	Inferred   bool    `json:"inferred"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the hard task constraints before persistence.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.DocumentID) == "" {
		return fmt.Errorf("%w: document_id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: task_description is required", ErrValidation)
	}
	if strings.TrimSpace(t.ISOClause) == "" {
		return fmt.Errorf("%w: iso_clause is required", ErrValidation)
	}
	if !t.AssignedDepartment.Valid() {
		return fmt.Errorf("%w: invalid assigned_department %q", ErrValidation, string(t.AssignedDepartment))
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, string(t.Priority))
	}
	if strings.TrimSpace(t.SourceVersion) == "" {
		return fmt.Errorf("%w: source_document_version is required", ErrValidation)
	}
	return nil
}
