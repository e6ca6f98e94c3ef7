package document

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the control and extraction services. Callers
// discriminate with errors.Is; every blocked operation wraps one of these
// with the precise unmet precondition.
var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrState indicates an illegal status transition, such as approving
	// an Obsolete document or extracting from a non-Controlled one.
	ErrState = errors.New("illegal state transition")

	// ErrIntegrity indicates a recomputed hash diverged from the stored
	// value. It is a tamper signal and is never silently corrected.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrNotFound indicates a referenced document or file is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates extraction was skipped because tasks already
	// exist for this document version. It is reported, not fatal.
	ErrDuplicate = errors.New("tasks already exist for this version")

	// ErrNoStatements indicates no mandatory action sentences were found.
	// Extraction returns zero tasks; this is not a failure.
	ErrNoStatements = errors.New("no mandatory statements found")
)

// ValidationError lists exactly the fields that blocked an operation.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing fields: %s", strings.Join(e.Missing, ", "))
}

// Unwrap makes errors.Is(err, ErrValidation) hold for field errors.
func (e *ValidationError) Unwrap() error { return ErrValidation }
