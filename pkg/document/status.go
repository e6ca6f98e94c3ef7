package document

import "fmt"

// Status is the document lifecycle state. Transitions are one-way:
// Draft -> Controlled -> Obsolete. A correction requires a new version,
// never a status rollback.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusControlled Status = "Controlled"
	StatusObsolete   Status = "Obsolete"
)

// statusTransitions encodes the monotonic lifecycle. Obsolete is terminal.
var statusTransitions = map[Status][]Status{
	StatusDraft:      {StatusControlled},
	StatusControlled: {StatusObsolete},
	StatusObsolete:   {},
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is legal, or a state error naming
// both states otherwise.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrState, s, next)
	}
	return next, nil
}
