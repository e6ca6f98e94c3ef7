package document

import (
	"fmt"
	"regexp"
)

// docIDPattern matches generated document IDs: {DEPT}-{TYPE}-{NNN},
// e.g. MILL-SOP-001 or QAL-REC-002.
var docIDPattern = regexp.MustCompile(`^([A-Z]+)-([A-Z]+)-(\d{3})$`)

// ValidateDocID checks that docID matches the register pattern and that
// its department prefix agrees with dept.
func ValidateDocID(docID string, dept Department) error {
	if docID == "" {
		return fmt.Errorf("%w: doc_id is required", ErrValidation)
	}
	expected, err := dept.Code()
	if err != nil {
		return err
	}
	m := docIDPattern.FindStringSubmatch(docID)
	if m == nil {
		return fmt.Errorf("%w: invalid doc_id format %q, expected %s-TYPE-NNN", ErrValidation, docID, expected)
	}
	if m[1] != expected {
		return fmt.Errorf("%w: doc_id department code %s does not match %s (%s)", ErrValidation, m[1], expected, dept)
	}
	if !DocType(m[2]).Valid() {
		return fmt.Errorf("%w: invalid document type code %s in doc_id", ErrValidation, m[2])
	}
	return nil
}

// NextDocID builds the next sequential ID for a department and type given
// the count of existing IDs with the same prefix.
func NextDocID(dept Department, docType DocType, existing int) (string, error) {
	code, err := dept.Code()
	if err != nil {
		return "", err
	}
	if !docType.Valid() {
		return "", fmt.Errorf("%w: invalid doc_type %q", ErrValidation, string(docType))
	}
	return fmt.Sprintf("%s-%s-%03d", code, docType, existing+1), nil
}
