package document

import "fmt"

// Department is the closed set of rice mill departments that may own
// documents and tasks.
type Department string

const (
	Milling   Department = "Milling"
	Quality   Department = "Quality"
	Exports   Department = "Exports"
	Packaging Department = "Packaging"
	Storage   Department = "Storage"
)

// Departments lists all valid departments in registry order.
func Departments() []Department {
	return []Department{Milling, Quality, Exports, Packaging, Storage}
}

// departmentCodes maps departments to the prefix used in generated doc IDs.
var departmentCodes = map[Department]string{
	Milling:   "MILL",
	Quality:   "QAL",
	Exports:   "EXP",
	Packaging: "PKG",
	Storage:   "STR",
}

// Valid reports whether d is one of the registered departments.
func (d Department) Valid() bool {
	_, ok := departmentCodes[d]
	return ok
}

// Code returns the doc-id prefix for the department.
func (d Department) Code() (string, error) {
	code, ok := departmentCodes[d]
	if !ok {
		return "", fmt.Errorf("%w: unknown department %q", ErrValidation, string(d))
	}
	return code, nil
}

// DocType classifies the documents the register controls.
type DocType string

const (
	TypeSOP         DocType = "SOP"  // Standard Operating Procedure
	TypePolicy      DocType = "POL"  // Policy
	TypeRecord      DocType = "REC"  // Record / Form
	TypeProcessFlow DocType = "PF"   // Process Flow
	TypeWorkInstr   DocType = "WI"   // Work Instruction
	TypeSpec        DocType = "SPEC" // Specification
	TypePlan        DocType = "PLAN" // Plan (HACCP, Food Safety)
	TypeManual      DocType = "MAN"  // Manual
)

var docTypes = map[DocType]struct{}{
	TypeSOP: {}, TypePolicy: {}, TypeRecord: {}, TypeProcessFlow: {},
	TypeWorkInstr: {}, TypeSpec: {}, TypePlan: {}, TypeManual: {},
}

// Valid reports whether t is a registered document type code.
func (t DocType) Valid() bool {
	_, ok := docTypes[t]
	return ok
}
