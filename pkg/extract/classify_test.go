package extract

import (
	"testing"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

func TestClassifyClause(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		sentence string
		hasLimit bool
		hasFreq  bool
		want     string
	}{
		{"hazard control", "the operator shall prevent contamination of milled rice", false, false, ClauseHazardControl},
		{"monitoring needs frequency", "the inspector shall check the moisture reading", false, true, ClauseMonitoring},
		{"monitoring without frequency falls through", "the inspector shall check the moisture reading", false, false, ClauseHazardControl},
		{"critical limit needs limit", "the moisture must not exceed the threshold", true, false, ClauseCriticalLimit},
		{"records", "the operator shall fill the intake register", false, false, ClauseRecords},
		{"calibration", "the technician shall calibrate the moisture meter", false, false, ClauseCalibration},
		{"review", "the quality manager shall review supplier performance", false, false, ClauseReview},
		{"default with limit", "keep it under the posted value", true, false, ClauseCriticalLimit},
		{"default with frequency", "do the thing on schedule", false, true, ClauseMonitoring},
		{"plain default", "do the thing", false, false, ClauseHazardControl},
	}
	for _, tt := range tests {
		got := ClassifyClause(tt.sentence, tt.hasLimit, tt.hasFreq, cfg)
		if got != tt.want {
			t.Errorf("%s: ClassifyClause = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyClauseLimitTieBreak(t *testing.T) {
	cfg := DefaultConfig()

	// Both the hazard-control and critical-limit keyword sets match; the
	// extracted limit decides in favor of the critical-limit clause.
	sentence := "the operator shall control the dryer so the grain does not exceed 45°C"
	if got := ClassifyClause(sentence, true, false, cfg); got != ClauseCriticalLimit {
		t.Errorf("ClassifyClause = %q, want %q", got, ClauseCriticalLimit)
	}
	// Without a limit the ordinary table order applies.
	if got := ClassifyClause(sentence, false, false, cfg); got != ClauseHazardControl {
		t.Errorf("ClassifyClause = %q, want %q", got, ClauseHazardControl)
	}
}

func TestClassifyPriority(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		sentence string
		clause   string
		hasLimit bool
		want     document.Priority
	}{
		{"limit on critical-limit clause", "moisture must not exceed 14%", ClauseCriticalLimit, true, document.PriorityCritical},
		{"halt language", "the supervisor shall halt the line on a metal detect", ClauseCorrective, false, document.PriorityCritical},
		{"hazard control clause", "the operator shall prevent cross contamination", ClauseHazardControl, false, document.PriorityHigh},
		{"sub-daily cadence", "the inspector shall sample every shift", ClauseMonitoring, false, document.PriorityHigh},
		{"monthly review", "the manager shall review records monthly", ClauseReview, false, document.PriorityLow},
		{"plain shall defaults to medium", "the clerk shall file the certificate", ClauseRecords, false, document.PriorityMedium},
	}
	for _, tt := range tests {
		got := ClassifyPriority(tt.sentence, tt.clause, tt.hasLimit, cfg)
		if got != tt.want {
			t.Errorf("%s: ClassifyPriority = %q, want %q", tt.name, got, tt.want)
		}
	}
}
