package extract

import (
	"testing"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
)

func pageOf(text string) []textsource.Page {
	return []textsource.Page{{Number: 1, Text: text}}
}

// Moisture monitoring is the canonical end-to-end case: an instruction
// followed by a limit constraint must come out as one fully decomposed
// critical task.
func TestExtractTasksMoistureMonitoring(t *testing.T) {
	text := "The operator shall check the rice moisture content every 4 hours using a calibrated moisture meter. " +
		"The moisture content must not exceed 14%."

	tasks, _ := AnalyzeAndExtract(pageOf(text), DefaultConfig(), nil)

	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1: %+v", len(tasks), tasks)
	}
	task := tasks[0]
	if task.Actor != "operator" {
		t.Errorf("actor = %q", task.Actor)
	}
	if task.Resolution.Department != document.Milling || task.Resolution.Role != "Operator" {
		t.Errorf("resolved to %s/%s", task.Resolution.Department, task.Resolution.Role)
	}
	if task.Resolution.Tier != TierMapped {
		t.Errorf("tier = %s, want mapped", task.Resolution.Tier)
	}
	if task.Action != "check" {
		t.Errorf("action = %q", task.Action)
	}
	if task.Object != "rice moisture content" {
		t.Errorf("object = %q", task.Object)
	}
	if task.Frequency != "Every 4 hours" {
		t.Errorf("frequency = %q", task.Frequency)
	}
	if task.CriticalLimit != "14% max" {
		t.Errorf("critical limit = %q", task.CriticalLimit)
	}
	if task.ISOClause != ClauseCriticalLimit {
		t.Errorf("clause = %q", task.ISOClause)
	}
	if task.Priority != document.PriorityCritical {
		t.Errorf("priority = %s", task.Priority)
	}
}

func TestExtractTasksStandaloneConstraint(t *testing.T) {
	// A constraint with no preceding instruction still becomes a task.
	text := "The warehouse temperature must not exceed 25°C during storage of milled rice."

	tasks, _ := AnalyzeAndExtract(pageOf(text), DefaultConfig(), nil)

	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].CriticalLimit != "25°C max" {
		t.Errorf("critical limit = %q", tasks[0].CriticalLimit)
	}
}

func TestExtractTasksConstraintDoesNotCrossPages(t *testing.T) {
	pages := []textsource.Page{
		{Number: 1, Text: "The operator shall check the dryer outlet temperature hourly."},
		{Number: 2, Text: "The outlet temperature must not exceed 45°C."},
	}

	tasks := ExtractTasks(pages, DefaultConfig(), nil, nil)

	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (no merge across pages)", len(tasks))
	}
	if tasks[0].CriticalLimit != "" {
		t.Errorf("page 1 task gained a limit: %q", tasks[0].CriticalLimit)
	}
	if tasks[1].CriticalLimit != "45°C max" {
		t.Errorf("page 2 limit = %q", tasks[1].CriticalLimit)
	}
}

func TestExtractTasksMultipleStatements(t *testing.T) {
	text := "The QC inspector must sample every lot before release. " +
		"The store keeper shall record the stock count daily. " +
		"The quality manager shall review supplier performance monthly."

	tasks, _ := AnalyzeAndExtract(pageOf(text), DefaultConfig(), nil)

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if tasks[0].Resolution.Department != document.Quality {
		t.Errorf("task 1 department = %s", tasks[0].Resolution.Department)
	}
	if tasks[1].Resolution.Department != document.Storage {
		t.Errorf("task 2 department = %s", tasks[1].Resolution.Department)
	}
	if tasks[2].Priority != document.PriorityLow {
		t.Errorf("monthly review priority = %s", tasks[2].Priority)
	}
}
