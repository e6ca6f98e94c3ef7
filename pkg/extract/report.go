package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// Report renders an extraction result for operators: totals, department
// and priority breakdowns, and suggested mappings for unmapped actors.
func Report(result *Result) string {
	var b strings.Builder

	if result.Skipped {
		fmt.Fprintf(&b, "Extraction skipped\n\nDocument: %s %s\n%s\n", result.DocID, result.Version, result.Message)
		return b.String()
	}

	if result.TotalTasks == 0 {
		fmt.Fprintf(&b, "No tasks extracted\n\nDocument: %s %s\nReason: %s\n", result.DocID, result.Version, result.Message)
		if len(result.Context.UniqueActors) > 0 {
			fmt.Fprintf(&b, "\nActors found in document: %s\n", strings.Join(result.Context.UniqueActors, ", "))
		}
		writeSuggestions(&b, result.SuggestedMappings)
		return b.String()
	}

	fmt.Fprintf(&b, "Extracted %d tasks from %s %s\n\n", result.TotalTasks, result.DocID, result.Version)

	b.WriteString("Tasks by Department:\n")
	for _, dept := range document.Departments() {
		if count := result.ByDepartment[dept]; count > 0 {
			fmt.Fprintf(&b, "- %s: %d tasks\n", dept, count)
		}
	}

	b.WriteString("\nPriority Breakdown:\n")
	for _, priority := range document.Priorities() {
		if count := result.ByPriority[priority]; count > 0 {
			fmt.Fprintf(&b, "- %s: %d tasks\n", priority, count)
		}
	}

	fmt.Fprintf(&b, "\nMapped: %d, Inferred: %d\n", result.MappedCount, result.InferredCount)
	writeSuggestions(&b, result.SuggestedMappings)
	return b.String()
}

// Preview renders the full per-task listing used before committing.
func Preview(result *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Extraction Preview: %s %s\n\n", result.DocID, result.Version)
	fmt.Fprintf(&b, "Document Context:\n- Type: %s\n- Primary Department: %s\n- Has CCPs: %t\n- Has Critical Limits: %t\n",
		result.Context.DocumentType, result.Context.PrimaryDepartment,
		result.Context.HasCCPs, result.Context.HasCriticalLimits)
	fmt.Fprintf(&b, "\nActors Found: %s\n", joinOrNone(result.Context.UniqueActors))
	fmt.Fprintf(&b, "Unmapped Actors: %s\n", joinOrNone(result.Context.UnmappedActors))
	fmt.Fprintf(&b, "\nExtracted %d Tasks:\n", result.TotalTasks)

	for i, task := range result.Tasks {
		marker := ""
		if task.Resolution.Tier.Inferred() {
			marker = " [INFERRED]"
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, ellipsize(task.Sentence, 80))
		fmt.Fprintf(&b, "   Actor: %s -> %s/%s%s\n", task.Actor, task.Resolution.Department, task.Resolution.Role, marker)
		fmt.Fprintf(&b, "   Action: %s\n", task.Action)
		fmt.Fprintf(&b, "   Object: %s\n", task.Object)
		fmt.Fprintf(&b, "   Frequency: %s\n", orDefault(task.Frequency, "Not specified"))
		fmt.Fprintf(&b, "   Critical Limit: %s\n", orDefault(task.CriticalLimit, "None"))
		fmt.Fprintf(&b, "   ISO Clause: %s\n", task.ISOClause)
		fmt.Fprintf(&b, "   Priority: %s\n", task.Priority)
		fmt.Fprintf(&b, "   Confidence: %s\n", formatConfidence(task.Resolution.Tier.Confidence()))
	}

	writeSuggestions(&b, result.SuggestedMappings)
	return b.String()
}

func writeSuggestions(b *strings.Builder, suggestions map[string]Assignment) {
	if len(suggestions) == 0 {
		return
	}
	actors := make([]string, 0, len(suggestions))
	for actor := range suggestions {
		actors = append(actors, actor)
	}
	sort.Strings(actors)

	b.WriteString("\nSuggested mappings for unmapped actors:\n")
	for _, actor := range actors {
		a := suggestions[actor]
		fmt.Fprintf(b, "  %q -> (%s, %s)\n", actor, a.Department, a.Role)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func ellipsize(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
