package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// Context is the per-document analysis the pipeline uses for smarter
// mapping: what kind of document this is, which department it belongs
// to, and which actor phrases the config does not know yet.
type Context struct {
	DocumentType         string                `json:"document_type"`
	PrimaryDepartment    document.Department   `json:"primary_department"`
	MentionedDepartments []document.Department `json:"mentioned_departments"`
	UniqueActors         []string              `json:"unique_actors"`
	UnmappedActors       []string              `json:"unmapped_actors"`
	HasCCPs              bool                  `json:"has_ccps"`
	HasCriticalLimits    bool                  `json:"has_critical_limits"`
}

// Document type labels assigned by context analysis.
const (
	TypeLabelPolicy      = "Policy"
	TypeLabelSOP         = "SOP"
	TypeLabelProcessFlow = "Process Flow"
	TypeLabelRecord      = "Record"
)

// typeClasses scores document types by keyword density. Slice order is
// the tie-break: on equal counts the earlier class wins.
var typeClasses = []struct {
	label    string
	keywords []string
}{
	{TypeLabelPolicy, []string{"policy", "commitment", "shall ensure"}},
	{TypeLabelSOP, []string{"procedure", "sop", "purpose", "scope", "instruction"}},
	{TypeLabelProcessFlow, []string{"flowchart", "diagram", "process flow"}},
	{TypeLabelRecord, []string{"checklist", "form", "log sheet"}},
}

var comparatorPattern = regexp.MustCompile(`[<>≤≥]=?\s*\d+`)

// AnalyzeContext reads the full document text and produces the context
// used for actor inference and auto-mapping suggestions.
func AnalyzeContext(text string, cfg Config) Context {
	lower := strings.ToLower(text)

	ctx := Context{
		DocumentType:      classifyDocumentType(lower),
		PrimaryDepartment: cfg.DefaultDepartment,
		HasCCPs: strings.Contains(lower, "ccp") ||
			strings.Contains(lower, "critical control point") ||
			strings.Contains(lower, "haccp"),
		HasCriticalLimits: comparatorPattern.MatchString(text),
	}

	best := 0
	for _, dept := range document.Departments() {
		count := strings.Count(lower, strings.ToLower(string(dept)))
		if count > 0 {
			ctx.MentionedDepartments = append(ctx.MentionedDepartments, dept)
		}
		if count > best {
			best = count
			ctx.PrimaryDepartment = dept
		}
	}

	seen := map[string]bool{}
	for _, m := range actorPattern.FindAllStringSubmatch(lower, -1) {
		actor := normalizeActor(m[1])
		if actor == "" || seen[actor] {
			continue
		}
		seen[actor] = true
		ctx.UniqueActors = append(ctx.UniqueActors, actor)
	}
	sort.Strings(ctx.UniqueActors)

	for _, actor := range ctx.UniqueActors {
		if !actorIsMapped(actor, cfg) {
			ctx.UnmappedActors = append(ctx.UnmappedActors, actor)
		}
	}
	return ctx
}

func classifyDocumentType(lower string) string {
	bestLabel := TypeLabelSOP
	bestScore := 0
	for _, class := range typeClasses {
		score := 0
		for _, kw := range class.keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			bestLabel = class.label
		}
	}
	return bestLabel
}

func actorIsMapped(actor string, cfg Config) bool {
	for _, key := range cfg.actorKeys() {
		if strings.Contains(actor, key) {
			return true
		}
	}
	return false
}

// deptHint drives both auto-map suggestions and inference fallback: the
// first hint whose keywords appear in the actor phrase decides.
type deptHint struct {
	keywords   []string
	department document.Department
	role       func(actor string) string
}

var suggestionHints = []deptHint{
	{[]string{"quality", "inspector", "qa", "qc", "lab", "test", "analyst"}, document.Quality,
		func(actor string) string {
			switch {
			case strings.Contains(actor, "manager"):
				return "Quality Manager"
			case strings.Contains(actor, "lab"), strings.Contains(actor, "analyst"):
				return "Lab Technician"
			default:
				return "Inspector"
			}
		}},
	{[]string{"operator", "miller", "machine", "production", "process"}, document.Milling,
		func(actor string) string {
			if strings.Contains(actor, "supervisor") {
				return "Shift Supervisor"
			}
			return "Operator"
		}},
	{[]string{"pack", "packaging", "bag", "seal"}, document.Packaging,
		func(string) string { return "Operator" }},
	{[]string{"warehouse", "storage", "store", "inventory"}, document.Storage,
		func(string) string { return "Operator" }},
	{[]string{"export", "ship", "document", "customs"}, document.Exports,
		func(string) string { return "Officer" }},
	{[]string{"maintenance", "technician", "mechanic", "engineer"}, document.Milling,
		func(string) string { return "Maintenance Technician" }},
	{[]string{"manager", "director", "supervisor", "head", "lead"}, document.Quality,
		func(string) string { return "Manager" }},
}

// SuggestMappings proposes an owner for every unmapped actor, defaulting
// to the document's primary department when no hint fires.
func SuggestMappings(ctx Context) map[string]Assignment {
	suggestions := make(map[string]Assignment, len(ctx.UnmappedActors))
	for _, actor := range ctx.UnmappedActors {
		assignment := Assignment{
			Department: ctx.PrimaryDepartment,
			Role:       titleCase(actor),
		}
		for _, hint := range suggestionHints {
			if containsAny(actor, hint.keywords) {
				assignment = Assignment{Department: hint.department, Role: hint.role(actor)}
				break
			}
		}
		suggestions[actor] = assignment
	}
	return suggestions
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
