package extract

import (
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
)

// ExtractedTask is one decomposed mandatory-action statement before
// persistence.
type ExtractedTask struct {
	Sentence      string              `json:"sentence"`
	Page          int                 `json:"page"`
	Actor         string              `json:"actor"`
	Action        string              `json:"action"`
	Object        string              `json:"object"`
	Frequency     string              `json:"frequency,omitempty"`
	CriticalLimit string              `json:"critical_limit,omitempty"`
	ISOClause     string              `json:"iso_clause"`
	Priority      document.Priority   `json:"priority"`
	Resolution    Resolution          `json:"resolution"`
}

// ParseStatement decomposes a single candidate sentence into a task.
func ParseStatement(stmt Statement, cfg Config, docCtx *Context, matcher Matcher) ExtractedTask {
	actor := extractActor(stmt.Sentence)
	frequency := extractFrequency(stmt.Sentence)
	limit := extractCriticalLimit(stmt.Sentence)
	clause := ClassifyClause(stmt.Sentence, limit != "", frequency != "", cfg)

	return ExtractedTask{
		Sentence:      stmt.Sentence,
		Page:          stmt.Page,
		Actor:         actor,
		Action:        extractAction(stmt.Sentence),
		Object:        extractObject(stmt.Sentence),
		Frequency:     frequency,
		CriticalLimit: limit,
		ISOClause:     clause,
		Priority:      ClassifyPriority(stmt.Sentence, clause, limit != "", cfg),
		Resolution:    ResolveActor(actor, cfg, docCtx, matcher),
	}
}

// ExtractTasks runs the full pipeline over paginated text: detect
// candidate statements, fold limit-only constraint sentences into the
// action they bound, and decompose the rest.
//
// A constraint sentence ("the moisture content must not exceed 14%")
// merges its limit into the immediately preceding action task on the
// same page, and that task's clause and priority are re-evaluated over
// the combined text. A constraint with nothing to attach to stands as
// its own task.
func ExtractTasks(pages []textsource.Page, cfg Config, docCtx *Context, matcher Matcher) []ExtractedTask {
	statements := DetectStatements(pages)

	var tasks []ExtractedTask
	for _, stmt := range statements {
		if isConstraint(stmt.Sentence) && len(tasks) > 0 {
			last := &tasks[len(tasks)-1]
			limit := extractCriticalLimit(stmt.Sentence)
			if limit != "" && last.CriticalLimit == "" && last.Page == stmt.Page {
				mergeConstraint(last, stmt.Sentence, limit, cfg)
				continue
			}
		}
		tasks = append(tasks, ParseStatement(stmt, cfg, docCtx, matcher))
	}
	return tasks
}

func mergeConstraint(task *ExtractedTask, sentence, limit string, cfg Config) {
	task.Sentence = task.Sentence + " " + sentence
	task.CriticalLimit = limit
	task.ISOClause = ClassifyClause(task.Sentence, true, task.Frequency != "", cfg)
	task.Priority = ClassifyPriority(task.Sentence, task.ISOClause, true, cfg)
}

// AnalyzeAndExtract is the one-call pipeline: context analysis over the
// joined text, then extraction with that context.
func AnalyzeAndExtract(pages []textsource.Page, cfg Config, matcher Matcher) ([]ExtractedTask, Context) {
	docCtx := AnalyzeContext(textsource.Join(pages), cfg)
	return ExtractTasks(pages, cfg, &docCtx, matcher), docCtx
}
