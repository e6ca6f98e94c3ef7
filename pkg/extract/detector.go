package extract

import (
	"regexp"
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
)

// minStatementLen filters out heading fragments and table cells that
// happen to contain a trigger word.
const minStatementLen = 20

// statementPattern finds sentences carrying a mandatory-action trigger.
// A sentence runs from a letter to the next period; the case-insensitive
// flag covers documents written in headings-style capitals.
var statementPattern = regexp.MustCompile(
	`(?i)([A-Z][^.]*(?:\bshall\b|\bmust\b|\bis required to\b|\bresponsible for\b)[^.]*\.)`)

// Statement is one candidate mandatory-action sentence with the page it
// was read from.
type Statement struct {
	Sentence string
	Page     int
}

// DetectStatements scans paginated text for mandatory-action sentences.
// Whitespace inside each sentence is collapsed so downstream patterns see
// a single line.
func DetectStatements(pages []textsource.Page) []Statement {
	var out []Statement
	for _, page := range pages {
		for _, match := range statementPattern.FindAllString(page.Text, -1) {
			sentence := strings.Join(strings.Fields(match), " ")
			if len(sentence) < minStatementLen {
				continue
			}
			out = append(out, Statement{Sentence: sentence, Page: page.Number})
		}
	}
	return out
}

func normalizeActor(actor string) string {
	return strings.Join(strings.Fields(strings.ToLower(actor)), " ")
}
