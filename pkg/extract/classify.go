package extract

import (
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// ClassifyClause picks the ISO clause for a sentence: the first rule in
// table order whose keywords hit wins. Two clauses are gated on extracted
// evidence: the critical-limit clause needs a limit and the monitoring
// clause needs a frequency. A sentence carrying a limit prefers the
// critical-limit clause over the generic hazard-control clause even when
// both keyword sets match.
func ClassifyClause(sentence string, hasLimit, hasFrequency bool, cfg Config) string {
	lower := strings.ToLower(sentence)

	if hasLimit && clauseKeywordsHit(lower, ClauseCriticalLimit, cfg) {
		return ClauseCriticalLimit
	}

	for _, rule := range cfg.ClauseRules {
		if !keywordsHit(lower, rule.Keywords) {
			continue
		}
		switch rule.Clause {
		case ClauseCriticalLimit:
			if hasLimit {
				return rule.Clause
			}
		case ClauseMonitoring:
			if hasFrequency {
				return rule.Clause
			}
		default:
			return rule.Clause
		}
	}

	if hasLimit {
		return ClauseCriticalLimit
	}
	if hasFrequency {
		return ClauseMonitoring
	}
	return cfg.DefaultClause
}

func clauseKeywordsHit(lower, clause string, cfg Config) bool {
	for _, rule := range cfg.ClauseRules {
		if rule.Clause == clause {
			return keywordsHit(lower, rule.Keywords)
		}
	}
	return false
}

func keywordsHit(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClassifyPriority assigns priority from an ordered rule list, first
// match wins: Critical for limit-bound critical-limit tasks or halt
// language, High for hazard control or sub-daily cadence, Low for
// monthly-plus review cadence, Medium otherwise.
func ClassifyPriority(sentence, isoClause string, hasLimit bool, cfg Config) document.Priority {
	lower := strings.ToLower(sentence)

	if hasLimit && isoClause == ClauseCriticalLimit {
		return document.PriorityCritical
	}
	if keywordsHit(lower, cfg.PriorityKeywords["Critical"]) {
		return document.PriorityCritical
	}

	if isoClause == ClauseHazardControl {
		return document.PriorityHigh
	}
	if keywordsHit(lower, cfg.PriorityKeywords["High"]) {
		return document.PriorityHigh
	}

	if keywordsHit(lower, cfg.PriorityKeywords["Low"]) {
		return document.PriorityLow
	}

	return cfg.DefaultPriority
}
