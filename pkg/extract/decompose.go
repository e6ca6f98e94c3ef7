package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Phrase extraction patterns. The pipeline is regex-driven on purpose:
// SOP prose is formulaic enough that a rule table beats a parser, and the
// output must be reproducible run to run.
var (
	actorPattern  = regexp.MustCompile(`(?:the\s+)?(\w+(?:\s+\w+)?)\s+(?:shall|must|is required)`)
	actionPattern = regexp.MustCompile(`(?i)(?:shall|must|is required to|responsible for)\s+(?:be\s+)?(\w+)`)

	objectPattern = regexp.MustCompile(
		`(?i)(?:shall|must)\s+(?:be\s+)?\w+\s+(?:the\s+)?([^,.]+?)(?:\s+(?:every|before|after|at|in|on|using|with|to ensure|if|when|prior)\b|[,.])`)
	objectFallback = regexp.MustCompile(`(?i)(?:shall|must)\s+\w+\s+(.+?)(?:\.|,|\bevery\b|\bbefore\b|\bafter\b|\busing\b)`)

	articlePrefix = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)

	// A trigger followed by a negation is a constraint, not an action:
	// "the moisture content must not exceed 14%" bounds the preceding
	// instruction rather than instructing anyone.
	constraintPattern = regexp.MustCompile(`(?i)\b(?:shall|must)\s+(?:not|never)\b`)
)

const (
	fallbackActor  = "staff"
	fallbackAction = "perform"
	fallbackObject = "task requirements"
	maxObjectLen   = 100
)

var nonActionWords = map[string]bool{
	"the": true, "a": true, "an": true, "that": true, "this": true, "all": true,
}

// extractActor returns the noun phrase immediately preceding the trigger,
// or the generic fallback when the sentence has no explicit subject.
func extractActor(sentence string) string {
	m := actorPattern.FindStringSubmatch(strings.ToLower(sentence))
	if m == nil {
		return fallbackActor
	}
	return strings.TrimSpace(m[1])
}

// extractAction returns the verb immediately following the trigger.
func extractAction(sentence string) string {
	m := actionPattern.FindStringSubmatch(sentence)
	if m != nil {
		action := strings.ToLower(m[1])
		if !nonActionWords[action] {
			return action
		}
	}
	return fallbackAction
}

// extractObject returns the noun phrase the action operates on, with
// leading articles stripped and length capped.
func extractObject(sentence string) string {
	if m := objectPattern.FindStringSubmatch(sentence); m != nil {
		obj := articlePrefix.ReplaceAllString(strings.TrimSpace(m[1]), "")
		return truncate(obj, maxObjectLen)
	}
	if m := objectFallback.FindStringSubmatch(sentence); m != nil {
		return truncate(strings.TrimSpace(m[1]), maxObjectLen)
	}
	return fallbackObject
}

// truncate caps s at n runes without splitting a multi-byte character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// isConstraint reports whether the sentence states a bound ("must not
// exceed") rather than assigning work. Constraint sentences fold their
// limit into the preceding action task instead of forming their own.
func isConstraint(sentence string) bool {
	return constraintPattern.MatchString(sentence)
}

// frequencyRule normalizes one timing phrase to its canonical form.
type frequencyRule struct {
	pattern *regexp.Regexp
	format  func(groups []string) string
}

func literal(s string) func([]string) string {
	return func([]string) string { return s }
}

var frequencyRules = []frequencyRule{
	{regexp.MustCompile(`every\s+(\d+)\s*hours?`), func(g []string) string { return "Every " + g[1] + " hours" }},
	{regexp.MustCompile(`every\s+(\d+)\s*minutes?`), func(g []string) string { return "Every " + g[1] + " minutes" }},
	{regexp.MustCompile(`every\s+shift`), literal("Every shift")},
	{regexp.MustCompile(`per\s+shift`), literal("Per shift")},
	{regexp.MustCompile(`per\s+batch`), literal("Per batch")},
	{regexp.MustCompile(`each\s+batch`), literal("Each batch")},
	{regexp.MustCompile(`before\s+each\s+(\w+)`), func(g []string) string { return "Before each " + g[1] }},
	{regexp.MustCompile(`after\s+each\s+(\w+)`), func(g []string) string { return "After each " + g[1] }},
	{regexp.MustCompile(`at\s+the\s+start\s+of\s+(\w+)`), func(g []string) string { return "At start of " + g[1] }},
	{regexp.MustCompile(`at\s+the\s+end\s+of\s+(\w+)`), func(g []string) string { return "At end of " + g[1] }},
	{regexp.MustCompile(`\bdaily\b`), literal("Daily")},
	{regexp.MustCompile(`\bweekly\b`), literal("Weekly")},
	{regexp.MustCompile(`\bmonthly\b`), literal("Monthly")},
	{regexp.MustCompile(`\bhourly\b`), literal("Hourly")},
	{regexp.MustCompile(`once\s+per\s+(\w+)`), func(g []string) string { return "Once per " + g[1] }},
	{regexp.MustCompile(`twice\s+per\s+(\w+)`), func(g []string) string { return "Twice per " + g[1] }},
	{regexp.MustCompile(`continuously`), literal("Continuous")},
	{regexp.MustCompile(`as\s+needed`), literal("As needed")},
	{regexp.MustCompile(`when\s+required`), literal("When required")},
}

// extractFrequency returns the canonical timing phrase, or "" when the
// sentence carries none. Rules are tried in table order.
func extractFrequency(sentence string) string {
	lower := strings.ToLower(sentence)
	for _, rule := range frequencyRules {
		if g := rule.pattern.FindStringSubmatch(lower); g != nil {
			return rule.format(g)
		}
	}
	return ""
}

// limitRule is one typed critical-limit pattern. The normalizer receives
// the submatch groups and produces the stored form.
type limitRule struct {
	pattern *regexp.Regexp
	format  func(groups []string) string
}

func matched(g []string) string { return strings.TrimSpace(g[0]) }

var limitRules = []limitRule{
	// Temperature.
	{regexp.MustCompile(`[<>≤≥]=?\s*\d+(?:\.\d+)?\s*°?\s*[CF]\b`), matched},
	{regexp.MustCompile(`(?i)(?:not\s+)?exceed[a-z]*\s+(\d+(?:\.\d+)?\s*°\s*[CF])\b`),
		func(g []string) string { return g[1] + " max" }},
	// Percentage.
	{regexp.MustCompile(`[<>≤≥]=?\s*\d+(?:\.\d+)?\s*%`), matched},
	{regexp.MustCompile(`(?i)(?:not\s+)?exceed[a-z]*\s+(\d+(?:\.\d+)?\s*%)`),
		func(g []string) string { return g[1] + " max" }},
	{regexp.MustCompile(`(?i)\bmax(?:imum)?(?:\s+of)?\s*:?\s*(\d+(?:\.\d+)?\s*%)`),
		func(g []string) string { return g[1] + " max" }},
	{regexp.MustCompile(`(?i)\bmin(?:imum)?(?:\s+of)?\s*:?\s*(\d+(?:\.\d+)?\s*%)`),
		func(g []string) string { return g[1] + " min" }},
	// Concentration.
	{regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:ppm|ppb)\b`), matched},
	// Weight.
	{regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:kg|g|mg)\b`), matched},
	// Bounded time.
	{regexp.MustCompile(`(?i)\bwithin\s+(\d+\s*(?:hours?|minutes?|seconds?))\b`),
		func(g []string) string { return "within " + g[1] }},
}

// extractCriticalLimit returns the first typed threshold in reading
// order. When several pattern types match, position decides, so a
// temperature early in the sentence beats a percentage later on.
func extractCriticalLimit(sentence string) string {
	best := -1
	value := ""
	for _, rule := range limitRules {
		loc := rule.pattern.FindStringSubmatchIndex(sentence)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			groups := expandGroups(sentence, loc)
			value = rule.format(groups)
		}
	}
	return value
}

func expandGroups(s string, loc []int) []string {
	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, s[loc[i]:loc[i+1]])
	}
	return groups
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}
