package extract

import (
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// Tier is the certainty level of an actor resolution.
type Tier string

const (
	// TierMapped means the actor phrase hit a configured mapping.
	TierMapped Tier = "mapped"
	// TierInferred means a role-indicative keyword decided the owner.
	TierInferred Tier = "inferred"
	// TierFallback means the document's primary department was assumed.
	TierFallback Tier = "fallback"
)

// Confidence returns the numeric score stored on tasks for this tier.
func (t Tier) Confidence() float64 {
	switch t {
	case TierMapped:
		return document.ConfidenceMapped
	case TierInferred:
		return document.ConfidenceInferred
	default:
		return document.ConfidenceFallback
	}
}

// Inferred reports whether the resolution was guessed rather than
// configured.
func (t Tier) Inferred() bool { return t != TierMapped }

// Resolution is the outcome of resolving an actor phrase to an owner.
type Resolution struct {
	Actor      string              `json:"actor"`
	Department document.Department `json:"department"`
	Role       string              `json:"role"`
	Tier       Tier                `json:"tier"`
}

// Matcher decides whether an actor phrase hits a configured mapping key.
// The default is substring containment; deployments needing stricter or
// fuzzier matching swap in their own.
type Matcher interface {
	Match(actor string, cfg Config) (Assignment, bool)
}

// SubstringMatcher matches when a configured key occurs anywhere inside
// the actor phrase. Keys are tried in lexicographic order so resolution
// is deterministic when several keys are contained.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(actor string, cfg Config) (Assignment, bool) {
	for _, key := range cfg.actorKeys() {
		if strings.Contains(actor, key) {
			return cfg.ActorMap[key], true
		}
	}
	return Assignment{}, false
}

// inferenceHints drives fallback owner inference from role-indicative
// words inside the actor phrase.
var inferenceHints = []deptHint{
	{[]string{"quality", "inspector", "qa", "qc", "lab"}, document.Quality,
		func(string) string { return "Inspector" }},
	{[]string{"operator", "miller", "machine"}, document.Milling,
		func(string) string { return "Operator" }},
	{[]string{"packer", "packaging"}, document.Packaging,
		func(string) string { return "Operator" }},
	{[]string{"warehouse", "storage", "store"}, document.Storage,
		func(string) string { return "Operator" }},
	{[]string{"export", "shipping"}, document.Exports,
		func(string) string { return "Officer" }},
}

// ResolveActor maps an actor phrase to a department and role with a
// confidence tier. Lookup order: configured mapping, keyword inference,
// then the document's primary department.
func ResolveActor(actor string, cfg Config, docCtx *Context, matcher Matcher) Resolution {
	if matcher == nil {
		matcher = SubstringMatcher{}
	}
	actor = normalizeActor(actor)
	if actor == "" {
		actor = fallbackActor
	}

	if a, ok := matcher.Match(actor, cfg); ok {
		return Resolution{Actor: actor, Department: a.Department, Role: a.Role, Tier: TierMapped}
	}

	for _, hint := range inferenceHints {
		if containsAny(actor, hint.keywords) {
			return Resolution{
				Actor:      actor,
				Department: hint.department,
				Role:       hint.role(actor),
				Tier:       TierInferred,
			}
		}
	}

	if docCtx != nil && docCtx.PrimaryDepartment.Valid() {
		return Resolution{
			Actor:      actor,
			Department: docCtx.PrimaryDepartment,
			Role:       titleCase(actor),
			Tier:       TierFallback,
		}
	}
	return Resolution{
		Actor:      actor,
		Department: cfg.DefaultDepartment,
		Role:       cfg.DefaultRole,
		Tier:       TierFallback,
	}
}
