// Package extract is the deterministic rule engine that mines controlled
// documents for mandatory-action statements and turns them into structured
// compliance tasks: actor, action, object, frequency, and critical limit,
// classified by ISO clause and priority, with a confidence tier on every
// actor resolution.
package extract

import (
	"fmt"
	"os"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// Assignment is the organizational owner an actor phrase resolves to.
type Assignment struct {
	Department document.Department `koanf:"department" json:"department"`
	Role       string              `koanf:"role" json:"role"`
}

// ClauseRule binds an ISO clause to its trigger keywords. Rules are
// evaluated in slice order and the first hit wins, so the list is a
// priority table, not a set.
type ClauseRule struct {
	Clause   string   `koanf:"clause" json:"clause"`
	Keywords []string `koanf:"keywords" json:"keywords"`
}

// Config holds the rule tables driving extraction. Values are passed
// explicitly through the pipeline; merges produce new values rather than
// mutating shared state.
type Config struct {
	ActorMap         map[string]Assignment `koanf:"actor_department_map"`
	ClauseRules      []ClauseRule          `koanf:"iso_clause_rules"`
	PriorityKeywords map[string][]string   `koanf:"priority_keywords"`

	DefaultDepartment document.Department `koanf:"default_department"`
	DefaultRole       string              `koanf:"default_role"`
	DefaultClause     string              `koanf:"default_iso_clause"`
	DefaultPriority   document.Priority   `koanf:"default_priority"`
}

// Clause codes with dedicated handling in classification.
const (
	ClauseHazardControl = "8.5.1"
	ClauseCriticalLimit = "8.5.1.2"
	ClauseMonitoring    = "8.5.1.3"
	ClauseCorrective    = "8.5.1.4"
	ClauseRecords       = "7.5.3"
	ClauseCalibration   = "7.1.5.1"
	ClauseReview        = "9.0"
)

// DefaultConfig returns the built-in rule tables for a rice export mill.
func DefaultConfig() Config {
	return Config{
		ActorMap: map[string]Assignment{
			"miller":                    {document.Milling, "Operator"},
			"operator":                  {document.Milling, "Operator"},
			"machine operator":          {document.Milling, "Machine Operator"},
			"milling supervisor":        {document.Milling, "Shift Supervisor"},
			"milling team":              {document.Milling, "Operator"},
			"inspector":                 {document.Quality, "Inspector"},
			"quality inspector":         {document.Quality, "QA Inspector"},
			"qa inspector":              {document.Quality, "QA Inspector"},
			"qc inspector":              {document.Quality, "QC Inspector"},
			"quality team":              {document.Quality, "Inspector"},
			"lab technician":            {document.Quality, "Lab Technician"},
			"laboratory technician":     {document.Quality, "Lab Technician"},
			"quality manager":           {document.Quality, "Quality Manager"},
			"qa":                        {document.Quality, "QA Inspector"},
			"qc":                        {document.Quality, "QC Inspector"},
			"packer":                    {document.Packaging, "Operator"},
			"packaging operator":        {document.Packaging, "Operator"},
			"packaging supervisor":      {document.Packaging, "Supervisor"},
			"warehouse operator":        {document.Storage, "Operator"},
			"storage supervisor":        {document.Storage, "Supervisor"},
			"store keeper":              {document.Storage, "Store Keeper"},
			"export officer":            {document.Exports, "Officer"},
			"shipping clerk":            {document.Exports, "Clerk"},
			"documentation officer":     {document.Exports, "Documentation Officer"},
			"technician":                {document.Milling, "Maintenance Technician"},
			"maintenance technician":    {document.Milling, "Maintenance Technician"},
			"engineer":                  {document.Milling, "Engineer"},
			"maintenance team":          {document.Milling, "Maintenance Technician"},
			"manager":                   {document.Quality, "Department Manager"},
			"supervisor":                {document.Milling, "Shift Supervisor"},
			"management representative": {document.Quality, "Management Representative"},
			"mr":                        {document.Quality, "Management Representative"},
			"director":                  {document.Quality, "Director"},
			"fsms team leader":          {document.Quality, "FSMS Team Leader"},
		},
		ClauseRules: []ClauseRule{
			{ClauseHazardControl, []string{"control", "prevent", "eliminate", "hazard", "contamination", "ccp", "critical control"}},
			{ClauseCriticalLimit, []string{"limit", "threshold", "exceed", "maximum", "minimum", "critical limit", "specification"}},
			{ClauseMonitoring, []string{"monitor", "check", "measure", "verify", "test", "inspect", "reading"}},
			{ClauseCorrective, []string{"corrective", "exceeded", "halt", "stop", "notify", "reject", "deviation", "non-conforming"}},
			{ClauseRecords, []string{"record", "log", "document", "register", "fill", "complete", "maintain records"}},
			{ClauseCalibration, []string{"calibrate", "calibration", "equipment", "instrument", "measuring device"}},
			{ClauseReview, []string{"review", "audit", "evaluate", "assess", "performance", "effectiveness"}},
		},
		PriorityKeywords: map[string][]string{
			"Critical": {"immediately", "urgent", "halt", "stop production", "critical", "food safety", "aflatoxin", "pathogen"},
			"High":     {"before", "prior to", "must", "every shift", "hourly", "every 2 hours", "every 4 hours"},
			"Medium":   {"daily", "weekly", "shall", "required"},
			"Low":      {"monthly", "quarterly", "annually", "review", "assess", "periodic"},
		},
		DefaultDepartment: document.Quality,
		DefaultRole:       "Staff",
		DefaultClause:     ClauseHazardControl,
		DefaultPriority:   document.PriorityMedium,
	}
}

// LoadConfig reads a YAML rule file and merges it over the defaults, so a
// partial file overrides only the tables it names. A missing path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading extractor config %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("parsing extractor config %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling extractor config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("extractor config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects rule tables referencing unknown departments or
// priorities.
func (c Config) Validate() error {
	for actor, a := range c.ActorMap {
		if !a.Department.Valid() {
			return fmt.Errorf("%w: actor %q maps to unknown department %q", document.ErrValidation, actor, string(a.Department))
		}
	}
	if !c.DefaultDepartment.Valid() {
		return fmt.Errorf("%w: unknown default department %q", document.ErrValidation, string(c.DefaultDepartment))
	}
	if !c.DefaultPriority.Valid() {
		return fmt.Errorf("%w: unknown default priority %q", document.ErrValidation, string(c.DefaultPriority))
	}
	if c.DefaultClause == "" {
		return fmt.Errorf("%w: default ISO clause is empty", document.ErrValidation)
	}
	return nil
}

// WithActorMappings returns a copy of the config with extra actor rows
// merged in. The receiver is left untouched; auto-map runs against the
// copy and the caller decides whether to persist it.
func (c Config) WithActorMappings(extra map[string]Assignment) Config {
	merged := c
	merged.ActorMap = make(map[string]Assignment, len(c.ActorMap)+len(extra))
	for k, v := range c.ActorMap {
		merged.ActorMap[k] = v
	}
	for k, v := range extra {
		merged.ActorMap[k] = v
	}
	return merged
}

// AddActorMapping records a new actor row, validating the department.
func (c *Config) AddActorMapping(actor string, a Assignment) error {
	if !a.Department.Valid() {
		return fmt.Errorf("%w: unknown department %q", document.ErrValidation, string(a.Department))
	}
	if c.ActorMap == nil {
		c.ActorMap = make(map[string]Assignment)
	}
	c.ActorMap[normalizeActor(actor)] = a
	return nil
}

// Save writes the rule tables to a YAML file. Auto-map never persists
// on its own; the caller invokes this to keep accepted suggestions.
func (c Config) Save(path string) error {
	actors := make(map[string]map[string]string, len(c.ActorMap))
	for actor, a := range c.ActorMap {
		actors[actor] = map[string]string{
			"department": string(a.Department),
			"role":       a.Role,
		}
	}
	rules := make([]map[string]any, 0, len(c.ClauseRules))
	for _, r := range c.ClauseRules {
		rules = append(rules, map[string]any{"clause": r.Clause, "keywords": r.Keywords})
	}

	out, err := yaml.Parser().Marshal(map[string]any{
		"actor_department_map": actors,
		"iso_clause_rules":     rules,
		"priority_keywords":    c.PriorityKeywords,
		"default_department":   string(c.DefaultDepartment),
		"default_role":         c.DefaultRole,
		"default_iso_clause":   c.DefaultClause,
		"default_priority":     string(c.DefaultPriority),
	})
	if err != nil {
		return fmt.Errorf("marshaling extractor config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing extractor config %s: %w", path, err)
	}
	return nil
}

// actorKeys returns the mapped actor phrases in deterministic order.
func (c Config) actorKeys() []string {
	keys := make([]string, 0, len(c.ActorMap))
	for k := range c.ActorMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
