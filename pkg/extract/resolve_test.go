package extract

import (
	"testing"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

func TestResolveActorMapped(t *testing.T) {
	cfg := DefaultConfig()

	res := ResolveActor("operator", cfg, nil, nil)
	if res.Tier != TierMapped {
		t.Fatalf("tier = %s, want mapped", res.Tier)
	}
	if res.Department != document.Milling || res.Role != "Operator" {
		t.Errorf("resolved to %s/%s", res.Department, res.Role)
	}
	if res.Tier.Confidence() != document.ConfidenceMapped {
		t.Errorf("confidence = %v", res.Tier.Confidence())
	}
	if res.Tier.Inferred() {
		t.Error("mapped resolution must not be flagged inferred")
	}
}

func TestResolveActorSubstring(t *testing.T) {
	cfg := DefaultConfig()

	// "night shift operator" contains the configured key "operator".
	res := ResolveActor("night shift operator", cfg, nil, nil)
	if res.Tier != TierMapped || res.Department != document.Milling {
		t.Errorf("substring match failed: %+v", res)
	}
}

func TestResolveActorInferred(t *testing.T) {
	cfg := DefaultConfig()
	// Remove the direct mapping so keyword inference takes over.
	delete(cfg.ActorMap, "warehouse operator")
	delete(cfg.ActorMap, "operator")

	res := ResolveActor("warehouse attendant", cfg, nil, nil)
	if res.Tier != TierInferred {
		t.Fatalf("tier = %s, want inferred", res.Tier)
	}
	if res.Department != document.Storage {
		t.Errorf("department = %s, want Storage", res.Department)
	}
	if res.Tier.Confidence() != document.ConfidenceInferred {
		t.Errorf("confidence = %v", res.Tier.Confidence())
	}
}

func TestResolveActorFallback(t *testing.T) {
	cfg := DefaultConfig()
	docCtx := &Context{PrimaryDepartment: document.Exports}

	res := ResolveActor("customs broker", cfg, docCtx, nil)
	if res.Tier != TierFallback {
		t.Fatalf("tier = %s, want fallback", res.Tier)
	}
	if res.Department != document.Exports {
		t.Errorf("department = %s, want document's primary department", res.Department)
	}
	if res.Role != "Customs Broker" {
		t.Errorf("role = %q", res.Role)
	}
	if res.Tier.Confidence() != document.ConfidenceFallback {
		t.Errorf("confidence = %v", res.Tier.Confidence())
	}
}

func TestResolveActorFallbackWithoutContext(t *testing.T) {
	cfg := DefaultConfig()

	res := ResolveActor("customs broker", cfg, nil, nil)
	if res.Tier != TierFallback || res.Department != cfg.DefaultDepartment || res.Role != cfg.DefaultRole {
		t.Errorf("unexpected resolution %+v", res)
	}
}

type exactMatcher struct{}

func (exactMatcher) Match(actor string, cfg Config) (Assignment, bool) {
	a, ok := cfg.ActorMap[actor]
	return a, ok
}

func TestResolveActorCustomMatcher(t *testing.T) {
	cfg := DefaultConfig()

	// The substring default would map this; the exact matcher does not.
	res := ResolveActor("night shift operator", cfg, nil, exactMatcher{})
	if res.Tier == TierMapped {
		t.Errorf("exact matcher should not map %q", res.Actor)
	}
	res = ResolveActor("operator", cfg, nil, exactMatcher{})
	if res.Tier != TierMapped {
		t.Errorf("exact matcher should map the literal key, got %+v", res)
	}
}
