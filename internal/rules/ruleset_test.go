package rules

import (
	"testing"

	"github.com/pactanvil/pactcore/internal/pathexpr"
)

func TestRuleSetCombineAND(t *testing.T) {
	rs := RuleSet{Rules: []Rule{Type{}, Regex{Pattern: `^\d+$`}}, Combine: CombineAND}
	if v := rs.Matches("1", "123"); v != nil {
		t.Errorf("expected all rules to pass, got %v", v)
	}
	if v := rs.Matches("1", "abc"); v == nil {
		t.Error("expected failure when one AND rule fails")
	}
}

func TestRuleSetCombineOR(t *testing.T) {
	rs := RuleSet{Rules: []Rule{Equality{}, Regex{Pattern: `^\d+$`}}, Combine: CombineOR}
	if v := rs.Matches("x", "123"); v != nil {
		t.Errorf("expected OR to pass via regex, got %v", v)
	}
	if v := rs.Matches("x", "x"); v != nil {
		t.Errorf("expected OR to pass via equality, got %v", v)
	}
	if v := rs.Matches("x", "y"); v == nil {
		t.Error("expected OR to fail when every rule fails")
	}
}

func TestRuleSetDefaultsToEquality(t *testing.T) {
	rs := RuleSet{}
	if v := rs.Matches("a", "a"); v != nil {
		t.Errorf("expected implicit equality to match, got %v", v)
	}
	if v := rs.Matches("a", "b"); v == nil {
		t.Error("expected implicit equality to reject mismatch")
	}
}

func TestMatchingRulesLookupExactBeatsWildcard(t *testing.T) {
	mr := MatchingRules{
		CategoryBody: {
			"$.items.*":  RuleSet{Rules: []Rule{Type{}}},
			"$.items[0]": RuleSet{Rules: []Rule{Equality{}}},
		},
	}
	rs, ok := mr.Lookup(CategoryBody, pathexpr.MustParse("$.items[0]"))
	if !ok {
		t.Fatal("expected a rule to be found")
	}
	if len(rs.Rules) != 1 {
		t.Fatalf("got %d rules", len(rs.Rules))
	}
	if _, isEquality := rs.Rules[0].(Equality); !isEquality {
		t.Errorf("expected exact-path rule (Equality) to win over wildcard rule, got %T", rs.Rules[0])
	}
}

func TestMatchingRulesLookupLongerPathWins(t *testing.T) {
	mr := MatchingRules{
		CategoryBody: {
			"$.a":   RuleSet{Rules: []Rule{Type{}}},
			"$.a.b": RuleSet{Rules: []Rule{Regex{Pattern: "x"}}},
		},
	}
	rs, ok := mr.Lookup(CategoryBody, pathexpr.MustParse("$.a.b"))
	if !ok {
		t.Fatal("expected a rule to be found")
	}
	if _, isRegex := rs.Rules[0].(Regex); !isRegex {
		t.Errorf("expected longer path to win, got %T", rs.Rules[0])
	}
}

func TestMatchingRulesLookupMiss(t *testing.T) {
	mr := MatchingRules{CategoryBody: {"$.a": RuleSet{Rules: []Rule{Type{}}}}}
	if _, ok := mr.Lookup(CategoryBody, pathexpr.MustParse("$.b")); ok {
		t.Error("expected no rule to be found")
	}
}
