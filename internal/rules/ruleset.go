package rules

import "github.com/pactanvil/pactcore/internal/pathexpr"

// Combine selects how a RuleSet's member Rules are aggregated.
type Combine int

const (
	// CombineAND requires every rule in the set to pass.
	CombineAND Combine = iota
	// CombineOR requires at least one rule in the set to pass.
	CombineOR
)

// RuleSet is the matching rules configured at a single path expression.
type RuleSet struct {
	Rules   []Rule
	Combine Combine
}

// Matches evaluates every rule in the set against expected/actual and
// combines the results per Combine. On AND, the first failing rule's
// Violation is returned. On OR, a Violation is returned only if every
// rule failed, and it is the first rule's Violation.
func (rs RuleSet) Matches(expected, actual interface{}) *Violation {
	if len(rs.Rules) == 0 {
		return Equality{}.Matches(expected, actual)
	}
	var violations []*Violation
	for _, r := range rs.Rules {
		v := r.Matches(expected, actual)
		if v == nil && rs.Combine == CombineOR {
			return nil
		}
		if v != nil {
			violations = append(violations, v)
			if rs.Combine == CombineAND {
				return v
			}
		}
	}
	if rs.Combine == CombineOR && len(violations) == len(rs.Rules) {
		return violations[0]
	}
	return nil
}

// Category is a matching-rule bucket, one of the fixed categories the
// wire format recognizes.
type Category string

const (
	CategoryPath   Category = "path"
	CategoryQuery  Category = "query"
	CategoryHeader Category = "header"
	CategoryBody   Category = "body"
	CategoryStatus Category = "status"
)

// MatchingRules is the full rule configuration for an interaction: a
// map from category to a map from path-expression string to the rule
// set configured at that path.
type MatchingRules map[Category]map[string]RuleSet

// Lookup finds the most specific rule set configured for p within
// category, per spec.md §4.C: an exact (no-wildcard) path wins over one
// containing a wildcard token; among rules of equal specificity, the
// longer (more token) path wins. Absence of any matching rule reports
// ok=false, which callers treat as an implicit Equality rule.
func (mr MatchingRules) Lookup(category Category, p pathexpr.Path) (RuleSet, bool) {
	byPath := mr[category]
	if len(byPath) == 0 {
		return RuleSet{}, false
	}
	var (
		best     RuleSet
		bestSpec = -1
		bestLen  = -1
		found    bool
	)
	for key, rs := range byPath {
		keyPath, err := pathexpr.Parse(key)
		if err != nil {
			continue
		}
		if !pathMatches(keyPath, p) {
			continue
		}
		spec := specificity(keyPath)
		if spec > bestSpec || (spec == bestSpec && keyPath.Len() > bestLen) {
			best, bestSpec, bestLen, found = rs, spec, keyPath.Len(), true
		}
	}
	return best, found
}

// specificity ranks a rule key path: exact (no wildcard tokens) ranks
// above one with any wildcard token.
func specificity(p pathexpr.Path) int {
	for _, t := range p.Tokens {
		if t.Kind == pathexpr.Wildcard {
			return 0
		}
	}
	return 1
}

// pathMatches reports whether a rule key path addresses the concrete
// path p: every non-wildcard token must match exactly by kind and
// value, and a wildcard token in the key matches any token at that
// position in p.
func pathMatches(key, p pathexpr.Path) bool {
	if len(key.Tokens) != len(p.Tokens) {
		return false
	}
	for i, kt := range key.Tokens {
		pt := p.Tokens[i]
		if kt.Kind == pathexpr.Wildcard {
			continue
		}
		if kt.Kind != pt.Kind {
			return false
		}
		switch kt.Kind {
		case pathexpr.Field:
			if kt.Name != pt.Name {
				return false
			}
		case pathexpr.Index:
			if kt.Index != pt.Index {
				return false
			}
		}
	}
	return true
}
