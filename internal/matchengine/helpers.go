package matchengine

import (
	"encoding/json"
	"strings"

	"github.com/pactanvil/pactcore/internal/resolve"
	"github.com/pactanvil/pactcore/pkg/pact"
)

func multiMapKeys(m *pact.MultiMap) []string {
	if m == nil {
		return nil
	}
	return m.Keys()
}

// queryValues resolves a single query parameter's values through
// internal/resolve, the path-addressable value resolver spec.md §4.E
// describes, rather than hand-rolling a second multimap lookup here.
func queryValues(m *pact.MultiMap, name string) ([]string, bool) {
	resolver := resolve.HTTPRequestResolver{Request: pact.Request{Query: m}}
	v, err := resolver.Resolve(childField(rootField("query"), name))
	if err != nil {
		return nil, false
	}
	return nodeValueToStrings(v)
}

// headerValues resolves a single header's values case-insensitively
// through internal/resolve, mirroring queryValues.
func headerValues(m *pact.MultiMap, lowerName string) ([]string, bool) {
	resolver := resolve.HTTPRequestResolver{Request: pact.Request{Headers: m}}
	v, err := resolver.Resolve(childField(rootField("headers"), lowerName))
	if err != nil {
		return nil, false
	}
	return nodeValueToStrings(v)
}

func nodeValueToStrings(v resolve.NodeValue) ([]string, bool) {
	switch v.Kind {
	case resolve.STRING:
		return []string{v.Str}, true
	case resolve.SLIST:
		return v.SList, true
	default:
		return nil, false
	}
}

func containsKey(keys []string, k string) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

func lowercaseKeys(m *pact.MultiMap) map[string]string {
	out := map[string]string{}
	for _, k := range multiMapKeys(m) {
		out[strings.ToLower(k)] = k
	}
	return out
}

func sameValueSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func contentTypeHeader(m *pact.MultiMap) (string, bool) {
	vals, found := headerValues(m, "content-type")
	if !found || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func decodeJSONPair(a, b []byte) (interface{}, interface{}, bool) {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return nil, nil, false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return nil, nil, false
	}
	return av, bv, true
}
