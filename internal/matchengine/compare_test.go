package matchengine

import (
	"testing"

	"github.com/pactanvil/pactcore/internal/rules"
	"github.com/pactanvil/pactcore/pkg/pact"
)

func mm(pairs ...string) *pact.MultiMap {
	m := pact.NewMultiMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Add(pairs[i], pairs[i+1])
	}
	return m
}

func kindCounts(ms []Mismatch) map[MismatchKind]int {
	out := map[MismatchKind]int{}
	for _, m := range ms {
		out[m.Kind]++
	}
	return out
}

func TestCompareExactMatchNoMismatches(t *testing.T) {
	req := pact.Request{Method: "GET", Path: "/a", Query: mm("q", "1"), Headers: mm("X-A", "1")}
	ms := Compare(req, req, nil)
	if len(ms) != 0 {
		t.Fatalf("expected no mismatches, got %+v", ms)
	}
}

func TestCompareMethodMismatch(t *testing.T) {
	expected := pact.Request{Method: "GET", Path: "/a"}
	actual := pact.Request{Method: "POST", Path: "/a"}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[MethodMismatchKind] != 1 {
		t.Fatalf("expected 1 method mismatch, got %+v", ms)
	}
}

func TestCompareMethodCaseInsensitive(t *testing.T) {
	expected := pact.Request{Method: "get", Path: "/a"}
	actual := pact.Request{Method: "GET", Path: "/a"}
	ms := Compare(expected, actual, nil)
	if len(ms) != 0 {
		t.Fatalf("expected method case-insensitivity, got %+v", ms)
	}
}

func TestCompareRunsAllStepsNoShortCircuit(t *testing.T) {
	expected := pact.Request{Method: "GET", Path: "/a", Query: mm("q", "1")}
	actual := pact.Request{Method: "POST", Path: "/b", Query: mm("q", "2")}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[MethodMismatchKind] != 1 || counts[PathMismatchKind] != 1 || counts[QueryMismatchKind] != 1 {
		t.Fatalf("expected mismatches from every step, got %+v", ms)
	}
}

func TestCompareQueryMissingAndExtra(t *testing.T) {
	expected := pact.Request{Method: "GET", Path: "/a", Query: mm("a", "1")}
	actual := pact.Request{Method: "GET", Path: "/a", Query: mm("b", "2")}
	ms := Compare(expected, actual, nil)
	if len(ms) != 2 {
		t.Fatalf("expected missing + extra query mismatches, got %+v", ms)
	}
}

func TestCompareHeadersCaseInsensitiveNameTrimmedValue(t *testing.T) {
	expected := pact.Request{Method: "GET", Path: "/a", Headers: mm("X-Token", " abc ")}
	actual := pact.Request{Method: "GET", Path: "/a", Headers: mm("x-token", "abc")}
	ms := Compare(expected, actual, nil)
	if len(ms) != 0 {
		t.Fatalf("expected trimmed case-insensitive header match, got %+v", ms)
	}
}

func TestCompareHeadersMultiValueAsSet(t *testing.T) {
	expected := pact.Request{Method: "GET", Path: "/a", Headers: mm("Accept", "a", "Accept", "b")}
	actual := pact.Request{Method: "GET", Path: "/a", Headers: mm("Accept", "b", "Accept", "a")}
	ms := Compare(expected, actual, nil)
	if len(ms) != 0 {
		t.Fatalf("expected set-equal multi-value headers to match, got %+v", ms)
	}
}

func TestCompareBodyJSONStructural(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":1,"b":{"c":2}}`), "application/json", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"b":{"c":2},"a":1}`), "application/json", ""),
	}
	ms := Compare(expected, actual, nil)
	if len(ms) != 0 {
		t.Fatalf("expected key-order-independent JSON match, got %+v", ms)
	}
}

func TestCompareBodyJSONDivergence(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":1}`), "application/json", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":2}`), "application/json", ""),
	}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[BodyMismatchKind] != 1 {
		t.Fatalf("expected 1 body mismatch, got %+v", ms)
	}
}

func TestCompareBodyJSONWithTypeRule(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":1}`), "application/json", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":99}`), "application/json", ""),
	}
	mr := rules.MatchingRules{
		rules.CategoryBody: {
			"$.a": rules.RuleSet{Rules: []rules.Rule{rules.Type{}}, Combine: rules.CombineAND},
		},
	}
	ms := Compare(expected, actual, mr)
	if len(ms) != 0 {
		t.Fatalf("expected Type rule to accept differing numbers, got %+v", ms)
	}
}

func TestCompareBodyContentTypeMismatch(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`{"a":1}`), "application/json", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`<a>1</a>`), "application/xml", ""),
	}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[BodyTypeMismatchKind] != 1 {
		t.Fatalf("expected body type mismatch, got %+v", ms)
	}
}

func TestCompareBodyPlainByteExact(t *testing.T) {
	expected := pact.Request{Method: "POST", Path: "/a", Body: pact.Present([]byte("hello"), "text/plain", "")}
	actual := pact.Request{Method: "POST", Path: "/a", Body: pact.Present([]byte("hellx"), "text/plain", "")}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[BodyMismatchKind] != 1 {
		t.Fatalf("expected byte-exact mismatch, got %+v", ms)
	}
}

func TestCompareResponseStatus(t *testing.T) {
	expected := pact.Response{Status: 200}
	actual := pact.Response{Status: 404}
	ms := CompareResponse(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[StatusMismatchKind] != 1 {
		t.Fatalf("expected status mismatch, got %+v", ms)
	}
}

func TestCompareBodyXMLStructural(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`<root attr="1"><child>text</child></root>`), "application/xml", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`<root attr="1"><child>text</child></root>`), "application/xml", ""),
	}
	ms := Compare(expected, actual, nil)
	if len(ms) != 0 {
		t.Fatalf("expected identical XML to match, got %+v", ms)
	}
}

func TestCompareBodyXMLDivergence(t *testing.T) {
	expected := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`<root attr="1"><child>text</child></root>`), "application/xml", ""),
	}
	actual := pact.Request{
		Method: "POST", Path: "/a",
		Body: pact.Present([]byte(`<root attr="2"><child>text</child></root>`), "application/xml", ""),
	}
	ms := Compare(expected, actual, nil)
	counts := kindCounts(ms)
	if counts[BodyMismatchKind] == 0 {
		t.Fatalf("expected attribute divergence to be reported, got %+v", ms)
	}
}

func TestMismatchTypeStrings(t *testing.T) {
	cases := map[MismatchKind]string{
		MethodMismatchKind:   "method",
		PathMismatchKind:     "path",
		StatusMismatchKind:   "status",
		QueryMismatchKind:    "query",
		HeaderMismatchKind:   "header",
		BodyTypeMismatchKind: "body-content-type",
		BodyMismatchKind:     "body",
	}
	for kind, want := range cases {
		if got := kind.MismatchType(); got != want {
			t.Errorf("MismatchType(%d) = %q, want %q", kind, got, want)
		}
	}
}
