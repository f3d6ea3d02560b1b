package matchengine

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/pactanvil/pactcore/internal/content"
	"github.com/pactanvil/pactcore/internal/pathexpr"
	"github.com/pactanvil/pactcore/internal/rules"
	"github.com/pactanvil/pactcore/pkg/pact"
)

// Compare evaluates an actual request against an expected one under mr,
// emitting mismatches in the deterministic order method, path, query,
// headers, body — every step runs regardless of earlier failures.
func Compare(expected, actual pact.Request, mr rules.MatchingRules) []Mismatch {
	var out []Mismatch
	out = append(out, compareMethod(expected.Method, actual.Method)...)
	out = append(out, comparePath(expected.Path, actual.Path, mr)...)
	out = append(out, compareQuery(expected.Query, actual.Query, mr)...)
	out = append(out, compareHeaders(expected.Headers, actual.Headers, mr)...)
	out = append(out, compareBody(expected.Body, actual.Body, mr)...)
	return out
}

// CompareResponse evaluates an actual response against an expected one
// under mr, in the order headers, body, status.
func CompareResponse(expected, actual pact.Response, mr rules.MatchingRules) []Mismatch {
	var out []Mismatch
	out = append(out, compareHeaders(expected.Headers, actual.Headers, mr)...)
	out = append(out, compareBody(expected.Body, actual.Body, mr)...)
	out = append(out, compareStatus(expected.Status, actual.Status, mr)...)
	return out
}

func rootPath() pathexpr.Path {
	return pathexpr.Path{Tokens: []pathexpr.Token{{Kind: pathexpr.Root}}}
}

func rootField(name string) pathexpr.Path {
	return pathexpr.Path{Tokens: []pathexpr.Token{{Kind: pathexpr.Root}, {Kind: pathexpr.Field, Name: name}}}
}

func childField(p pathexpr.Path, name string) pathexpr.Path {
	toks := append(append([]pathexpr.Token(nil), p.Tokens...), pathexpr.Token{Kind: pathexpr.Field, Name: name})
	return pathexpr.Path{Tokens: toks}
}

func childIndex(p pathexpr.Path, i int) pathexpr.Path {
	toks := append(append([]pathexpr.Token(nil), p.Tokens...), pathexpr.Token{Kind: pathexpr.Index, Index: i})
	return pathexpr.Path{Tokens: toks}
}

func lookupOrEquality(mr rules.MatchingRules, category rules.Category, p pathexpr.Path) rules.RuleSet {
	if rs, ok := mr.Lookup(category, p); ok {
		return rs
	}
	return rules.RuleSet{Rules: []rules.Rule{rules.Equality{}}, Combine: rules.CombineAND}
}

func compareMethod(expected, actual string) []Mismatch {
	if strings.EqualFold(expected, actual) {
		return nil
	}
	return []Mismatch{{Kind: MethodMismatchKind, Expected: expected, Actual: actual}}
}

func comparePath(expected, actual string, mr rules.MatchingRules) []Mismatch {
	rs := lookupOrEquality(mr, rules.CategoryPath, rootField("path"))
	if v := rs.Matches(expected, actual); v != nil {
		return []Mismatch{{Kind: PathMismatchKind, Expected: expected, Actual: actual, Detail: v.Message}}
	}
	return nil
}

func compareStatus(expected, actual int, mr rules.MatchingRules) []Mismatch {
	rs := lookupOrEquality(mr, rules.CategoryStatus, rootField("status"))
	if v := rs.Matches(expected, actual); v != nil {
		return []Mismatch{{Kind: StatusMismatchKind, Expected: expected, Actual: actual, Detail: v.Message}}
	}
	return nil
}

func toAnySlice(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func compareQuery(expected, actual *pact.MultiMap, mr rules.MatchingRules) []Mismatch {
	var out []Mismatch
	expectedKeys := multiMapKeys(expected)
	for _, k := range expectedKeys {
		expVals, _ := queryValues(expected, k)
		actVals, found := queryValues(actual, k)
		path := childField(rootField("query"), k)
		rs := lookupOrEquality(mr, rules.CategoryQuery, path)
		if !found {
			out = append(out, Mismatch{Kind: QueryMismatchKind, Parameter: k, Expected: expVals, Actual: nil, Detail: "missing query parameter"})
			continue
		}
		if v := rs.Matches(toAnySlice(expVals), toAnySlice(actVals)); v != nil {
			out = append(out, Mismatch{Kind: QueryMismatchKind, Parameter: k, Expected: expVals, Actual: actVals, Detail: v.Message})
		}
	}
	for _, k := range multiMapKeys(actual) {
		if _, found := queryValues(expected, k); !found {
			if !containsKey(expectedKeys, k) {
				vals, _ := queryValues(actual, k)
				out = append(out, Mismatch{Kind: QueryMismatchKind, Parameter: k, Expected: nil, Actual: vals, Detail: "unexpected query parameter"})
			}
		}
	}
	return out
}

func compareHeaders(expected, actual *pact.MultiMap, mr rules.MatchingRules) []Mismatch {
	var out []Mismatch
	expectedNames := lowercaseKeys(expected)
	lowerNames := make([]string, 0, len(expectedNames))
	for lower := range expectedNames {
		lowerNames = append(lowerNames, lower)
	}
	sort.Strings(lowerNames)
	for _, lower := range lowerNames {
		original := expectedNames[lower]
		expVals, _ := headerValues(expected, lower)
		actVals, found := headerValues(actual, lower)
		path := childField(rootField("headers"), lower)
		rs := lookupOrEquality(mr, rules.CategoryHeader, path)
		if !found {
			out = append(out, Mismatch{Kind: HeaderMismatchKind, Key: original, Expected: expVals, Actual: nil, Detail: "missing header"})
			continue
		}
		if len(expVals) == 1 && len(actVals) == 1 {
			if v := rs.Matches(strings.TrimSpace(expVals[0]), strings.TrimSpace(actVals[0])); v != nil {
				out = append(out, Mismatch{Kind: HeaderMismatchKind, Key: original, Expected: expVals[0], Actual: actVals[0], Detail: v.Message})
			}
			continue
		}
		if v := rs.Matches(toAnySlice(expVals), toAnySlice(actVals)); v != nil {
			if !sameValueSet(expVals, actVals) {
				out = append(out, Mismatch{Kind: HeaderMismatchKind, Key: original, Expected: expVals, Actual: actVals, Detail: v.Message})
			}
		}
	}
	if cth, found := contentTypeHeader(expected); found {
		if _, actualFound := contentTypeHeader(actual); !actualFound {
			if _, already := expectedNames["content-type"]; !already {
				actVal, _ := headerValues(actual, "content-type")
				out = append(out, Mismatch{Kind: HeaderMismatchKind, Key: "Content-Type", Expected: cth, Actual: actVal, Detail: "missing content-type header"})
			}
		}
	}
	return out
}

func compareBody(expected, actual pact.OptionalBody, mr rules.MatchingRules) []Mismatch {
	if expected.Kind != pact.BodyPresent {
		return nil
	}
	expectedType, _ := content.Parse(expected.ContentType)
	actualType, ok := content.Parse(actual.ContentType)
	if !ok {
		actualType = content.Sniff(actual.Bytes)
	}
	if mismatchedCategory(expectedType, actualType) {
		return []Mismatch{{Kind: BodyTypeMismatchKind, Expected: expected.ContentType, Actual: actual.ContentType}}
	}
	switch {
	case expectedType.IsJSON():
		return compareJSONBody(expected.Bytes, actual.Bytes, mr)
	case expectedType.IsXML():
		return compareXMLBody(expected.Bytes, actual.Bytes, mr)
	default:
		if content.BodiesEqual(expectedType, expected.Bytes, actualType, actual.Bytes) {
			return nil
		}
		return []Mismatch{{Kind: BodyMismatchKind, Path: "$", Expected: string(expected.Bytes), Actual: string(actual.Bytes), Detail: "byte-exact body mismatch"}}
	}
}

func mismatchedCategory(expected, actual content.ContentType) bool {
	switch {
	case expected.IsJSON():
		return !actual.IsJSON()
	case expected.IsXML():
		return !actual.IsXML()
	default:
		return false
	}
}

func compareJSONBody(expectedBytes, actualBytes []byte, mr rules.MatchingRules) []Mismatch {
	expected, actual, ok := decodeJSONPair(expectedBytes, actualBytes)
	if !ok {
		return []Mismatch{{Kind: BodyMismatchKind, Path: "$", Detail: "body is not valid JSON"}}
	}
	return walkJSON(rootPath(), expected, actual, mr)
}

func walkJSON(p pathexpr.Path, expected, actual interface{}, mr rules.MatchingRules) []Mismatch {
	rs := lookupOrEquality(mr, rules.CategoryBody, p)
	expMap, expIsObj := expected.(map[string]interface{})
	actMap, actIsObj := actual.(map[string]interface{})
	if expIsObj && actIsObj {
		var out []Mismatch
		expKeys := make([]string, 0, len(expMap))
		for k := range expMap {
			expKeys = append(expKeys, k)
		}
		sort.Strings(expKeys)
		for _, k := range expKeys {
			ev := expMap[k]
			av, present := actMap[k]
			if !present {
				out = append(out, Mismatch{Kind: BodyMismatchKind, Path: childField(p, k).String(), Expected: ev, Actual: nil, Detail: "missing key"})
				continue
			}
			out = append(out, walkJSON(childField(p, k), ev, av, mr)...)
		}
		var extraKeys []string
		for k := range actMap {
			if _, present := expMap[k]; !present {
				extraKeys = append(extraKeys, k)
			}
		}
		sort.Strings(extraKeys)
		for _, k := range extraKeys {
			out = append(out, Mismatch{Kind: BodyMismatchKind, Path: childField(p, k).String(), Expected: nil, Actual: actMap[k], Detail: "unexpected key"})
		}
		return out
	}
	expArr, expIsArr := expected.([]interface{})
	actArr, actIsArr := actual.([]interface{})
	if expIsArr && actIsArr {
		var out []Mismatch
		n := len(expArr)
		if len(actArr) < n {
			n = len(actArr)
		}
		for i := 0; i < n; i++ {
			out = append(out, walkJSON(childIndex(p, i), expArr[i], actArr[i], mr)...)
		}
		if len(actArr) != len(expArr) {
			out = append(out, Mismatch{Kind: BodyMismatchKind, Path: p.String(), Expected: len(expArr), Actual: len(actArr), Detail: "array length mismatch"})
		}
		return out
	}
	if v := rs.Matches(expected, actual); v != nil {
		return []Mismatch{{Kind: BodyMismatchKind, Path: p.String(), Expected: expected, Actual: actual, Detail: v.Message}}
	}
	return nil
}

func compareXMLBody(expectedBytes, actualBytes []byte, mr rules.MatchingRules) []Mismatch {
	expDoc, actDoc := etree.NewDocument(), etree.NewDocument()
	if err := expDoc.ReadFromBytes(expectedBytes); err != nil {
		return []Mismatch{{Kind: BodyMismatchKind, Path: "$", Detail: "expected body is not valid XML"}}
	}
	if err := actDoc.ReadFromBytes(actualBytes); err != nil {
		return []Mismatch{{Kind: BodyMismatchKind, Path: "$", Detail: "actual body is not valid XML"}}
	}
	return walkXML(rootPath(), expDoc.Root(), actDoc.Root(), mr)
}

func walkXML(p pathexpr.Path, expected, actual *etree.Element, mr rules.MatchingRules) []Mismatch {
	if expected == nil || actual == nil {
		if expected == actual {
			return nil
		}
		return []Mismatch{{Kind: BodyMismatchKind, Path: p.String(), Detail: "element presence mismatch"}}
	}
	var out []Mismatch
	if expected.Tag != actual.Tag || expected.Space != actual.Space {
		out = append(out, Mismatch{Kind: BodyMismatchKind, Path: p.String(), Expected: expected.Tag, Actual: actual.Tag, Detail: "element name mismatch"})
	}
	for _, attr := range expected.Attr {
		attrPath := childField(p, "@"+attr.Key)
		rs := lookupOrEquality(mr, rules.CategoryBody, attrPath)
		actAttr := actual.SelectAttr(attr.Key)
		if actAttr == nil {
			out = append(out, Mismatch{Kind: BodyMismatchKind, Path: attrPath.String(), Expected: attr.Value, Actual: nil, Detail: "missing attribute"})
			continue
		}
		if v := rs.Matches(attr.Value, actAttr.Value); v != nil {
			out = append(out, Mismatch{Kind: BodyMismatchKind, Path: attrPath.String(), Expected: attr.Value, Actual: actAttr.Value, Detail: v.Message})
		}
	}
	textPath := p
	rs := lookupOrEquality(mr, rules.CategoryBody, textPath)
	if len(expected.ChildElements()) == 0 {
		if v := rs.Matches(strings.TrimSpace(expected.Text()), strings.TrimSpace(actual.Text())); v != nil {
			out = append(out, Mismatch{Kind: BodyMismatchKind, Path: textPath.String(), Expected: expected.Text(), Actual: actual.Text(), Detail: v.Message})
		}
	}
	expChildren, actChildren := expected.ChildElements(), actual.ChildElements()
	n := len(expChildren)
	if len(actChildren) < n {
		n = len(actChildren)
	}
	for i := 0; i < n; i++ {
		out = append(out, walkXML(childIndex(p, i), expChildren[i], actChildren[i], mr)...)
	}
	if len(actChildren) != len(expChildren) {
		out = append(out, Mismatch{Kind: BodyMismatchKind, Path: p.String(), Expected: len(expChildren), Actual: len(actChildren), Detail: "child element count mismatch"})
	}
	return out
}
