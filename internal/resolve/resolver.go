package resolve

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/pactanvil/pactcore/internal/pathexpr"
	"github.com/pactanvil/pactcore/pkg/pact"
)

// Resolver extracts a NodeValue at a document path from some context.
type Resolver interface {
	Resolve(p pathexpr.Path) (NodeValue, error)
}

// HTTPRequestResolver resolves paths against a live or expected HTTP
// request: method, path, query, headers, content-type, and body.
type HTTPRequestResolver struct {
	Request pact.Request
}

func (r HTTPRequestResolver) Resolve(p pathexpr.Path) (NodeValue, error) {
	field, ok := p.FirstField()
	if !ok {
		return NodeValue{}, fmt.Errorf("%s is not valid for a HTTP request", p.String())
	}
	switch field {
	case "method":
		return OfString(r.Request.Method), nil
	case "path":
		return OfString(r.Request.Path), nil
	case "query":
		return r.resolveQuery(p)
	case "headers":
		return r.resolveHeaders(p)
	case "content-type":
		return r.resolveContentType(), nil
	case "body":
		if p.Len() == 2 {
			if r.Request.Body.Kind == pact.BodyPresent {
				return OfBytes(r.Request.Body.Bytes), nil
			}
			return Null(), nil
		}
		return NodeValue{}, fmt.Errorf("%s is not valid for a HTTP request", p.String())
	default:
		return NodeValue{}, fmt.Errorf("%s is not valid for a HTTP request", p.String())
	}
}

func (r HTTPRequestResolver) resolveQuery(p pathexpr.Path) (NodeValue, error) {
	if p.Len() == 2 || (p.Len() == 3 && p.IsWildcard()) {
		return OfMMap(multiMapToStringLists(r.Request.Query)), nil
	}
	if p.Len() == 3 {
		name, _ := p.LastField()
		vals, found := lookupMultiMap(r.Request.Query, name)
		if !found {
			return Null(), nil
		}
		if len(vals) == 1 {
			return OfString(vals[0]), nil
		}
		return OfSList(vals), nil
	}
	return NodeValue{}, fmt.Errorf("%s is not valid for a HTTP request query parameters", p.String())
}

func (r HTTPRequestResolver) resolveHeaders(p pathexpr.Path) (NodeValue, error) {
	headers := lowercasedMultiMap(r.Request.Headers)
	switch {
	case p.Len() == 2 || (p.Len() == 3 && p.IsWildcard()):
		return OfMMap(headers), nil
	case p.Len() == 3:
		name, _ := p.LastField()
		vals, found := headers[lowercase(name)]
		if !found {
			return Null(), nil
		}
		if len(vals) == 1 {
			return OfString(vals[0]), nil
		}
		return OfSList(vals), nil
	case p.Len() == 4 && p.IsIndex():
		fieldName, _ := fieldAt(p, 2)
		vals, found := headers[lowercase(fieldName)]
		if !found {
			return Null(), nil
		}
		idx := p.Last().Index
		if idx < 0 || idx >= len(vals) {
			return Null(), nil
		}
		return OfString(vals[idx]), nil
	default:
		return NodeValue{}, fmt.Errorf("%s is not valid for HTTP request headers", p.String())
	}
}

func fieldAt(p pathexpr.Path, i int) (string, bool) {
	if i < 0 || i >= len(p.Tokens) {
		return "", false
	}
	t := p.Tokens[i]
	if t.Kind != pathexpr.Field {
		return "", false
	}
	return t.Name, true
}

func (r HTTPRequestResolver) resolveContentType() NodeValue {
	if r.Request.Body.Kind == pact.BodyPresent && r.Request.Body.ContentType != "" {
		return OfString(r.Request.Body.ContentType)
	}
	if v, found := lookupCaseInsensitiveHeader(headerStringsOf(r.Request.Headers)); found {
		return OfString(v)
	}
	return Null()
}

func lookupCaseInsensitiveHeader(headers map[string]string) (string, bool) {
	for k, v := range headers {
		if lowercase(k) == "content-type" {
			return v, true
		}
	}
	return "", false
}

func headerStringsOf(m *pact.MultiMap) map[string]string {
	if m == nil {
		return nil
	}
	out := map[string]string{}
	for _, k := range m.Keys() {
		vals, _ := m.Get(k)
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

func multiMapToStringLists(m *pact.MultiMap) map[string][]string {
	out := map[string][]string{}
	if m == nil {
		return out
	}
	for _, k := range m.Keys() {
		vals, _ := m.Get(k)
		out[k] = vals
	}
	return out
}

func lowercasedMultiMap(m *pact.MultiMap) map[string][]string {
	out := map[string][]string{}
	if m == nil {
		return out
	}
	for _, k := range m.Keys() {
		vals, _ := m.Get(k)
		out[lowercase(k)] = vals
	}
	return out
}

func lookupMultiMap(m *pact.MultiMap, name string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	return m.Get(name)
}

func lowercase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// CurrentStackValueResolver resolves paths against the top value of an
// interpreter stack produced while walking a JSON or XML body.
type CurrentStackValueResolver struct {
	Stack *Stack
}

func (r CurrentStackValueResolver) Resolve(p pathexpr.Path) (NodeValue, error) {
	top, ok := r.Stack.Top()
	if !ok || top.Empty {
		return NodeValue{}, fmt.Errorf("can not resolve '%s', current value stack is either empty or contains an empty value", p.String())
	}
	value := top.Value
	switch value.Kind {
	case NULL:
		return NodeValue{}, fmt.Errorf("can not resolve '%s', current stack value does not contain a value (is NULL)", p.String())
	case JSON:
		return resolveJSONNode(p, value.JSONVal)
	case XML:
		return resolveXMLNode(p, value.XMLVal)
	default:
		return NodeValue{}, fmt.Errorf("can not resolve '%s', current stack value does not contain a value that is resolvable", p.String())
	}
}

func resolveJSONNode(p pathexpr.Path, data interface{}) (NodeValue, error) {
	if p.IsRoot() {
		return OfJSON(data), nil
	}
	pointers := pathexpr.ResolveJSON(data, p)
	switch len(pointers) {
	case 0:
		return Null(), nil
	case 1:
		val, found := pathexpr.LookupPointer(data, pointers[0])
		if !found {
			return Null(), nil
		}
		return OfJSON(val), nil
	default:
		values := make([]interface{}, 0, len(pointers))
		for _, ptr := range pointers {
			val, found := pathexpr.LookupPointer(data, ptr)
			if !found {
				val = nil
			}
			values = append(values, val)
		}
		return OfJSON(values), nil
	}
}

func resolveXMLNode(p pathexpr.Path, root *etree.Element) (NodeValue, error) {
	if p.IsRoot() {
		return OfXML(root), nil
	}
	elements := pathexpr.ResolveXML(root, p)
	switch len(elements) {
	case 0:
		return Null(), nil
	case 1:
		return OfXML(elements[0]), nil
	default:
		values := make([]NodeValue, 0, len(elements))
		for _, el := range elements {
			values = append(values, OfXML(el))
		}
		return OfList(values), nil
	}
}
