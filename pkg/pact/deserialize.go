package pact

import (
	"encoding/json"
	"fmt"

	"github.com/pactanvil/pactcore/internal/content"
	"github.com/pactanvil/pactcore/internal/rules"
)

// Unmarshal parses raw pact JSON bytes into a Document, dispatching on
// metadata.pactSpecification.version per spec.md §4.D/§4.H. It returns
// ErrUnsupportedSpec if the version is absent or unrecognized.
func Unmarshal(raw []byte) (Document, error) {
	var top map[string]interface{}
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("pact: invalid JSON: %w", err)
	}

	rawVersion := specVersionString(top)
	version, ok := ParseSpecVersion(rawVersion)
	if !ok {
		return Document{}, ErrUnsupportedSpec{Raw: rawVersion}
	}

	doc := Document{
		Consumer: nameField(top, "consumer"),
		Provider: nameField(top, "provider"),
		Version:  version,
		Metadata: metadataWithoutSpec(top),
	}

	rawInteractions, _ := top["interactions"].([]interface{})
	for i, raw := range rawInteractions {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		it, err := interactionFromWire(obj, version, i)
		if err != nil {
			return Document{}, err
		}
		doc.Interactions = append(doc.Interactions, it)
	}

	return doc, nil
}

func specVersionString(top map[string]interface{}) string {
	meta, ok := top["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	spec, ok := meta["pactSpecification"].(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := spec["version"].(string)
	return v
}

func metadataWithoutSpec(top map[string]interface{}) map[string]interface{} {
	meta, ok := top["metadata"].(map[string]interface{})
	if !ok {
		return nil
	}
	out := map[string]interface{}{}
	for k, v := range meta {
		if k == "pactSpecification" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func nameField(top map[string]interface{}, key string) string {
	obj, ok := top[key].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := obj["name"].(string)
	return name
}

func interactionFromWire(obj map[string]interface{}, version SpecVersion, index int) (Interaction, error) {
	it := Interaction{}

	desc, _ := obj["description"].(string)
	isMessage := obj["contents"] != nil || obj["type"] == "Asynchronous/Messages"
	if desc == "" {
		if isMessage {
			desc = fmt.Sprintf("Message %d", index+1)
		} else {
			desc = fmt.Sprintf("Interaction %d", index+1)
		}
	}
	it.Description = desc

	it.ProviderStates = providerStatesFromWire(obj)

	mr, err := matchingRulesFromWire(obj["matchingRules"])
	if err != nil {
		return Interaction{}, err
	}

	if isMessage {
		contentsRaw, contentsPresent := obj["contents"]
		contents, err := bodyFromWire(contentsRaw, contentsPresent, headerStrings(obj, "metadata"))
		if err != nil {
			return Interaction{}, err
		}
		metadata, _ := obj["metadata"].(map[string]interface{})
		it.Message = &Message{
			Description:    desc,
			ProviderStates: it.ProviderStates,
			Contents:       contents,
			Metadata:       metadata,
			MatchingRules:  mr,
		}
		return it, nil
	}

	it.MatchingRules = mr

	if reqRaw, ok := obj["request"].(map[string]interface{}); ok {
		req, err := requestFromWire(reqRaw)
		if err != nil {
			return Interaction{}, err
		}
		it.Request = &req
	}
	if respRaw, ok := obj["response"].(map[string]interface{}); ok {
		resp, err := responseFromWire(respRaw)
		if err != nil {
			return Interaction{}, err
		}
		it.Response = &resp
	}

	return it, nil
}

// providerStatesFromWire reads the v3+ "providerStates" array. The v1
// legacy singular "providerState" field is ignored on deserialization,
// per spec.md §9's preserved open question.
func providerStatesFromWire(obj map[string]interface{}) []ProviderState {
	if raw, ok := obj["providerStates"].([]interface{}); ok {
		out := make([]ProviderState, 0, len(raw))
		for _, r := range raw {
			m, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			params, _ := m["params"].(map[string]interface{})
			out = append(out, ProviderState{Name: name, Params: params})
		}
		return out
	}
	return nil
}

func requestFromWire(obj map[string]interface{}) (Request, error) {
	method, _ := obj["method"].(string)
	path, _ := obj["path"].(string)
	req := Request{
		Method:  normalizeMethod(method),
		Path:    path,
		Query:   multiMapFromWireQuery(obj["query"]),
		Headers: multiMapFromWire(obj["headers"]),
	}
	bodyRaw, bodyPresent := obj["body"]
	body, err := bodyFromWire(bodyRaw, bodyPresent, headersAsStrings(req.Headers))
	if err != nil {
		return Request{}, err
	}
	req.Body = body
	return req, nil
}

func responseFromWire(obj map[string]interface{}) (Response, error) {
	status := 0
	if f, ok := obj["status"].(float64); ok {
		status = int(f)
	}
	resp := Response{
		Status:  status,
		Headers: multiMapFromWire(obj["headers"]),
	}
	bodyRaw, bodyPresent := obj["body"]
	body, err := bodyFromWire(bodyRaw, bodyPresent, headersAsStrings(resp.Headers))
	if err != nil {
		return Response{}, err
	}
	resp.Body = body
	return resp, nil
}

func normalizeMethod(m string) string {
	out := make([]byte, len(m))
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func multiMapFromWire(raw interface{}) *MultiMap {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	m := NewMultiMap()
	for k, v := range obj {
		switch vv := v.(type) {
		case []interface{}:
			for _, item := range vv {
				if s, ok := item.(string); ok {
					m.Add(k, s)
				}
			}
		case string:
			m.Add(k, vv)
		}
	}
	return m
}

// multiMapFromWireQuery additionally accepts the legacy v1/v2
// "k=v&k2=v2" raw query string form alongside the v3+ map form.
func multiMapFromWireQuery(raw interface{}) *MultiMap {
	if s, ok := raw.(string); ok {
		m := NewMultiMap()
		for _, pair := range splitAndTrim(s, "&") {
			k, v, _ := cutByte(pair, '=')
			m.Add(k, v)
		}
		return m
	}
	return multiMapFromWire(raw)
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			out = append(out, s[start:i])
			start = i + len(sep)
		}
	}
	out = append(out, s[start:])
	return out
}

func cutByte(s string, b byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func headersAsStrings(h *MultiMap) map[string]string {
	if h == nil {
		return nil
	}
	out := map[string]string{}
	for _, k := range h.Keys() {
		vals, _ := h.Get(k)
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

func headerStrings(obj map[string]interface{}, key string) map[string]string {
	meta, ok := obj[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := map[string]string{}
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// bodyFromWire implements the OptionalBody decoding rules of spec.md
// §4.D: absent field -> Missing, JSON null -> Null, a JSON
// object/array -> canonicalized compact JSON bytes, a string -> its raw
// bytes, anything else JSON-decodable -> its compact JSON form.
func bodyFromWire(raw interface{}, present bool, metadata map[string]string) (OptionalBody, error) {
	if !present {
		return Missing(), nil
	}
	if raw == nil {
		return Null(), nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return Empty(), nil
		}
		ct := content.Detect(nil, metadata, []byte(v))
		return Present([]byte(v), ct.String(), ct.Charset), nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return OptionalBody{}, fmt.Errorf("pact: re-encoding body: %w", err)
		}
		ct := content.Detect(nil, metadata, b)
		if ct.Type == "" {
			ct = content.ContentType{Type: "application", Subtype: "json"}
		}
		return Present(b, ct.String(), ct.Charset), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return OptionalBody{}, fmt.Errorf("pact: re-encoding body: %w", err)
		}
		return Present(b, "application/json", ""), nil
	}
}

func matchingRulesFromWire(raw interface{}) (rules.MatchingRules, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	out := rules.MatchingRules{}
	for categoryName, byPathRaw := range obj {
		byPathObj, ok := byPathRaw.(map[string]interface{})
		if !ok {
			continue
		}
		category := rules.Category(categoryName)
		byPath := map[string]rules.RuleSet{}
		for path, rsRaw := range byPathObj {
			rsObj, ok := rsRaw.(map[string]interface{})
			if !ok {
				continue
			}
			rs, err := ruleSetFromWire(rsObj)
			if err != nil {
				return nil, fmt.Errorf("pact: matching rule at %s %s: %w", categoryName, path, err)
			}
			byPath[path] = rs
		}
		out[category] = byPath
	}
	return out, nil
}

func ruleSetFromWire(obj map[string]interface{}) (rules.RuleSet, error) {
	rs := rules.RuleSet{Combine: rules.CombineAND}
	if c, ok := obj["combine"].(string); ok && c == "OR" {
		rs.Combine = rules.CombineOR
	}
	rawMatchers, _ := obj["matchers"].([]interface{})
	for _, rm := range rawMatchers {
		m, ok := rm.(map[string]interface{})
		if !ok {
			continue
		}
		rule, err := ruleFromWire(m)
		if err != nil {
			return rules.RuleSet{}, err
		}
		rs.Rules = append(rs.Rules, rule)
	}
	return rs, nil
}

func ruleFromWire(m map[string]interface{}) (rules.Rule, error) {
	match, _ := m["match"].(string)
	switch match {
	case "", "equality":
		return rules.Equality{}, nil
	case "type":
		hasMin, min := intField(m, "min")
		hasMax, max := intField(m, "max")
		switch {
		case hasMin && hasMax:
			return rules.MinMaxType{Min: min, Max: max}, nil
		case hasMin:
			return rules.MinType{Min: min}, nil
		case hasMax:
			return rules.MaxType{Max: max}, nil
		default:
			return rules.Type{}, nil
		}
	case "regex":
		pattern, _ := m["regex"].(string)
		return rules.Regex{Pattern: pattern}, nil
	case "include":
		v, _ := m["value"].(string)
		return rules.Include{Value: v}, nil
	case "number":
		return rules.Number{}, nil
	case "integer":
		return rules.Integer{}, nil
	case "decimal":
		return rules.Decimal{}, nil
	case "boolean":
		return rules.Boolean{}, nil
	case "null":
		return rules.Null{}, nil
	case "date":
		f, _ := m["format"].(string)
		return rules.Date{Format: f}, nil
	case "time":
		f, _ := m["format"].(string)
		return rules.Time{Format: f}, nil
	case "timestamp":
		f, _ := m["format"].(string)
		return rules.Timestamp{Format: f}, nil
	case "contentType":
		v, _ := m["value"].(string)
		return rules.ContentType{Mime: v}, nil
	default:
		return nil, fmt.Errorf("unknown matcher type %q", match)
	}
}

func intField(m map[string]interface{}, key string) (bool, int) {
	f, ok := m[key].(float64)
	if !ok {
		return false, 0
	}
	return true, int(f)
}
