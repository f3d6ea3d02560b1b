package pact

import (
	"encoding/json"
	"fmt"

	"github.com/pactanvil/pactcore/internal/content"
	"github.com/pactanvil/pactcore/internal/rules"
)

// MarshalCanonical renders d as the canonical pact JSON form: two-space
// indentation, object keys sorted at every level (a property
// encoding/json already guarantees for map[string]any), interactions in
// insertion order, and metadata.pactSpecification.version always set.
func (d Document) MarshalCanonical() ([]byte, error) {
	return json.MarshalIndent(d.toWireMap(), "", "  ")
}

func (d Document) toWireMap() map[string]interface{} {
	interactions := make([]interface{}, len(d.Interactions))
	for i, it := range d.Interactions {
		interactions[i] = interactionToWire(it, d.Version)
	}

	metadata := map[string]interface{}{}
	for k, v := range d.Metadata {
		metadata[k] = v
	}
	metadata["pactSpecification"] = map[string]interface{}{"version": string(d.Version)}

	return map[string]interface{}{
		"consumer":     map[string]interface{}{"name": d.Consumer},
		"provider":     map[string]interface{}{"name": d.Provider},
		"interactions": interactions,
		"metadata":     metadata,
	}
}

func interactionToWire(it Interaction, version SpecVersion) map[string]interface{} {
	wire := map[string]interface{}{
		"description": it.Description,
	}
	if len(it.ProviderStates) > 0 && version != V1 {
		wire["providerStates"] = providerStatesToWire(it.ProviderStates)
	} else if len(it.ProviderStates) > 0 && version == V1 {
		wire["providerState"] = it.ProviderStates[0].Name
	}
	if it.Message != nil {
		wire["contents"] = bodyToWire(it.Message.Contents)
		if it.Message.Metadata != nil {
			wire["metadata"] = it.Message.Metadata
		}
		if len(it.Message.MatchingRules) > 0 {
			wire["matchingRules"] = matchingRulesToWire(it.Message.MatchingRules)
		}
		if version == V4 {
			wire["type"] = "Asynchronous/Messages"
		}
		return wire
	}
	if it.Request != nil {
		wire["request"] = requestToWire(*it.Request)
	}
	if it.Response != nil {
		wire["response"] = responseToWire(*it.Response)
	}
	if len(it.MatchingRules) > 0 {
		wire["matchingRules"] = matchingRulesToWire(it.MatchingRules)
	}
	if version == V4 {
		wire["type"] = "Synchronous/HTTP"
	}
	return wire
}

func providerStatesToWire(states []ProviderState) []interface{} {
	out := make([]interface{}, len(states))
	for i, s := range states {
		params := s.Params
		if params == nil {
			params = map[string]interface{}{}
		}
		out[i] = map[string]interface{}{"name": s.Name, "params": params}
	}
	return out
}

func requestToWire(r Request) map[string]interface{} {
	wire := map[string]interface{}{
		"method": r.Method,
		"path":   r.Path,
	}
	if r.Query != nil && len(r.Query.Keys()) > 0 {
		wire["query"] = multiMapToWire(r.Query)
	}
	if r.Headers != nil && len(r.Headers.Keys()) > 0 {
		wire["headers"] = headersToWire(r.Headers)
	}
	if body := bodyToWire(r.Body); body != nil {
		wire["body"] = body
	}
	return wire
}

func responseToWire(r Response) map[string]interface{} {
	wire := map[string]interface{}{
		"status": r.Status,
	}
	if r.Headers != nil && len(r.Headers.Keys()) > 0 {
		wire["headers"] = headersToWire(r.Headers)
	}
	if body := bodyToWire(r.Body); body != nil {
		wire["body"] = body
	}
	return wire
}

func multiMapToWire(m *MultiMap) map[string]interface{} {
	out := map[string]interface{}{}
	for _, k := range m.Keys() {
		vals, _ := m.Get(k)
		asIface := make([]interface{}, len(vals))
		for i, v := range vals {
			asIface[i] = v
		}
		out[k] = asIface
	}
	return out
}

func headersToWire(m *MultiMap) map[string]interface{} {
	return multiMapToWire(m)
}

func bodyToWire(b OptionalBody) interface{} {
	switch b.Kind {
	case BodyMissing:
		return nil
	case BodyNull:
		return json.RawMessage("null")
	case BodyEmpty:
		return ""
	case BodyPresent:
		ct, _ := content.Parse(b.ContentType)
		if ct.IsJSON() {
			var v interface{}
			if err := json.Unmarshal(b.Bytes, &v); err == nil {
				return v
			}
		}
		return string(b.Bytes)
	default:
		return nil
	}
}

func matchingRulesToWire(mr rules.MatchingRules) map[string]interface{} {
	out := map[string]interface{}{}
	for category, byPath := range mr {
		cat := map[string]interface{}{}
		for path, rs := range byPath {
			cat[path] = ruleSetToWire(rs)
		}
		out[string(category)] = cat
	}
	return out
}

func ruleSetToWire(rs rules.RuleSet) map[string]interface{} {
	matchers := make([]interface{}, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		matchers = append(matchers, ruleToWire(r))
	}
	combine := "AND"
	if rs.Combine == rules.CombineOR {
		combine = "OR"
	}
	return map[string]interface{}{
		"matchers": matchers,
		"combine":  combine,
	}
}

func ruleToWire(r rules.Rule) map[string]interface{} {
	switch v := r.(type) {
	case rules.Equality:
		return map[string]interface{}{"match": "equality"}
	case rules.Type:
		return map[string]interface{}{"match": "type"}
	case rules.Regex:
		return map[string]interface{}{"match": "regex", "regex": v.Pattern}
	case rules.Include:
		return map[string]interface{}{"match": "include", "value": v.Value}
	case rules.MinType:
		return map[string]interface{}{"match": "type", "min": v.Min}
	case rules.MaxType:
		return map[string]interface{}{"match": "type", "max": v.Max}
	case rules.MinMaxType:
		return map[string]interface{}{"match": "type", "min": v.Min, "max": v.Max}
	case rules.Number:
		return map[string]interface{}{"match": "number"}
	case rules.Integer:
		return map[string]interface{}{"match": "integer"}
	case rules.Decimal:
		return map[string]interface{}{"match": "decimal"}
	case rules.Boolean:
		return map[string]interface{}{"match": "boolean"}
	case rules.Null:
		return map[string]interface{}{"match": "null"}
	case rules.Date:
		return map[string]interface{}{"match": "date", "format": v.Format}
	case rules.Time:
		return map[string]interface{}{"match": "time", "format": v.Format}
	case rules.Timestamp:
		return map[string]interface{}{"match": "timestamp", "format": v.Format}
	case rules.ContentType:
		return map[string]interface{}{"match": "contentType", "value": v.Mime}
	default:
		return map[string]interface{}{"match": fmt.Sprintf("%T", r)}
	}
}
