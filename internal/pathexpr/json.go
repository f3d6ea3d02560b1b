package pathexpr

import (
	"sort"
	"strconv"
	"strings"
)

// ResolveJSON walks data following p and returns the JSON Pointer (RFC 6901)
// strings it addresses. A wildcard token expands to one pointer per sibling
// key or element present at that position; a field or index token that
// does not exist in data contributes no pointer at all. The root path
// resolves to a single pointer, the empty string.
func ResolveJSON(data interface{}, p Path) []string {
	if p.IsRoot() {
		return []string{""}
	}
	return resolveJSONTokens(data, "", p.Tokens[1:])
}

func resolveJSONTokens(node interface{}, pointer string, toks []Token) []string {
	if len(toks) == 0 {
		return []string{pointer}
	}
	tok := toks[0]
	rest := toks[1:]

	switch tok.Kind {
	case Field:
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		child, present := obj[tok.Name]
		if !present {
			return nil
		}
		return resolveJSONTokens(child, pointer+"/"+escapePointerSegment(tok.Name), rest)

	case Index:
		arr, ok := node.([]interface{})
		if !ok || tok.Index < 0 || tok.Index >= len(arr) {
			return nil
		}
		return resolveJSONTokens(arr[tok.Index], pointer+"/"+strconv.Itoa(tok.Index), rest)

	case Wildcard:
		var out []string
		switch v := node.(type) {
		case map[string]interface{}:
			keys := make([]string, 0, len(v))
			for key := range v {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				out = append(out, resolveJSONTokens(v[key], pointer+"/"+escapePointerSegment(key), rest)...)
			}
		case []interface{}:
			for i, child := range v {
				out = append(out, resolveJSONTokens(child, pointer+"/"+strconv.Itoa(i), rest)...)
			}
		}
		return out

	default:
		return nil
	}
}

// escapePointerSegment applies the RFC 6901 escaping rules ("~" -> "~0",
// "/" -> "~1") to a single reference token.
func escapePointerSegment(segment string) string {
	if !strings.ContainsAny(segment, "~/") {
		return segment
	}
	segment = strings.ReplaceAll(segment, "~", "~0")
	segment = strings.ReplaceAll(segment, "/", "~1")
	return segment
}

// LookupPointer dereferences a single RFC 6901 JSON Pointer against data,
// returning the addressed value and whether it was found.
func LookupPointer(data interface{}, pointer string) (interface{}, bool) {
	if pointer == "" {
		return data, true
	}
	segs := strings.Split(pointer, "/")[1:]
	cur := data
	for _, seg := range segs {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		switch v := cur.(type) {
		case map[string]interface{}:
			child, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = child
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
