package content

import (
	"encoding/json"
	"strings"

	"github.com/beevik/etree"
)

// BodiesEqual compares two bodies for equality given their effective
// content types, per spec.md §4.B: JSON bodies compare structurally
// (object key order irrelevant), XML bodies compare by normalized
// element tree, anything else compares byte-exact.
func BodiesEqual(aType ContentType, a []byte, bType ContentType, b []byte) bool {
	switch {
	case aType.IsJSON() && bType.IsJSON():
		return jsonEqual(a, b)
	case aType.IsXML() && bType.IsXML():
		return xmlEqual(a, b)
	default:
		return bytesEqual(a, b)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func jsonEqual(a, b []byte) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return nodesEqual(av, bv)
}

func nodesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aval := range av {
			bval, present := bv[k]
			if !present || !nodesEqual(aval, bval) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !nodesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

func xmlEqual(a, b []byte) bool {
	da, db := etree.NewDocument(), etree.NewDocument()
	if err := da.ReadFromBytes(a); err != nil {
		return false
	}
	if err := db.ReadFromBytes(b); err != nil {
		return false
	}
	return elementsEqual(da.Root(), db.Root())
}

func elementsEqual(a, b *etree.Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Space != b.Space {
		return false
	}
	if !attrsEqual(a.Attr, b.Attr) {
		return false
	}
	if normalizeText(a.Text()) != normalizeText(b.Text()) {
		return false
	}
	ac, bc := a.ChildElements(), b.ChildElements()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !elementsEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b []etree.Attr) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]string, len(a))
	for _, attr := range a {
		am[attrKey(attr)] = attr.Value
	}
	for _, attr := range b {
		v, ok := am[attrKey(attr)]
		if !ok || v != attr.Value {
			return false
		}
	}
	return true
}

func attrKey(attr etree.Attr) string {
	if attr.Space == "" {
		return attr.Key
	}
	return attr.Space + ":" + attr.Key
}

func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
