package pathexpr

import "github.com/beevik/etree"

// ResolveXML walks root following p and returns the elements it addresses.
// A field token matches child elements by local tag name (namespace prefix
// ignored, mirroring how the corpus resolves SOAP element names). A
// wildcard matches every child element at its position. An index token
// selects the nth child that already matched the preceding field or
// wildcard token, zero-based.
func ResolveXML(root *etree.Element, p Path) []*etree.Element {
	if p.IsRoot() {
		if root == nil {
			return nil
		}
		return []*etree.Element{root}
	}
	if root == nil {
		return nil
	}
	return resolveXMLTokens([]*etree.Element{root}, p.Tokens[1:])
}

func resolveXMLTokens(nodes []*etree.Element, toks []Token) []*etree.Element {
	if len(toks) == 0 {
		return nodes
	}
	tok := toks[0]
	rest := toks[1:]

	switch tok.Kind {
	case Field:
		var next []*etree.Element
		for _, n := range nodes {
			next = append(next, childrenByLocalName(n, tok.Name)...)
		}
		return resolveXMLTokens(next, rest)

	case Wildcard:
		var next []*etree.Element
		for _, n := range nodes {
			next = append(next, n.ChildElements()...)
		}
		return resolveXMLTokens(next, rest)

	case Index:
		// An index token narrows the most recently matched set of
		// siblings (produced by the preceding field/wildcard token) to
		// its nth member; it is only meaningful immediately following
		// one of those.
		if tok.Index < 0 || tok.Index >= len(nodes) {
			return nil
		}
		return resolveXMLTokens([]*etree.Element{nodes[tok.Index]}, rest)

	default:
		return nil
	}
}

func childrenByLocalName(parent *etree.Element, localName string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if localName == child.Tag {
			out = append(out, child)
		}
	}
	return out
}
