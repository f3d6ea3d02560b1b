// Package resolve implements the value resolvers that extract a NodeValue
// at a document path from either a live HTTP request or the "current
// stack" value produced while walking a body during matching.
package resolve

import "github.com/beevik/etree"

// NodeKind discriminates the NodeValue tagged union exchanged by the
// resolver and matching engine.
type NodeKind int

const (
	NULL NodeKind = iota
	STRING
	SLIST
	LIST
	MMAP
	BARRAY
	JSON
	XML
)

func (k NodeKind) String() string {
	switch k {
	case NULL:
		return "NULL"
	case STRING:
		return "STRING"
	case SLIST:
		return "SLIST"
	case LIST:
		return "LIST"
	case MMAP:
		return "MMAP"
	case BARRAY:
		return "BARRAY"
	case JSON:
		return "JSON"
	case XML:
		return "XML"
	default:
		return "UNKNOWN"
	}
}

// NodeValue is the closed sum of values a resolver can produce: a plain
// string, a string list, a list of NodeValues, a string multimap, a raw
// byte array, a parsed JSON value, or an XML element.
type NodeValue struct {
	Kind    NodeKind
	Str     string
	SList   []string
	List    []NodeValue
	MMap    map[string][]string
	Bytes   []byte
	JSONVal interface{}
	XMLVal  *etree.Element
}

// Null is the NULL NodeValue.
func Null() NodeValue { return NodeValue{Kind: NULL} }

// OfString wraps a string as a STRING NodeValue.
func OfString(s string) NodeValue { return NodeValue{Kind: STRING, Str: s} }

// OfSList wraps a string list as an SLIST NodeValue.
func OfSList(v []string) NodeValue { return NodeValue{Kind: SLIST, SList: v} }

// OfList wraps a NodeValue list as a LIST NodeValue.
func OfList(v []NodeValue) NodeValue { return NodeValue{Kind: LIST, List: v} }

// OfMMap wraps a string multimap as an MMAP NodeValue.
func OfMMap(v map[string][]string) NodeValue { return NodeValue{Kind: MMAP, MMap: v} }

// OfBytes wraps raw bytes as a BARRAY NodeValue.
func OfBytes(b []byte) NodeValue { return NodeValue{Kind: BARRAY, Bytes: b} }

// OfJSON wraps a decoded JSON value as a JSON NodeValue.
func OfJSON(v interface{}) NodeValue { return NodeValue{Kind: JSON, JSONVal: v} }

// OfXML wraps an XML element as an XML NodeValue.
func OfXML(el *etree.Element) NodeValue { return NodeValue{Kind: XML, XMLVal: el} }

// NodeResult is one slot of the interpreter's value stack: either a
// NodeValue, or an empty slot (pushed where an operation produced no
// meaningful value for a later resolution step to consume).
type NodeResult struct {
	Value NodeValue
	Empty bool
}

// Stack is the interpreter's value stack that CurrentStackValueResolver
// consumes the top of.
type Stack struct {
	items []NodeResult
}

// NewStack returns an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Push pushes a resolved value onto the stack.
func (s *Stack) Push(v NodeValue) { s.items = append(s.items, NodeResult{Value: v}) }

// PushEmpty pushes an empty slot onto the stack.
func (s *Stack) PushEmpty() { s.items = append(s.items, NodeResult{Empty: true}) }

// Pop removes and returns the top of the stack.
func (s *Stack) Pop() (NodeResult, bool) {
	if len(s.items) == 0 {
		return NodeResult{}, false
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// Top returns the top of the stack without removing it.
func (s *Stack) Top() (NodeResult, bool) {
	if len(s.items) == 0 {
		return NodeResult{}, false
	}
	return s.items[len(s.items)-1], true
}
