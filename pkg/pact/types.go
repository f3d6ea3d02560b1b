// Package pact is the in-memory contract document model: interactions,
// requests/responses, messages, bodies, and versioned (de)serialization
// to and from the canonical pact JSON form.
package pact

import (
	"fmt"

	"github.com/pactanvil/pactcore/internal/rules"
)

// SpecVersion is the contract schema revision that governs
// deserialization rules and the serialized "pactSpecification" field.
type SpecVersion string

const (
	V1  SpecVersion = "1.0.0"
	V11 SpecVersion = "1.1.0"
	V2  SpecVersion = "2.0.0"
	V3  SpecVersion = "3.0.0"
	V4  SpecVersion = "4.0"
)

// ParseSpecVersion maps a raw "pactSpecification.version" string to a
// SpecVersion, reporting ok=false for anything unrecognized.
func ParseSpecVersion(s string) (SpecVersion, bool) {
	switch SpecVersion(s) {
	case V1, V11, V2, V3, V4:
		return SpecVersion(s), true
	default:
		return "", false
	}
}

// ProviderState is a named precondition the provider must be placed in
// before an interaction is replayed, with optional parameters.
type ProviderState struct {
	Name   string
	Params map[string]interface{}
}

// MultiMap is an ordered multimap from name to list of values, used for
// both query parameters and headers. Order within a key's value list is
// preserved. Get matches names exactly; case-insensitive header lookup is
// done by internal/resolve, which lowercases the names it reads.
type MultiMap struct {
	keys   []string
	values map[string][]string
}

// NewMultiMap returns an empty MultiMap.
func NewMultiMap() *MultiMap {
	return &MultiMap{values: make(map[string][]string)}
}

// Add appends value to the list for name, registering name in insertion
// order the first time it is seen.
func (m *MultiMap) Add(name, value string) {
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = append(m.values[name], value)
}

// Get returns the values registered for name and whether any exist.
func (m *MultiMap) Get(name string) ([]string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Keys returns the registered names in insertion order.
func (m *MultiMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// BodyKind discriminates the four OptionalBody states.
type BodyKind int

const (
	BodyMissing BodyKind = iota
	BodyEmpty
	BodyNull
	BodyPresent
)

func (k BodyKind) String() string {
	switch k {
	case BodyMissing:
		return "missing"
	case BodyEmpty:
		return "empty"
	case BodyNull:
		return "null"
	case BodyPresent:
		return "present"
	default:
		return "unknown"
	}
}

// OptionalBody is the tagged union of the four states an HTTP body may
// be in per spec: absent, present-but-empty, a JSON null sentinel, or
// present with bytes and a content type.
type OptionalBody struct {
	Kind        BodyKind
	Bytes       []byte
	ContentType string // empty if undetermined
	Charset     string
}

// Missing returns the absent body.
func Missing() OptionalBody { return OptionalBody{Kind: BodyMissing} }

// Empty returns the zero-length present body.
func Empty() OptionalBody { return OptionalBody{Kind: BodyEmpty} }

// Null returns the JSON null sentinel body.
func Null() OptionalBody { return OptionalBody{Kind: BodyNull} }

// Present returns a present body carrying bytes and an effective
// content type/charset.
func Present(bytes []byte, contentType, charset string) OptionalBody {
	return OptionalBody{Kind: BodyPresent, Bytes: bytes, ContentType: contentType, Charset: charset}
}

// Request is an expected or actual HTTP request.
type Request struct {
	Method  string // normalized upper-case
	Path    string
	Query   *MultiMap
	Headers *MultiMap
	Body    OptionalBody
}

// Response is an expected or actual HTTP response.
type Response struct {
	Status  int
	Headers *MultiMap
	Body    OptionalBody
}

// Message is an asynchronous message interaction (no request/response
// round trip): a body plus metadata, matched the same way a Response's
// body is matched.
type Message struct {
	Description   string
	ProviderStates []ProviderState
	Contents      OptionalBody
	Metadata      map[string]interface{}
	MatchingRules rules.MatchingRules
}

// Interaction is one expected request/response pair within a contract.
// Message-only contracts populate Message instead of Request/Response.
// The deserializer sets Message for message interactions and
// Request/Response otherwise; it does not reject an interaction that
// carries neither.
type Interaction struct {
	Description    string
	ProviderStates []ProviderState
	Request        *Request
	Response       *Response
	Message        *Message
	MatchingRules  rules.MatchingRules
	Metadata       map[string]interface{}
}

// Key is the (description, provider-state tuple) identity spec.md uses
// for interaction uniqueness and for the writer's merge-on-conflict.
func (i Interaction) Key() string {
	key := i.Description
	for _, ps := range i.ProviderStates {
		key += "\x00" + ps.Name
	}
	return key
}

// Document is an in-memory contract: consumer, provider, its
// interactions, the spec version it was parsed at (or will be written
// at), and free-form metadata.
type Document struct {
	Consumer    string
	Provider    string
	Interactions []Interaction
	Version     SpecVersion
	Metadata    map[string]interface{}
}

// ErrUnsupportedSpec is returned by the reader when
// metadata.pactSpecification.version is absent or unrecognized.
type ErrUnsupportedSpec struct {
	Raw string
}

func (e ErrUnsupportedSpec) Error() string {
	if e.Raw == "" {
		return "pact: metadata.pactSpecification.version is missing"
	}
	return fmt.Sprintf("pact: unsupported pact specification version %q", e.Raw)
}
