package mockserver

import "github.com/pactanvil/pactcore/internal/matchengine"

// MatchResultKind discriminates the four outcomes a received request, or
// an interaction never received, can resolve to.
type MatchResultKind int

const (
	RequestMatchKind MatchResultKind = iota
	RequestMismatchKind
	RequestNotFoundKind
	MissingRequestKind
)

func (k MatchResultKind) String() string {
	switch k {
	case RequestMatchKind:
		return "RequestMatch"
	case RequestMismatchKind:
		return "RequestMismatch"
	case RequestNotFoundKind:
		return "RequestNotFound"
	case MissingRequestKind:
		return "MissingRequest"
	default:
		return "unknown"
	}
}

// MatchResult is one entry in the mock server's ledger: a classification
// of a received request against the interactions in the served contract,
// or (for MissingRequestKind) an interaction that was never received.
//
// Description identifies the interaction involved (the one
// matched, the one chosen as best-mismatch candidate, or the one that
// went unmatched); they are empty for RequestNotFoundKind, which matched
// no interaction at all.
type MatchResult struct {
	Kind           MatchResultKind
	Description    string
	Actual         *RequestRecord
	Mismatches     []matchengine.Mismatch
}

// RequestRecord is a plain snapshot of an HTTP request as received or
// expected, independent of pkg/pact's Request so the ledger does not
// need matching-rule context to describe what happened.
type RequestRecord struct {
	Method string
	Path   string
}
