// Package mockserver binds an ephemeral HTTP listener that replays the
// interactions of a pact.Document, classifying every request it
// receives against the matching engine and keeping an append-only
// ledger of the results.
package mockserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/sync/errgroup"

	"github.com/pactanvil/pactcore/internal/matchengine"
	"github.com/pactanvil/pactcore/pkg/logging"
	"github.com/pactanvil/pactcore/pkg/pact"
	"github.com/pactanvil/pactcore/pkg/pactio"
)

// DefaultShutdownGrace is how long Shutdown waits for in-flight
// connections to finish before it stops waiting and transitions to
// Stopped regardless.
const DefaultShutdownGrace = 100 * time.Millisecond

// Option configures a MockServer at construction time.
type Option func(*MockServer)

// WithLogger overrides the default no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *MockServer) { s.log = log }
}

// WithShutdownGrace overrides DefaultShutdownGrace.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *MockServer) { s.shutdownGrace = d }
}

// MockServer binds a listener and replays a contract's interactions
// against whatever arrives on it.
type MockServer struct {
	key  string
	doc  pact.Document
	log  *slog.Logger

	shutdownGrace time.Duration

	listener net.Listener

	mu    sync.Mutex
	state State
	hit   []bool
	ledger []MatchResult

	eg        *errgroup.Group
	closing   chan struct{}
	closeOnce sync.Once
	drained   chan struct{}
}

// New binds bindAddr immediately and starts serving doc's interactions
// in the background, returning a server already in the Listening state.
func New(doc pact.Document, bindAddr string, opts ...Option) (*MockServer, error) {
	snapshot, err := deepCopyDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("mockserver: snapshot contract: %w", err)
	}

	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("mockserver: bind %s: %w", bindAddr, err)
	}

	eg := &errgroup.Group{}

	s := &MockServer{
		key:           uuid.NewString(),
		doc:           snapshot,
		log:           logging.Nop(),
		shutdownGrace: DefaultShutdownGrace,
		listener:      listener,
		state:         Starting,
		hit:           make([]bool, len(snapshot.Interactions)),
		eg:            eg,
		closing:       make(chan struct{}),
		drained:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setState(Listening)
	eg.Go(s.acceptLoop)
	go func() {
		_ = eg.Wait()
		close(s.drained)
	}()

	return s, nil
}

// deepCopyDocument round-trips doc through the canonical wire form so
// the server owns a snapshot independent of the caller's document.
func deepCopyDocument(doc pact.Document) (pact.Document, error) {
	raw, err := doc.MarshalCanonical()
	if err != nil {
		return pact.Document{}, err
	}
	return pact.Unmarshal(raw)
}

// Key is the UUID identifying this server instance.
func (s *MockServer) Key() string { return s.key }

// Port returns the bound TCP port.
func (s *MockServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *MockServer) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// CurrentState returns the server's current lifecycle state.
func (s *MockServer) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *MockServer) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return nil
			default:
				s.log.Error("accept failed", "error", err)
				return err
			}
		}
		s.eg.Go(func() error {
			s.handleConn(conn)
			return nil
		})
	}
}

func (s *MockServer) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	req, err := http.ReadRequest(reader)
	if err != nil {
		return
	}
	defer req.Body.Close()

	actual, ok := s.parseRequest(req)
	if !ok {
		writeResponse(conn, 400, "text/plain; charset=utf-8", []byte("malformed request headers"))
		return
	}

	result, respStatus, respHeaders, respBody := s.classify(actual)
	s.log.Debug("classified request", "method", actual.Method, "path", actual.Path, "result", result.Kind.String())

	s.mu.Lock()
	s.ledger = append(s.ledger, result)
	s.mu.Unlock()

	writeHeaders(conn, respStatus, respHeaders, respBody)
}

// parseRequest converts a stdlib *http.Request into a pact.Request,
// rejecting the connection if any header value fails RFC 7230 value
// validation before it would otherwise reach the matching engine.
func (s *MockServer) parseRequest(req *http.Request) (pact.Request, bool) {
	headers := pact.NewMultiMap()
	for name, values := range req.Header {
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return pact.Request{}, false
			}
			headers.Add(name, v)
		}
	}

	query := pact.NewMultiMap()
	for name, values := range req.URL.Query() {
		for _, v := range values {
			query.Add(name, v)
		}
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return pact.Request{}, false
	}

	bodyVal := pact.Missing()
	if len(body) > 0 {
		bodyVal = pact.Present(body, req.Header.Get("Content-Type"), "")
	} else if req.ContentLength == 0 && req.Header.Get("Content-Type") != "" {
		bodyVal = pact.Empty()
	}

	return pact.Request{
		Method:  req.Method,
		Path:    req.URL.Path,
		Query:   query,
		Headers: headers,
		Body:    bodyVal,
	}, true
}

type candidate struct {
	index      int
	mismatches []matchengine.Mismatch
}

// classify runs actual against every interaction's expected request and
// applies spec.md's match/mismatch/not-found algorithm, returning the
// ledger entry plus the response to send back to the client.
func (s *MockServer) classify(actual pact.Request) (result MatchResult, status int, headers *pact.MultiMap, body []byte) {
	s.mu.Lock()
	draining := s.state == Draining
	s.mu.Unlock()
	if draining {
		return MatchResult{Kind: RequestNotFoundKind, Actual: recordOf(actual)},
			503, nil, []byte("mock server is draining")
	}

	var exact *candidate
	var best *candidate

	for i, interaction := range s.doc.Interactions {
		if interaction.Request == nil {
			continue
		}
		mismatches := matchengine.Compare(*interaction.Request, actual, interaction.MatchingRules)
		if len(mismatches) == 0 {
			idx := i
			exact = &candidate{index: idx}
			break
		}
		if methodOrPathMismatch(mismatches) {
			continue
		}
		if best == nil || len(mismatches) < len(best.mismatches) {
			idx := i
			best = &candidate{index: idx, mismatches: mismatches}
		}
	}

	switch {
	case exact != nil:
		s.markHit(exact.index)
		interaction := s.doc.Interactions[exact.index]
		result = MatchResult{
			Kind:        RequestMatchKind,
			Description: interaction.Description,
			Actual:      recordOf(actual),
		}
		status, headers, body = responseOf(interaction.Response)
		return

	case best != nil:
		s.markHit(best.index)
		interaction := s.doc.Interactions[best.index]
		result = MatchResult{
			Kind:        RequestMismatchKind,
			Description: interaction.Description,
			Actual:      recordOf(actual),
			Mismatches:  best.mismatches,
		}
		status, headers, body = responseOf(interaction.Response)
		return

	default:
		result = MatchResult{Kind: RequestNotFoundKind, Actual: recordOf(actual)}
		return result, 500, nil, []byte(fmt.Sprintf("no interaction matches %s %s", actual.Method, actual.Path))
	}
}

func methodOrPathMismatch(mismatches []matchengine.Mismatch) bool {
	for _, m := range mismatches {
		if m.Kind == matchengine.MethodMismatchKind || m.Kind == matchengine.PathMismatchKind {
			return true
		}
	}
	return false
}

func (s *MockServer) markHit(index int) {
	s.mu.Lock()
	s.hit[index] = true
	s.mu.Unlock()
}

func recordOf(r pact.Request) *RequestRecord {
	return &RequestRecord{Method: r.Method, Path: r.Path}
}

func responseOf(resp *pact.Response) (status int, headers *pact.MultiMap, body []byte) {
	if resp == nil {
		return 200, nil, nil
	}
	status = resp.Status
	if status == 0 {
		status = 200
	}
	headers = resp.Headers
	if resp.Body.Kind == pact.BodyPresent {
		body = resp.Body.Bytes
	}
	return
}

func writeResponse(conn net.Conn, status int, contentType string, body []byte) {
	headers := pact.NewMultiMap()
	if contentType != "" {
		headers.Add("Content-Type", contentType)
	}
	writeHeaders(conn, status, headers, body)
}

func writeHeaders(conn net.Conn, status int, headers *pact.MultiMap, body []byte) {
	resp := &http.Response{
		StatusCode: status,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       io.NopCloser(noopReader{body}),
		ContentLength: int64(len(body)),
	}
	for _, k := range multiMapKeysOrNil(headers) {
		vals, _ := headers.Get(k)
		for _, v := range vals {
			resp.Header.Add(k, v)
		}
	}
	_ = resp.Write(conn)
}

func multiMapKeysOrNil(m *pact.MultiMap) []string {
	if m == nil {
		return nil
	}
	return m.Keys()
}

type noopReader struct{ b []byte }

func (r noopReader) Read(p []byte) (int, error) {
	n := copy(p, r.b)
	if n < len(r.b) {
		return n, nil
	}
	return n, io.EOF
}

// Mismatches returns a snapshot of the ledger's non-matching entries
// merged with a MissingRequest for every interaction never hit.
func (s *MockServer) Mismatches() []MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MatchResult, 0, len(s.ledger))
	for _, r := range s.ledger {
		if r.Kind != RequestMatchKind {
			out = append(out, r)
		}
	}
	for i, interaction := range s.doc.Interactions {
		if interaction.Request == nil || s.hit[i] {
			continue
		}
		out = append(out, MatchResult{
			Kind:        MissingRequestKind,
			Description: interaction.Description,
			Actual:      &RequestRecord{Method: interaction.Request.Method, Path: interaction.Request.Path},
		})
	}
	return out
}

// Shutdown stops accepting new connections and waits, bounded by ctx and
// the server's shutdown grace period, for in-flight connections to
// finish. It is idempotent and safe to call more than once.
func (s *MockServer) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.log.Info("shutting down", "key", s.key)
		s.setState(Draining)
		close(s.closing)
		_ = s.listener.Close()
	})

	grace, cancel := context.WithTimeout(ctx, s.shutdownGrace)
	defer cancel()

	select {
	case <-s.drained:
	case <-grace.Done():
	}

	s.setState(Stopped)
	return nil
}

// WritePact serializes the server's contract via pkg/pactio.
func (s *MockServer) WritePact(dir string, overwrite bool) (string, error) {
	return pactio.Write(dir, s.doc, overwrite)
}
