package mockserver

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/pactanvil/pactcore/pkg/pact"
)

func helloDocument() pact.Document {
	return pact.Document{
		Consumer: "consumer",
		Provider: "provider",
		Version:  pact.V3,
		Interactions: []pact.Interaction{
			{
				Description: "a request for hello",
				Request:     &pact.Request{Method: "GET", Path: "/hello"},
				Response: &pact.Response{
					Status: 200,
					Body:   pact.Present([]byte(`{"ok":true}`), "application/json", ""),
				},
			},
		},
	}
}

func startServer(t *testing.T, doc pact.Document) *MockServer {
	t.Helper()
	s, err := New(doc, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func getURL(t *testing.T, s *MockServer, path string) *http.Response {
	t.Helper()
	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(s.Port()) + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// S1 — happy path, JSON echo.
func TestScenarioHappyPathJSONEcho(t *testing.T) {
	s := startServer(t, helloDocument())

	resp := getURL(t, s, "/hello")
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("expected echoed body, got %q", body)
	}

	mismatches := s.Mismatches()
	if len(mismatches) != 0 {
		t.Fatalf("expected no mismatches, got %+v", mismatches)
	}
}

// S2 — missing expected.
func TestScenarioMissingExpected(t *testing.T) {
	doc := pact.Document{
		Consumer: "consumer",
		Provider: "provider",
		Version:  pact.V3,
		Interactions: []pact.Interaction{
			{Description: "a", Request: &pact.Request{Method: "GET", Path: "/a"}, Response: &pact.Response{Status: 200}},
			{Description: "b", Request: &pact.Request{Method: "GET", Path: "/b"}, Response: &pact.Response{Status: 200}},
		},
	}
	s := startServer(t, doc)

	resp := getURL(t, s, "/a")
	resp.Body.Close()

	mismatches := s.Mismatches()
	found := false
	for _, m := range mismatches {
		if m.Kind == MissingRequestKind && m.Actual.Path == "/b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a MissingRequest for /b, got %+v", mismatches)
	}
}

// S3 — unexpected method.
func TestScenarioUnexpectedMethod(t *testing.T) {
	doc := pact.Document{
		Consumer: "consumer",
		Provider: "provider",
		Version:  pact.V3,
		Interactions: []pact.Interaction{
			{Description: "x", Request: &pact.Request{Method: "GET", Path: "/x"}, Response: &pact.Response{Status: 200}},
		},
	}
	s := startServer(t, doc)

	resp, err := http.Post("http://127.0.0.1:"+strconv.Itoa(s.Port())+"/x", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	mismatches := s.Mismatches()
	found := false
	for _, m := range mismatches {
		if m.Kind == RequestNotFoundKind && m.Actual.Method == "POST" && m.Actual.Path == "/x" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a RequestNotFound for POST /x, got %+v", mismatches)
	}
}

// S6 — write-on-success.
func TestScenarioWritePactOnSuccess(t *testing.T) {
	s := startServer(t, helloDocument())

	resp := getURL(t, s, "/hello")
	resp.Body.Close()

	dir := t.TempDir()
	path, err := s.WritePact(dir, true)
	if err != nil {
		t.Fatalf("WritePact: %v", err)
	}

	doc, err := readBack(path)
	if err != nil {
		t.Fatalf("readBack: %v", err)
	}
	if len(doc.Interactions) != 1 || doc.Interactions[0].Request.Method != "GET" {
		t.Fatalf("expected one GET interaction, got %+v", doc.Interactions)
	}
}

func readBack(path string) (pact.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pact.Document{}, err
	}
	return pact.Unmarshal(raw)
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := startServer(t, helloDocument())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	before := s.Mismatches()

	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	after := s.Mismatches()

	if s.CurrentState() != Stopped {
		t.Fatalf("expected Stopped, got %v", s.CurrentState())
	}
	if len(before) != len(after) {
		t.Fatalf("expected identical ledger across repeated shutdowns, got %d vs %d", len(before), len(after))
	}
}

func TestNoSpuriousMismatchesOnByteIdenticalReplay(t *testing.T) {
	s := startServer(t, helloDocument())

	resp := getURL(t, s, "/hello")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	mismatches := s.Mismatches()
	if len(mismatches) != 0 {
		t.Fatalf("expected exactly zero non-match records, got %+v", mismatches)
	}
}
