// Package pactio writes and reads pact contract documents to and from
// disk: an atomic, merge-on-conflict writer and a version-sniffing
// reader, both built on pkg/pact's (de)serialization.
package pactio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pactanvil/pactcore/pkg/pact"
)

// ErrUnsupportedSpec re-exports pact.ErrUnsupportedSpec so callers of
// this package need not import pkg/pact just to match on it.
type ErrUnsupportedSpec = pact.ErrUnsupportedSpec

// TargetPath returns the conventional file path for a consumer/provider
// pair's contract within dir.
func TargetPath(dir, consumer, provider string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", consumer, provider))
}

// Write serializes doc to <dir>/<consumer>-<provider>.json. If the file
// already exists and overwrite is false, the existing document's
// interactions are merged with doc's by (description, providerStates),
// with doc's entries overriding on conflict; otherwise doc replaces the
// file outright. The write is atomic: a temp sibling file is written
// first and renamed into place.
func Write(dir string, doc pact.Document, overwrite bool) (string, error) {
	path := TargetPath(dir, doc.Consumer, doc.Provider)

	final := doc
	if !overwrite {
		if existing, err := readExisting(path); err == nil {
			final = mergeInteractions(existing, doc)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("pactio: read existing contract at %s: %w", path, err)
		}
	}

	raw, err := final.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("pactio: marshal contract: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pactio: create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("pactio: write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("pactio: rename temporary file into place: %w", err)
	}

	return path, nil
}

func readExisting(path string) (pact.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pact.Document{}, err
	}
	return pact.Unmarshal(raw)
}

// mergeInteractions unions base's and overlay's interactions keyed by
// (description, providerStates), with overlay's entries overriding
// base's on conflict and new overlay entries appended in overlay order
// after any entries base alone contributed.
func mergeInteractions(base, overlay pact.Document) pact.Document {
	merged := overlay
	merged.Consumer = base.Consumer
	merged.Provider = base.Provider

	byKey := make(map[string]pact.Interaction, len(base.Interactions)+len(overlay.Interactions))
	order := make([]string, 0, len(base.Interactions)+len(overlay.Interactions))

	for _, it := range base.Interactions {
		k := it.Key()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = it
	}
	for _, it := range overlay.Interactions {
		k := it.Key()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = it
	}

	merged.Interactions = make([]pact.Interaction, 0, len(order))
	for _, k := range order {
		merged.Interactions = append(merged.Interactions, byKey[k])
	}

	return merged
}

// Read loads a contract document from path, surfacing
// pact.ErrUnsupportedSpec when the file's declared spec version is
// missing or unrecognized.
func Read(path string) (pact.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pact.Document{}, fmt.Errorf("pactio: read %s: %w", path, err)
	}
	doc, err := pact.Unmarshal(raw)
	if err != nil {
		return pact.Document{}, err
	}
	return doc, nil
}
