// Package content classifies payload bytes by content type and compares
// bodies structurally.
package content

import (
	"bytes"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ContentType is a parsed "type/subtype; charset=..." media type.
type ContentType struct {
	Type    string
	Subtype string
	Charset string // canonical IANA name, empty if absent or unrecognized
}

// Parse parses a media type string such as "application/json; charset=utf-8".
// It returns false if s does not parse as a media type at all.
func Parse(s string) (ContentType, bool) {
	if strings.TrimSpace(s) == "" {
		return ContentType{}, false
	}
	mediatype, params, err := mime.ParseMediaType(s)
	if err != nil {
		return ContentType{}, false
	}
	typ, sub, ok := strings.Cut(mediatype, "/")
	if !ok {
		return ContentType{}, false
	}
	ct := ContentType{Type: typ, Subtype: sub}
	if cs, ok := params["charset"]; ok {
		ct.Charset = canonicalCharset(cs)
	}
	return ct, true
}

// canonicalCharset resolves a charset label to its canonical IANA name.
// htmlindex.Get is used purely as a label validator/canonicalizer here; no
// decoding is performed, per the conservative sniffing this package does.
func canonicalCharset(label string) string {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return strings.ToLower(label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return strings.ToLower(label)
	}
	return strings.ToLower(name)
}

// String renders the content type back to "type/subtype" or
// "type/subtype; charset=...".
func (c ContentType) String() string {
	s := c.Type + "/" + c.Subtype
	if c.Charset != "" {
		s += "; charset=" + c.Charset
	}
	return s
}

// IsJSON reports whether the content type is JSON or JSON-based
// (suffix "+json", e.g. "application/vnd.api+json").
func (c ContentType) IsJSON() bool {
	return c.Subtype == "json" || strings.HasSuffix(c.Subtype, "+json")
}

// IsXML reports whether the content type is XML or XML-based.
func (c ContentType) IsXML() bool {
	return c.Subtype == "xml" || strings.HasSuffix(c.Subtype, "+xml")
}

// IsText reports whether the content type is text/* or XML/JSON (which
// are themselves textual), matching spec's structural definition.
func (c ContentType) IsText() bool {
	return c.Type == "text" || c.IsJSON() || c.IsXML()
}

// Sniff makes a conservative guess at the content type of raw bytes when
// no content-type metadata is available: JSON-like bytes start with '{'
// or '[', XML-like bytes start with '<', anything else is text/plain.
func Sniff(body []byte) ContentType {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	switch {
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return ContentType{Type: "application", Subtype: "json"}
	case len(trimmed) > 0 && trimmed[0] == '<':
		return ContentType{Type: "application", Subtype: "xml"}
	default:
		return ContentType{Type: "text", Subtype: "plain"}
	}
}

// Detect determines the effective content type per spec.md's ordering:
// an explicit type takes precedence, then a content-type metadata entry
// (looked up case-insensitively, accepting both "content-type" and
// "contentType" keys), then a sniff of the body bytes.
func Detect(explicit *ContentType, metadata map[string]string, body []byte) ContentType {
	if explicit != nil {
		return *explicit
	}
	if v, ok := lookupCaseInsensitive(metadata, "content-type"); ok {
		if ct, ok := Parse(v); ok {
			return ct
		}
	}
	if v, ok := lookupCaseInsensitive(metadata, "contentType"); ok {
		if ct, ok := Parse(v); ok {
			return ct
		}
	}
	return Sniff(body)
}

func lookupCaseInsensitive(m map[string]string, key string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
