package pathexpr

import (
	"testing"

	"github.com/beevik/etree"
)

func parseXML(t *testing.T, s string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatalf("ReadFromString: %v", err)
	}
	return doc.Root()
}

func TestResolveXMLField(t *testing.T) {
	root := parseXML(t, `<root><a><b>1</b></a></root>`)
	got := ResolveXML(root, MustParse("$.a.b"))
	if len(got) != 1 || got[0].Tag != "b" {
		t.Errorf("got %v", got)
	}
}

func TestResolveXMLWildcard(t *testing.T) {
	root := parseXML(t, `<root><item>1</item><item>2</item></root>`)
	got := ResolveXML(root, MustParse("$.*"))
	if len(got) != 2 {
		t.Errorf("got %d elements, want 2", len(got))
	}
}

func TestResolveXMLIndex(t *testing.T) {
	root := parseXML(t, `<root><item>1</item><item>2</item></root>`)
	got := ResolveXML(root, MustParse("$.item[1]"))
	if len(got) != 1 || got[0].Text() != "2" {
		t.Errorf("got %v", got)
	}
}

func TestResolveXMLRoot(t *testing.T) {
	root := parseXML(t, `<root/>`)
	got := ResolveXML(root, MustParse("$"))
	if len(got) != 1 || got[0] != root {
		t.Errorf("expected root element itself")
	}
}

func TestResolveXMLMissingField(t *testing.T) {
	root := parseXML(t, `<root><a/></root>`)
	got := ResolveXML(root, MustParse("$.missing"))
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}
