package resolve

import "testing"

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack()
	s.Push(OfString("a"))
	s.Push(OfString("b"))

	top, ok := s.Top()
	if !ok || top.Value.Str != "b" {
		t.Fatalf("expected top b, got %+v", top)
	}

	popped, ok := s.Pop()
	if !ok || popped.Value.Str != "b" {
		t.Fatalf("expected pop b, got %+v", popped)
	}

	top, ok = s.Top()
	if !ok || top.Value.Str != "a" {
		t.Fatalf("expected top a, got %+v", top)
	}
}

func TestStackPopEmpty(t *testing.T) {
	s := NewStack()
	_, ok := s.Pop()
	if ok {
		t.Fatal("expected Pop on empty stack to report not-ok")
	}
}

func TestStackPushEmptySlot(t *testing.T) {
	s := NewStack()
	s.PushEmpty()
	top, ok := s.Top()
	if !ok || !top.Empty {
		t.Fatalf("expected empty top slot, got %+v", top)
	}
}

func TestNodeKindString(t *testing.T) {
	cases := map[NodeKind]string{
		NULL:   "NULL",
		STRING: "STRING",
		SLIST:  "SLIST",
		LIST:   "LIST",
		MMAP:   "MMAP",
		BARRAY: "BARRAY",
		JSON:   "JSON",
		XML:    "XML",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("NodeKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
