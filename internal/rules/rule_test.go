package rules

import "testing"

func TestEquality(t *testing.T) {
	if v := (Equality{}).Matches("a", "a"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (Equality{}).Matches("a", "b"); v == nil {
		t.Error("expected mismatch")
	}
}

func TestTypeRule(t *testing.T) {
	if v := (Type{}).Matches("x", "y"); v != nil {
		t.Errorf("expected both strings to match type, got %v", v)
	}
	if v := (Type{}).Matches("x", 1.0); v == nil {
		t.Error("expected string vs number to mismatch")
	}
}

func TestRegex(t *testing.T) {
	if v := (Regex{Pattern: `^\d+$`}).Matches(nil, "123"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (Regex{Pattern: `^\d+$`}).Matches(nil, "abc"); v == nil {
		t.Error("expected mismatch")
	}
}

func TestInclude(t *testing.T) {
	if v := (Include{Value: "foo"}).Matches(nil, "foobar"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (Include{Value: "foo"}).Matches(nil, "bar"); v == nil {
		t.Error("expected mismatch")
	}
}

func TestMinMaxType(t *testing.T) {
	exp := []interface{}{1.0}
	if v := (MinType{Min: 2}).Matches(exp, []interface{}{1.0, 2.0}); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (MinType{Min: 2}).Matches(exp, []interface{}{1.0}); v == nil {
		t.Error("expected mismatch for too-short array")
	}
	if v := (MaxType{Max: 1}).Matches(exp, []interface{}{1.0, 2.0}); v == nil {
		t.Error("expected mismatch for too-long array")
	}
	if v := (MinMaxType{Min: 1, Max: 2}).Matches(exp, []interface{}{1.0, 2.0}); v != nil {
		t.Errorf("expected match, got %v", v)
	}
}

func TestNumberIntegerDecimal(t *testing.T) {
	if v := (Number{}).Matches(nil, 1.5); v != nil {
		t.Errorf("expected match: %v", v)
	}
	if v := (Integer{}).Matches(nil, 2.0); v != nil {
		t.Errorf("expected integer match: %v", v)
	}
	if v := (Integer{}).Matches(nil, 2.5); v == nil {
		t.Error("expected integer mismatch")
	}
	if v := (Decimal{}).Matches(nil, 2.5); v != nil {
		t.Errorf("expected decimal match: %v", v)
	}
	if v := (Decimal{}).Matches(nil, 2.0); v == nil {
		t.Error("expected decimal mismatch for whole number")
	}
}

func TestBooleanNull(t *testing.T) {
	if v := (Boolean{}).Matches(nil, true); v != nil {
		t.Errorf("expected match: %v", v)
	}
	if v := (Null{}).Matches(nil, nil); v != nil {
		t.Errorf("expected match: %v", v)
	}
	if v := (Null{}).Matches(nil, "x"); v == nil {
		t.Error("expected mismatch")
	}
}

func TestDateFormat(t *testing.T) {
	if v := (Date{Format: "yyyy-MM-dd"}).Matches(nil, "2024-01-15"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (Date{Format: "yyyy-MM-dd"}).Matches(nil, "not-a-date"); v == nil {
		t.Error("expected mismatch")
	}
}

func TestTimestampFormat(t *testing.T) {
	if v := (Timestamp{Format: "yyyy-MM-dd'T'HH:mm:ss"}).Matches(nil, "2024-01-15T10:30:00"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
}

func TestContentTypeRule(t *testing.T) {
	if v := (ContentType{Mime: "application/json"}).Matches(nil, "application/json"); v != nil {
		t.Errorf("expected match, got %v", v)
	}
	if v := (ContentType{Mime: "application/json"}).Matches(nil, "text/plain"); v == nil {
		t.Error("expected mismatch")
	}
}
