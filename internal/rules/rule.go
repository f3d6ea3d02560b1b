// Package rules implements the matching-rule predicates that decide
// whether an actual value is an acceptable substitute for an expected
// one at a given document path.
package rules

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Violation describes why a Rule rejected a value pair. A nil *Violation
// means the rule accepted the pair.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

func violatef(format string, args ...interface{}) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

// Rule is a single matching predicate, evaluated against an expected and
// an actual value at some resolved document node.
type Rule interface {
	// Matches reports whether actual is an acceptable value given expected
	// under this rule, returning nil on success or a Violation describing
	// the mismatch.
	Matches(expected, actual interface{}) *Violation
}

// Equality requires actual to equal expected exactly.
type Equality struct{}

func (Equality) Matches(expected, actual interface{}) *Violation {
	if valuesEqual(expected, actual) {
		return nil
	}
	return violatef("Expected %v (Equality) to equal %v", actual, expected)
}

// Type requires actual to have the same JSON type class as expected
// (object, array, string, number, boolean, or null), ignoring value.
func (Type) Matches(expected, actual interface{}) *Violation {
	if sameTypeClass(expected, actual) {
		return nil
	}
	return violatef("Expected %v to be the same type as %v", actual, expected)
}

// Type is the rule itself; defined as a type below for symmetry with the
// other rule structs (stateless).
type Type struct{}

// Regex requires actual, stringified, to match Pattern.
type Regex struct {
	Pattern string
}

func (r Regex) Matches(_ interface{}, actual interface{}) *Violation {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return violatef("Invalid regex pattern %q: %v", r.Pattern, err)
	}
	s := stringify(actual)
	if re.MatchString(s) {
		return nil
	}
	return violatef("Expected %q to match %q", s, r.Pattern)
}

// Include requires actual, stringified, to contain Value as a substring.
type Include struct {
	Value string
}

func (r Include) Matches(_ interface{}, actual interface{}) *Violation {
	s := stringify(actual)
	if strings.Contains(s, r.Value) {
		return nil
	}
	return violatef("Expected %q to include %q", s, r.Value)
}

// MinType requires actual to be the same type class as expected and, if
// it is an array, to have at least Min elements.
type MinType struct {
	Min int
}

func (r MinType) Matches(expected, actual interface{}) *Violation {
	if !sameTypeClass(expected, actual) {
		return violatef("Expected %v to be the same type as %v", actual, expected)
	}
	if arr, ok := actual.([]interface{}); ok && len(arr) < r.Min {
		return violatef("Expected array with at least %d elements, got %d", r.Min, len(arr))
	}
	return nil
}

// MaxType requires actual to be the same type class as expected and, if
// it is an array, to have at most Max elements.
type MaxType struct {
	Max int
}

func (r MaxType) Matches(expected, actual interface{}) *Violation {
	if !sameTypeClass(expected, actual) {
		return violatef("Expected %v to be the same type as %v", actual, expected)
	}
	if arr, ok := actual.([]interface{}); ok && len(arr) > r.Max {
		return violatef("Expected array with at most %d elements, got %d", r.Max, len(arr))
	}
	return nil
}

// MinMaxType combines MinType and MaxType.
type MinMaxType struct {
	Min, Max int
}

func (r MinMaxType) Matches(expected, actual interface{}) *Violation {
	if v := (MinType{Min: r.Min}).Matches(expected, actual); v != nil {
		return v
	}
	return (MaxType{Max: r.Max}).Matches(expected, actual)
}

// Number requires actual to be a JSON number.
type Number struct{}

func (Number) Matches(_ interface{}, actual interface{}) *Violation {
	if _, ok := toFloat64(actual); ok {
		return nil
	}
	return violatef("Expected %v to be a number", actual)
}

// Integer requires actual to be a JSON number with no fractional part.
type Integer struct{}

func (Integer) Matches(_ interface{}, actual interface{}) *Violation {
	f, ok := toFloat64(actual)
	if !ok || f != float64(int64(f)) {
		return violatef("Expected %v to be an integer", actual)
	}
	return nil
}

// Decimal requires actual to be a JSON number with a fractional part.
type Decimal struct{}

func (Decimal) Matches(_ interface{}, actual interface{}) *Violation {
	f, ok := toFloat64(actual)
	if !ok || f == float64(int64(f)) {
		return violatef("Expected %v to be a decimal", actual)
	}
	return nil
}

// Boolean requires actual to be a JSON boolean.
type Boolean struct{}

func (Boolean) Matches(_ interface{}, actual interface{}) *Violation {
	if _, ok := actual.(bool); ok {
		return nil
	}
	return violatef("Expected %v to be a boolean", actual)
}

// Null requires actual to be JSON null.
type Null struct{}

func (Null) Matches(_ interface{}, actual interface{}) *Violation {
	if actual == nil {
		return nil
	}
	return violatef("Expected %v to be null", actual)
}

// Date requires actual, stringified, to parse under Format (a Java
// SimpleDateFormat-style pattern).
type Date struct {
	Format string
}

func (r Date) Matches(_ interface{}, actual interface{}) *Violation {
	return matchesTimeFormat(r.Format, actual)
}

// Time requires actual, stringified, to parse under Format.
type Time struct {
	Format string
}

func (r Time) Matches(_ interface{}, actual interface{}) *Violation {
	return matchesTimeFormat(r.Format, actual)
}

// Timestamp requires actual, stringified, to parse under Format.
type Timestamp struct {
	Format string
}

func (r Timestamp) Matches(_ interface{}, actual interface{}) *Violation {
	return matchesTimeFormat(r.Format, actual)
}

func matchesTimeFormat(format string, actual interface{}) *Violation {
	layout := translateDateFormat(format)
	s := stringify(actual)
	if _, err := parseTimeLayout(layout, s); err != nil {
		return violatef("Expected %q to match format %q: %v", s, format, err)
	}
	return nil
}

// ContentType requires the actual body's declared content type to match
// Mime exactly (type and subtype; suffix forms are not implied here,
// that generalization belongs to internal/content's IsJSON/IsXML).
type ContentType struct {
	Mime string
}

func (r ContentType) Matches(_ interface{}, actual interface{}) *Violation {
	s := stringify(actual)
	if s == r.Mime {
		return nil
	}
	return violatef("Expected content type %q, got %q", r.Mime, s)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sameTypeClass(a, b interface{}) bool {
	return typeClass(a) == typeClass(b)
}

func typeClass(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	case string:
		return "string"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return "unknown"
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af == bf
	}
	return false
}
