// Package recognize implements strict and fuzzy matching over a compiled
// graph (strict.go, fuzzy.go), reconstructs entities and confidence from a
// winning node path (replay.go), and the default converter set
// (converters.go).
package recognize

import (
	"encoding/json"
	"strconv"
)

// ValueKind identifies which native Go scalar type a Value holds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
)

// Value is one substituted token, tagged with whichever scalar type
// produced it. Converters like "int"/"float"/"bool" return Values carrying
// that native type; everything else (plain substitution text, "lower",
// "upper", a multi-token entity span) is a string. This is what lets a
// single-token entity such as a converted number come back as an actual
// int instead of its string form.
type Value struct {
	Kind ValueKind

	Str   string
	Int   int
	Float float64
	Bool  bool
}

// StringValue builds a string-kind Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue builds an int-kind Value.
func IntValue(i int) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue builds a float-kind Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// BoolValue builds a bool-kind Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Interface returns v's underlying Go value: string, int, float64, or bool.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	default:
		return v.Str
	}
}

// String renders v as text regardless of Kind, for display and for joining
// a multi-token span into one value.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// MarshalJSON writes v as its native JSON scalar (a number, a bool, or a
// string) rather than as a {"Kind":...} wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Entity is a named span extracted from a __begin__/__end__ tag pair on a
// matched path.
type Entity struct {
	Name string

	Start, End       int // substituted-text char offsets, inclusive-inclusive
	RawStart, RawEnd int // raw-text char offsets, inclusive-inclusive

	Tokens    []string // substituted tokens within the span, as text
	RawTokens []string // raw tokens within the span

	Value    Value  // substituted value; scalar-typed if exactly one token came from a converter
	RawValue string // raw tokens joined with single spaces
}

// IntentResult names the matched intent and how confident the match is.
type IntentResult struct {
	Name       string
	Confidence float64
}

// Recognition is one candidate result of recognizing a token sequence
// against a compiled graph.
type Recognition struct {
	Intent   IntentResult
	Entities []Entity

	Text    string
	RawText string

	Tokens    []Value
	RawTokens []string

	RecognizeSeconds float64
}
