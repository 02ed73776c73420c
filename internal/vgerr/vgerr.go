// Package vgerr defines the error kinds produced by the grammar compiler and
// recognizer: GrammarParse, Resolve, Recursion, PathConsistency, and
// ConverterFailure. Recognize ("no path found") is not an error and is never
// represented here; callers simply receive an empty result list.
package vgerr

import "fmt"

// Kind identifies which of the five error categories an error belongs to.
type Kind int

const (
	KindGrammarParse Kind = iota
	KindResolve
	KindRecursion
	KindPathConsistency
	KindConverterFailure
)

func (k Kind) String() string {
	switch k {
	case KindGrammarParse:
		return "grammar parse error"
	case KindResolve:
		return "resolve error"
	case KindRecursion:
		return "recursion error"
	case KindPathConsistency:
		return "path consistency error"
	case KindConverterFailure:
		return "converter failure"
	default:
		return "unknown error"
	}
}

// Error is a kind-tagged error that may wrap an underlying cause.
type Error struct {
	kind Kind
	msg  string
	wrap error
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap gives the error that this Error wraps, if any.
func (e *Error) Unwrap() error {
	return e.wrap
}

// Kind returns the category of error this is.
func (e *Error) Kind() Kind {
	return e.kind
}

func newErr(k Kind, msg string, wrap error) error {
	return &Error{kind: k, msg: msg, wrap: wrap}
}

// GrammarParse returns a new error indicating a malformed grammar template.
func GrammarParse(msg string) error { return newErr(KindGrammarParse, msg, nil) }

// GrammarParsef is GrammarParse with Printf-style formatting.
func GrammarParsef(format string, a ...any) error {
	return newErr(KindGrammarParse, fmt.Sprintf(format, a...), nil)
}

// Resolve returns a new error indicating a reference to an undefined rule or
// slot. Resolve failures are fatal for the whole compilation.
func Resolve(msg string) error { return newErr(KindResolve, msg, nil) }

// Resolvef is Resolve with Printf-style formatting.
func Resolvef(format string, a ...any) error {
	return newErr(KindResolve, fmt.Sprintf(format, a...), nil)
}

// Recursion returns a new error indicating the expansion-depth guard was
// exceeded, which indicates an ill-formed recursive rule definition.
func Recursion(msg string) error { return newErr(KindRecursion, msg, nil) }

// Recursionf is Recursion with Printf-style formatting.
func Recursionf(format string, a ...any) error {
	return newErr(KindRecursion, fmt.Sprintf(format, a...), nil)
}

// PathConsistency returns a new error indicating a structural invariant on a
// candidate path was violated (unbalanced __begin__/__end__ markers, a
// mismatched tag name, or converter-stack underflow). The recognizer drops
// the offending candidate path and continues with others; this is never
// fatal for the whole recognition.
func PathConsistency(msg string) error { return newErr(KindPathConsistency, msg, nil) }

// PathConsistencyf is PathConsistency with Printf-style formatting.
func PathConsistencyf(format string, a ...any) error {
	return newErr(KindPathConsistency, fmt.Sprintf(format, a...), nil)
}

// WrapConverterFailure returns a new error wrapping the panic or error raised
// by a converter callback. The candidate path that triggered it is dropped.
func WrapConverterFailure(name string, cause error) error {
	return newErr(KindConverterFailure, fmt.Sprintf("converter %q failed", name), cause)
}

// Is allows errors.Is(err, vgerr.KindX) style checks are not supported since
// Kind isn't an error; use KindOf instead.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ve, ok := err.(*Error); ok {
			e = ve
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.kind, true
}
