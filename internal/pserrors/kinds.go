// Package pserrors defines the tagged error kinds used across the pipeline
// in place of exceptions-as-control-flow: callers use errors.As to branch on
// kind instead of matching error strings.
package pserrors

import "fmt"

// Kind classifies a failure for the purposes of retry policy and exit code.
type Kind int

const (
	KindConfig Kind = iota
	KindTransport
	KindRateLimited
	KindUnauthorized
	KindBusinessRule
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthorized:
		return "unauthorized"
	case KindBusinessRule:
		return "business_rule"
	default:
		return "unknown"
	}
}

// Error is a tagged error: it carries a Kind plus the wrapped cause so that
// higher layers can branch on kind without string matching, and lower layers
// keep the original cause for logging via %+v (github.com/pkg/errors style).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Config(op string, err error) error       { return New(KindConfig, op, err) }
func Transport(op string, err error) error    { return New(KindTransport, op, err) }
func RateLimited(op string, err error) error  { return New(KindRateLimited, op, err) }
func Unauthorized(op string, err error) error { return New(KindUnauthorized, op, err) }
func BusinessRule(op string, err error) error { return New(KindBusinessRule, op, err) }

// Is reports whether err carries the given kind, walking the wrap chain via
// errors.As semantics (implemented locally to avoid importing the stdlib
// errors package twice under two names at call sites).
func Is(err error, kind Kind) bool {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			if pe.Kind == kind {
				return true
			}
			err = pe.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
