// Package errors defines the error handling used across the distributed
// filesystem: a Kind-tagged error type that can be inspected by kind
// rather than by concrete Go type within a process. net/rpc carries only
// an error's message string, so a caller on the far side of an RPC does
// not receive the Kind; call sites report such failures as Transport.
package errors

import (
	"bytes"
	"fmt"
	"strings"
)

// Error is the type that implements the error interface for this package.
// An Error value may leave some fields unset.
type Error struct {
	// Op is the operation being performed, usually the method being
	// invoked (createFile, read, register, ...).
	Op string
	// Path is the filesystem path of the item being accessed, if any.
	Path string
	// Kind is the class of error. If unset (Other) on construction and
	// an underlying *Error is wrapped, the wrapped error's Kind is
	// promoted (see E).
	Kind Kind
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Kind defines the class of an error, for inspection by RPC callers that
// need to react differently depending on what went wrong (see spec.md
// §7, "Errors surfaced over RPC").
type Kind uint8

// The kinds of errors this package supports. These map directly onto the
// error kinds spec.md §7 requires be surfaced over RPC.
const (
	Other             Kind = iota // Unclassified error.
	NotFound                      // spec.md: not-found
	Bounds                        // spec.md: bounds
	IllegalArgument               // spec.md: illegal-argument
	IllegalState                  // spec.md: illegal-state
	AlreadyRegistered             // spec.md: already-registered
	NullArgument                  // spec.md: null-argument
	Transport                     // spec.md: rmi-transport
	IO                            // copy integrity / local I/O failure
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "unclassified error"
	case NotFound:
		return "not found"
	case Bounds:
		return "out of bounds"
	case IllegalArgument:
		return "illegal argument"
	case IllegalState:
		return "illegal state"
	case AlreadyRegistered:
		return "already registered"
	case NullArgument:
		return "null argument"
	case Transport:
		return "rpc transport failure"
	case IO:
		return "i/o error"
	}
	return "unknown error kind"
}

// Separator separates a wrapped error from the one that wraps it, when
// printed.
var Separator = ": "

// E builds an error value from its arguments. The type of each argument
// determines its meaning; if more than one argument of a given type is
// given, only the last is recorded.
//
// The accepted types are:
//
//	string
//		The first string argument is the Op; a second is the Path.
//	Kind
//		The class of error.
//	error
//		The underlying error that triggered this one. A *Error is
//		copied; any other error is kept as-is.
//
// If Kind is unset (Other) and an underlying *Error is wrapped, the
// wrapped error's Kind is promoted to this error, matching the teacher
// package's convention of letting the innermost classified error win.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Path = a
			}
		case Kind:
			e.Kind = a
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		default:
			return Errorf("errors.E: bad argument of type %T: %v", arg, arg)
		}
	}
	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}
	if e.Kind == Other {
		e.Kind = prev.Kind
		prev.Kind = Other
	}
	return e
}

// Str returns an error that formats as the given text, suitable for use
// as the error-typed argument to E.
func Str(text string) error {
	return &errorString{text}
}

// Errorf is equivalent to fmt.Errorf, but returns an error that may be
// used as the error-typed argument to E without double-wrapping.
func Errorf(format string, args ...interface{}) error {
	return &errorString{fmt.Sprintf(format, args...)}
}

type errorString struct {
	s string
}

func (e *errorString) Error() string { return e.s }

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.Path != "" {
		b.WriteString(e.Path)
	}
	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(e.Op)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		pad(b, Separator)
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

func pad(b *bytes.Buffer, sep string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(sep)
}

// Is reports whether err is an *Error of the given Kind, looking through
// any chain of wrapped *Error values.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Kind != Other {
		return e.Kind == kind
	}
	if e.Err != nil {
		return Is(kind, e.Err)
	}
	return kind == Other
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, or Other
// if it carries no classification.
func KindOf(err error) Kind {
	e, ok := err.(*Error)
	if !ok {
		return Other
	}
	if e.Kind != Other {
		return e.Kind
	}
	if e.Err != nil {
		return KindOf(e.Err)
	}
	return Other
}

// Match reports whether template's set fields match err's, for use in
// tests. Only non-zero fields of template are checked.
func Match(template, err error) bool {
	t, ok := template.(*Error)
	if !ok {
		return strings.Contains(err.Error(), template.Error())
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if t.Path != "" && t.Path != e.Path {
		return false
	}
	if t.Kind != Other && t.Kind != e.Kind {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	if t.Err != nil {
		if e.Err == nil {
			return false
		}
		return Match(t.Err, e.Err)
	}
	return true
}
