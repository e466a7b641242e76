// Package errors provides the conversion error taxonomy shared by every
// translator and visitor. A failed conversion yields exactly one error value
// carrying a stable kind tag plus enough positional context to locate the
// offending construct; callers match on the sentinel errors with errors.Is
// or on the typed errors with errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversion taxonomy.
var (
	// ErrEmptyStack indicates a scope operation on an empty group stack.
	ErrEmptyStack = errors.New("empty group stack")
	// ErrMismatchedScope indicates a scope was closed with the wrong kind.
	ErrMismatchedScope = errors.New("mismatched scope")
	// ErrUnclosedScope indicates scopes were still open at end of parse.
	ErrUnclosedScope = errors.New("unclosed scope")
	// ErrDuplicateSymbol indicates an identifier was bound twice in one pass.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	// ErrUnresolvedReference indicates a cross-reference with no target.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrDurationMismatch indicates voice durations that do not balance.
	ErrDurationMismatch = errors.New("duration mismatch")
	// ErrUnsupportedConstruct indicates a source feature with no IR mapping.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrMalformedSource indicates source bytes that fail syntactic parsing.
	ErrMalformedSource = errors.New("malformed source")
)

// Kind is the stable tag identifying an error category across conversions.
type Kind string

// Kind constants, one per sentinel.
const (
	KindEmptyStack           Kind = "empty-stack"
	KindMismatchedScope      Kind = "mismatched-scope"
	KindUnclosedScope        Kind = "unclosed-scope"
	KindDuplicateSymbol      Kind = "duplicate-symbol"
	KindUnresolvedReference  Kind = "unresolved-reference"
	KindDurationMismatch     Kind = "duration-mismatch"
	KindUnsupportedConstruct Kind = "unsupported-construct"
	KindMalformedSource      Kind = "malformed-source"
)

// ConversionError is implemented by every error in the taxonomy. The batch
// driver aggregates failures by ErrorKind and prints Context verbatim.
type ConversionError interface {
	error
	ErrorKind() Kind
	Context() string
}

// StructuralError reports mis-nested or unclosed structural scopes.
type StructuralError struct {
	Kind     Kind   // KindEmptyStack, KindMismatchedScope or KindUnclosedScope
	Scope    string // scope kind involved (e.g. "tuplet")
	Expected string // expected scope kind for mismatches, empty otherwise
	Position string // source position or node path
}

func (e *StructuralError) Error() string {
	switch e.Kind {
	case KindMismatchedScope:
		return fmt.Sprintf("mismatched scope at %s: open %s, closing %s", e.Position, e.Scope, e.Expected)
	case KindUnclosedScope:
		return fmt.Sprintf("unclosed %s scope at end of parse (%s)", e.Scope, e.Position)
	}
	return fmt.Sprintf("scope operation on empty stack at %s", e.Position)
}

func (e *StructuralError) Unwrap() error {
	switch e.Kind {
	case KindMismatchedScope:
		return ErrMismatchedScope
	case KindUnclosedScope:
		return ErrUnclosedScope
	}
	return ErrEmptyStack
}

// ErrorKind returns the stable kind tag.
func (e *StructuralError) ErrorKind() Kind { return e.Kind }

// Context returns the source position or node path.
func (e *StructuralError) Context() string { return e.Position }

// ReferenceError reports cross-reference failures in the symbol table.
type ReferenceError struct {
	Kind     Kind   // KindDuplicateSymbol or KindUnresolvedReference
	ID       string // the identifier involved
	Position string
}

func (e *ReferenceError) Error() string {
	if e.Kind == KindDuplicateSymbol {
		return fmt.Sprintf("duplicate symbol %q at %s", e.ID, e.Position)
	}
	return fmt.Sprintf("unresolved reference %q at %s", e.ID, e.Position)
}

func (e *ReferenceError) Unwrap() error {
	if e.Kind == KindDuplicateSymbol {
		return ErrDuplicateSymbol
	}
	return ErrUnresolvedReference
}

// ErrorKind returns the stable kind tag.
func (e *ReferenceError) ErrorKind() Kind { return e.Kind }

// Context returns the source position or node path.
func (e *ReferenceError) Context() string { return e.Position }

// SemanticError reports constructs that parse but violate score semantics.
type SemanticError struct {
	Kind      Kind   // KindDurationMismatch or KindUnsupportedConstruct
	Construct string // construct name (e.g. "measure 3 voice 1")
	Detail    string // human-readable explanation
	Position  string
}

func (e *SemanticError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Construct, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Construct)
}

func (e *SemanticError) Unwrap() error {
	if e.Kind == KindDurationMismatch {
		return ErrDurationMismatch
	}
	return ErrUnsupportedConstruct
}

// ErrorKind returns the stable kind tag.
func (e *SemanticError) ErrorKind() Kind { return e.Kind }

// Context returns the source position or node path.
func (e *SemanticError) Context() string { return e.Position }

// FormatError reports syntactically malformed source bytes.
type FormatError struct {
	Format   string // source format name (e.g. "mtn", "musicxml")
	Message  string
	Position string
	Err      error // underlying tokenizer/parser error, if any
}

func (e *FormatError) Error() string {
	if e.Position != "" {
		return fmt.Sprintf("malformed %s source at %s: %s", e.Format, e.Position, e.Message)
	}
	return fmt.Sprintf("malformed %s source: %s", e.Format, e.Message)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedSource
}

// Is matches the malformed-source sentinel even when an underlying parser
// error is wrapped.
func (e *FormatError) Is(target error) bool {
	return target == ErrMalformedSource
}

// ErrorKind returns the stable kind tag.
func (e *FormatError) ErrorKind() Kind { return KindMalformedSource }

// Context returns the source position.
func (e *FormatError) Context() string { return e.Position }

// NewEmptyStack creates a StructuralError for an operation on an empty stack.
func NewEmptyStack(position string) *StructuralError {
	return &StructuralError{Kind: KindEmptyStack, Position: position}
}

// NewMismatchedScope creates a StructuralError for a kind-mismatched close.
func NewMismatchedScope(open, closing, position string) *StructuralError {
	return &StructuralError{Kind: KindMismatchedScope, Scope: open, Expected: closing, Position: position}
}

// NewUnclosedScope creates a StructuralError for a scope left open at EOF.
func NewUnclosedScope(scope, position string) *StructuralError {
	return &StructuralError{Kind: KindUnclosedScope, Scope: scope, Position: position}
}

// NewDuplicateSymbol creates a ReferenceError for a rebound identifier.
func NewDuplicateSymbol(id, position string) *ReferenceError {
	return &ReferenceError{Kind: KindDuplicateSymbol, ID: id, Position: position}
}

// NewUnresolvedReference creates a ReferenceError for a dangling reference.
func NewUnresolvedReference(id, position string) *ReferenceError {
	return &ReferenceError{Kind: KindUnresolvedReference, ID: id, Position: position}
}

// NewDurationMismatch creates a SemanticError for unbalanced durations.
func NewDurationMismatch(construct, detail, position string) *SemanticError {
	return &SemanticError{Kind: KindDurationMismatch, Construct: construct, Detail: detail, Position: position}
}

// NewUnsupportedConstruct creates a SemanticError for an unmappable feature.
func NewUnsupportedConstruct(construct, detail, position string) *SemanticError {
	return &SemanticError{Kind: KindUnsupportedConstruct, Construct: construct, Detail: detail, Position: position}
}

// NewFormat creates a FormatError for malformed source bytes.
func NewFormat(format, position, message string) *FormatError {
	return &FormatError{Format: format, Position: position, Message: message}
}

// WrapFormat creates a FormatError around an underlying parser error.
func WrapFormat(format string, err error) *FormatError {
	return &FormatError{Format: format, Message: err.Error(), Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
