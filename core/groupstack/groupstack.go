// Package groupstack tracks the open structural scopes of a single
// translator pass. Translators push a scope when a measure, voice, beam,
// tuplet or chord opens, attach leaf nodes to whichever scope is innermost,
// and pop with the expected kind so that mis-nested sources fail loudly
// instead of corrupting the tree under construction.
package groupstack

import (
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// ScopeKind identifies the structural grouping a scope represents.
type ScopeKind int

// Scope kinds, a strict subset of the tree's node kinds.
const (
	ScopeMeasure ScopeKind = iota
	ScopeVoice
	ScopeBeam
	ScopeTuplet
	ScopeChord
)

var scopeNames = []string{"measure", "voice", "beam", "tuplet", "chord"}

// String returns the lowercase label of the scope kind.
func (k ScopeKind) String() string {
	if k < 0 || int(k) >= len(scopeNames) {
		return "scope(?)"
	}
	return scopeNames[k]
}

// Scope is one open structural scope. The tree node it wraps receives all
// children attached while the scope is innermost.
type Scope struct {
	Kind ScopeKind
	Node *score.Node
	// Position is the source position where the scope opened, carried
	// into error context when the scope fails to close.
	Position string
}

// Stack is the pass-scoped stack of open scopes. It mutates the tree being
// built and is never shared between conversions.
type Stack struct {
	root   *score.Node
	frames []*Scope
}

// New creates a stack that attaches top-level nodes to root.
func New(root *score.Node) *Stack {
	return &Stack{root: root}
}

// Push opens a new scope around node: the node is attached to the current
// innermost scope (or the root) and becomes the attachment target for
// subsequent nodes until popped.
func (s *Stack) Push(kind ScopeKind, node *score.Node, position string) *Scope {
	s.Attach(node)
	scope := &Scope{Kind: kind, Node: node, Position: position}
	s.frames = append(s.frames, scope)
	return scope
}

// Top returns the innermost open scope.
func (s *Stack) Top() (*Scope, error) {
	if len(s.frames) == 0 {
		return nil, cerr.NewEmptyStack("top")
	}
	return s.frames[len(s.frames)-1], nil
}

// Pop closes the innermost scope, failing when its kind differs from
// expected. A mismatch means the source closed scopes out of order; the
// translator must abort since the structural error would corrupt duration
// and reference invariants downstream.
func (s *Stack) Pop(expected ScopeKind, position string) (*score.Node, error) {
	if len(s.frames) == 0 {
		return nil, cerr.NewEmptyStack(position)
	}
	top := s.frames[len(s.frames)-1]
	if top.Kind != expected {
		return nil, cerr.NewMismatchedScope(top.Kind.String(), expected.String(), position)
	}
	s.frames = s.frames[:len(s.frames)-1]
	return top.Node, nil
}

// Attach appends node as a child of the innermost open scope's tree node,
// or of the root when no scope is open.
func (s *Stack) Attach(node *score.Node) {
	if len(s.frames) == 0 {
		s.root.AppendChild(node)
		return
	}
	s.frames[len(s.frames)-1].Node.AppendChild(node)
}

// Depth returns the number of open scopes. A finished parse must leave the
// stack at depth zero.
func (s *Stack) Depth() int { return len(s.frames) }

// CheckClosed returns a structural error naming the innermost unclosed
// scope, or nil when the stack is empty.
func (s *Stack) CheckClosed() error {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	return cerr.NewUnclosedScope(top.Kind.String(), top.Position)
}

// Reset empties the stack and retargets top-level attachment at root.
func (s *Stack) Reset(root *score.Node) {
	s.root = root
	s.frames = s.frames[:0]
}
