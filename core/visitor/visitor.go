// Package visitor implements the pure traversals that derive outputs from a
// Score Tree: token streams, node counts, note lists, Graphviz graphs,
// tree-edit-distance encodings, and serialized documents. Every visitor
// walks in document order, never mutates the tree, and is deterministic:
// identical trees produce identical outputs, which is what downstream
// comparison tooling depends on. Visitors may run concurrently over the
// same tree with no synchronization.
package visitor

import (
	"sort"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// Kind selects a visitor.
type Kind string

// Visitor kinds.
const (
	KindTokenStream      Kind = "tokens"
	KindNodeCounts       Kind = "counts"
	KindNoteList         Kind = "notes"
	KindDotGraph         Kind = "dot"
	KindTreeEditEncoding Kind = "tree-edit"
	KindSequenceDocument Kind = "sequence"
	KindMEIDocument      Kind = "mei"
	KindMXMLDocument     Kind = "musicxml"
)

// IsValid returns true for registered visitor kinds.
func (k Kind) IsValid() bool {
	_, ok := registry[k]
	return ok
}

// Output is the tagged result of a visitor run; exactly one payload field
// is populated, matching the Kind.
type Output struct {
	Kind Kind

	// Bytes holds document-like outputs (dot, tree-edit, sequence, XML).
	Bytes []byte

	// Tokens holds the token-stream output.
	Tokens []string

	// Counts holds the node-count output.
	Counts *CountReport

	// Notes holds the note-list output.
	Notes []NoteEvent
}

type visitFunc func(*score.Tree) (*Output, error)

var registry = map[Kind]visitFunc{
	KindTokenStream:      visitTokens,
	KindNodeCounts:       visitCounts,
	KindNoteList:         visitNotes,
	KindDotGraph:         visitDot,
	KindTreeEditEncoding: visitTreeEdit,
	KindSequenceDocument: visitSequence,
	KindMEIDocument:      visitMEIDocument,
	KindMXMLDocument:     visitMXMLDocument,
}

// Kinds returns the registered visitor kinds in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Visit runs the visitor of the given kind over an already-built tree.
func Visit(kind Kind, t *score.Tree) (*Output, error) {
	fn, ok := registry[kind]
	if !ok {
		return nil, cerr.NewUnsupportedConstruct(string(kind), "no such visitor kind", "")
	}
	if t == nil || t.Root == nil {
		return nil, cerr.NewFormat("tree", "", "nil tree")
	}
	return fn(t)
}
